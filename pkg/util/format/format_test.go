package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownTable(t *testing.T) {
	out, err := MarkdownTable([]string{"Name", "Description"}, [][]string{
		{"get_asset", "Fetch | read"},
		{"list_assets"},
	})
	require.NoError(t, err)
	assert.Equal(t, "| Name | Description |\n| --- | --- |\n| get_asset | Fetch \\| read |\n| list_assets |  |\n", out)

	_, err = MarkdownTable(nil, [][]string{{"a"}})
	assert.Error(t, err)
	_, err = MarkdownTable([]string{"a"}, nil)
	assert.Error(t, err)
}

func TestColumns(t *testing.T) {
	out, err := Columns([]string{"NAME", "PARAMS"}, [][]string{
		{"get_asset", "asset_id*"},
		{"ls"},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	assert.Equal(t, []string{"NAME       PARAMS", "----       ------", "get_asset  asset_id*", "ls"}, lines)

	_, err = Columns([]string{}, [][]string{{"a"}})
	assert.Error(t, err)
}

func TestPadDoesNotAliasRow(t *testing.T) {
	row := make([]string, 1, 4)
	row[0] = "a"
	out := pad(row, 3)
	assert.Equal(t, []string{"a", "", ""}, out)
	assert.Len(t, row, 1)
}
