// file: internal/schema/name_rules_test.go
package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolName(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name          string
		runtime       Runtime
		inputName     string
		expectError   bool
		errorContains string
	}{
		{name: "[Anthropic] valid snake case", runtime: RuntimeAnthropic, inputName: "list_video_assets"},
		{name: "[Anthropic] valid hyphen", runtime: RuntimeAnthropic, inputName: "invoke-api-endpoint"},
		{name: "[Anthropic] valid max length", runtime: RuntimeAnthropic, inputName: strings.Repeat("a", 64)},
		{name: "[Anthropic] too long", runtime: RuntimeAnthropic, inputName: strings.Repeat("a", 65), expectError: true, errorContains: "maximum length"},
		{name: "[Anthropic] period", runtime: RuntimeAnthropic, inputName: "video.assets", expectError: true, errorContains: "letters, digits"},
		{name: "[OpenAI] space", runtime: RuntimeOpenAI, inputName: "list assets", expectError: true, errorContains: "invalid openai tool name"},
		{name: "[OpenAI] empty", runtime: RuntimeOpenAI, inputName: "", expectError: true, errorContains: "empty tool name"},
		{name: "unknown runtime", runtime: Runtime("gemini"), inputName: "x", expectError: true, errorContains: "unknown runtime"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateToolName(tc.runtime, tc.inputName)
			if !tc.expectError {
				assert.NoError(t, err, "Expected %q to be valid.", tc.inputName)
				return
			}
			if assert.Error(t, err, "Expected %q to be rejected.", tc.inputName) && tc.errorContains != "" {
				assert.Contains(t, err.Error(), tc.errorContains)
			}
		})
	}
}

func TestSanitizeToolName(t *testing.T) {
	assert.Equal(t, "video_assets_list", SanitizeToolName(RuntimeOpenAI, "video.assets list"))
	assert.Equal(t, "tool", SanitizeToolName(RuntimeOpenAI, ""))
	assert.Len(t, SanitizeToolName(RuntimeAnthropic, strings.Repeat("x", 80)), 64)
	assert.Equal(t, "a/b", SanitizeToolName(Runtime("other"), "a/b"))

	for _, raw := range []string{"a.b.c", "ok_name", "spaces and  more"} {
		assert.NoError(t, ValidateToolName(RuntimeAnthropic, SanitizeToolName(RuntimeAnthropic, raw)))
	}
}

func TestDescribeNameRules(t *testing.T) {
	desc := DescribeNameRules()
	assert.Contains(t, desc, "anthropic:")
	assert.Contains(t, desc, "openai:")
}
