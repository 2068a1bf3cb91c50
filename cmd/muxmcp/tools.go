// file: cmd/muxmcp/tools.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/mcp/catalog"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/dkoosis/muxmcp/internal/provider"
	"github.com/dkoosis/muxmcp/internal/schema"
	"github.com/dkoosis/muxmcp/pkg/util/format"
	"github.com/dkoosis/muxmcp/pkg/util/stringutil"
	"github.com/spf13/cobra"
)

func newToolsCmd(a *app) *cobra.Command {
	var asJSON bool
	var outFormat string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered by the tool provider",
		Long: `Connect to the tool provider and list its tools.

Examples:
  muxmcp tools
  muxmcp tools --json
  muxmcp tools --format table
  muxmcp tools --format anthropic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			builder, err := a.connect()
			if err != nil {
				return err
			}
			cat, err := builder.GetTools(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case outFormat == "anthropic":
				return writeJSON(out, cat.AnthropicDefinitions())
			case outFormat == "openai":
				return writeJSON(out, cat.OpenAIDefinitions())
			case asJSON || outFormat == "json":
				return writeJSON(out, toolViews(cat))
			case outFormat == "table" || outFormat == "markdown":
				return writeToolGrid(out, cat, outFormat)
			case outFormat == "" || outFormat == "text":
				writeToolTable(out, cat)
				return nil
			default:
				return errors.WithHint(errors.Newf("unknown format %q", outFormat), "use text, table, markdown, json, anthropic or openai")
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&outFormat, "format", "", "Output format: text, table, markdown, json, anthropic, openai")
	return cmd
}

type fieldView struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

type toolView struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Permissive  bool        `json:"permissive"`
	Fields      []fieldView `json:"fields"`
}

func toolViews(cat *catalog.Catalog) []toolView {
	views := make([]toolView, 0, cat.Len())
	for _, t := range cat.Tools() {
		view := toolView{Name: t.ID, Description: t.Description, Fields: []fieldView{}}
		if t.Validator != nil {
			view.Permissive = t.Validator.Permissive()
			for _, f := range t.Validator.Fields() {
				view.Fields = append(view.Fields, fieldView{
					Name:        f.Name,
					Type:        string(f.Kind),
					Required:    f.Required,
					Description: f.Description,
				})
			}
		}
		views = append(views, view)
	}
	return views
}

func writeToolTable(w io.Writer, cat *catalog.Catalog) {
	if cat.Len() == 0 {
		fmt.Fprintln(w, "No tools available.")
		return
	}
	for _, t := range cat.Tools() {
		fmt.Fprintf(w, "%s\n  %s\n", t.ID, t.Description)
		if t.Validator == nil {
			continue
		}
		for _, f := range t.Validator.Fields() {
			marker := ""
			if f.Required {
				marker = " (required)"
			}
			fmt.Fprintf(w, "    - %s: %s%s\n", f.Name, f.Kind, marker)
		}
	}
	fmt.Fprintf(w, "\n%d tool(s)\n", cat.Len())
}

// writeToolGrid renders one row per tool as aligned columns or a markdown table.
func writeToolGrid(w io.Writer, cat *catalog.Catalog, style string) error {
	if cat.Len() == 0 {
		fmt.Fprintln(w, "No tools available.")
		return nil
	}
	headers := []string{"NAME", "PARAMS", "DESCRIPTION"}
	rows := make([][]string, 0, cat.Len())
	for _, t := range cat.Tools() {
		rows = append(rows, []string{t.ID, describeFields(t), stringutil.TruncateString(t.Description, 60)})
	}

	var out string
	var err error
	if style == "markdown" {
		out, err = format.MarkdownTable(headers, rows)
	} else {
		out, err = format.Columns(headers, rows)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCallCmd(a *app) *cobra.Command {
	var rawArgs string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool with JSON arguments",
		Long: `Validate the arguments against the tool's schema and invoke it.

Examples:
  muxmcp call list_video_assets
  muxmcp call get_video_asset --args '{"ASSET_ID":"abc123"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseToolArgs(rawArgs)
			if err != nil {
				return err
			}
			builder, err := a.connect()
			if err != nil {
				return err
			}
			cat, err := builder.GetTools(cmd.Context())
			if err != nil {
				return err
			}
			tool, ok := cat.Resolve(args[0])
			if !ok {
				return errors.WithHint(errors.Newf("unknown tool %q", args[0]), "run 'muxmcp tools' to list available tools")
			}

			out, err := tool.Invoke(cmd.Context(), toolArgs)
			if err != nil {
				if mcperror.IsInvalidArguments(err) {
					return errors.WithDetailf(err, "expected fields: %s", describeFields(tool))
				}
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out.Text())
			if out.IsError() {
				return errors.Newf("tool %q reported an error", tool.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "", "Tool arguments as a JSON object")
	return cmd
}

func parseToolArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "--args is not a JSON object"), `example: --args '{"limit": 10}'`)
	}
	return args, nil
}

func describeFields(t *catalog.Tool) string {
	if t.Validator == nil {
		return "any"
	}
	fields := t.Validator.Fields()
	if len(fields) == 0 {
		return "any"
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		part := f.Name + ":" + string(f.Kind)
		if f.Required {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// summaries converts the catalog for the generation prompt.
func summaries(cat *catalog.Catalog) []provider.ToolSummary {
	out := make([]provider.ToolSummary, 0, cat.Len())
	for _, t := range cat.Tools() {
		s := provider.ToolSummary{
			Name:        schema.SanitizeToolName(schema.RuntimeAnthropic, t.ID),
			Description: t.Description,
		}
		if t.Validator != nil {
			for _, f := range t.Validator.Fields() {
				p := f.Name
				if f.Required {
					p += "*"
				}
				s.Params = append(s.Params, p)
			}
		}
		out = append(out, s)
	}
	return out
}
