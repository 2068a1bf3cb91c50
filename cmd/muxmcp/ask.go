// file: cmd/muxmcp/ask.go
package main

import (
	"fmt"
	"strings"

	"github.com/dkoosis/muxmcp/internal/provider"
	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var maxTokens int
	var noTools bool

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask the configured model, with the tool catalog as context",
		Long: `Send a prompt to the configured generation backend (LLM_PROVIDER).
The available tools are listed in the system prompt unless --no-tools is set.

Examples:
  muxmcp ask "How do I list my most recent assets?"
  LLM_PROVIDER=ollama muxmcp ask --no-tools "hello"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := a.generator()
			if err != nil {
				return err
			}

			var tools []provider.ToolSummary
			if !noTools {
				builder, err := a.connect()
				if err != nil {
					return err
				}
				cat, err := builder.GetTools(cmd.Context())
				if err != nil {
					return err
				}
				tools = summaries(cat)
			}

			resp, err := gen.Generate(cmd.Context(), provider.Request{
				System:    provider.SystemPrompt(tools),
				Prompt:    strings.Join(args, " "),
				MaxTokens: maxTokens,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, resp.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s %s] tokens in=%d out=%d\n",
				gen.Provider(), resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Override the configured max tokens")
	cmd.Flags().BoolVar(&noTools, "no-tools", false, "Do not connect to the tool provider")
	return cmd
}
