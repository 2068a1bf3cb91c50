// file: internal/schema/name_rules.go
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Runtime identifies an LLM runtime that tool definitions are rendered for.
type Runtime string

const (
	// RuntimeAnthropic is the Anthropic Messages API tool format.
	RuntimeAnthropic Runtime = "anthropic"

	// RuntimeOpenAI is the OpenAI-compatible function-calling format (also Ollama, LM Studio).
	RuntimeOpenAI Runtime = "openai"
)

// NameRule defines the tool-name constraints of a runtime.
type NameRule struct {
	// Pattern is the regex pattern the name must match.
	Pattern *regexp.Regexp

	// Description is a human-readable description of the pattern.
	Description string

	// MaxLength is the maximum allowed length of the name.
	MaxLength int
}

var nameRules = map[Runtime]NameRule{
	RuntimeAnthropic: {
		Pattern:     regexp.MustCompile(`^[a-zA-Z0-9_-]+$`),
		Description: "letters, digits, underscores and hyphens only",
		MaxLength:   64,
	},
	RuntimeOpenAI: {
		Pattern:     regexp.MustCompile(`^[a-zA-Z0-9_-]+$`),
		Description: "letters, digits, underscores and hyphens only",
		MaxLength:   64,
	},
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// GetNameRule returns the naming rule for a runtime.
func GetNameRule(runtime Runtime) (NameRule, bool) {
	rule, ok := nameRules[runtime]
	return rule, ok
}

// ValidateToolName checks name against the rules of runtime.
func ValidateToolName(runtime Runtime, name string) error {
	rule, ok := nameRules[runtime]
	if !ok {
		return errors.Newf("unknown runtime: %s", runtime)
	}
	if name == "" {
		return errors.Newf("empty tool name is not allowed for %s", runtime)
	}
	if len(name) > rule.MaxLength {
		return errors.Newf("tool name %q exceeds %s maximum length of %d characters", name, runtime, rule.MaxLength)
	}
	if !rule.Pattern.MatchString(name) {
		return errors.Newf("invalid %s tool name %q: %s", runtime, name, rule.Description)
	}
	return nil
}

// SanitizeToolName rewrites name so that it satisfies the rules of runtime.
// Runs of disallowed characters become a single underscore and the result is truncated.
func SanitizeToolName(runtime Runtime, name string) string {
	rule, ok := nameRules[runtime]
	if !ok {
		return name
	}
	out := invalidNameChars.ReplaceAllString(name, "_")
	if out == "" {
		out = "tool"
	}
	if len(out) > rule.MaxLength {
		out = out[:rule.MaxLength]
	}
	return out
}

// DescribeNameRules returns a human-readable summary of all runtime naming rules.
func DescribeNameRules() string {
	runtimes := make([]string, 0, len(nameRules))
	for r := range nameRules {
		runtimes = append(runtimes, string(r))
	}
	sort.Strings(runtimes)

	var builder strings.Builder
	for _, r := range runtimes {
		rule := nameRules[Runtime(r)]
		builder.WriteString(fmt.Sprintf("%s: %s, max %d characters\n", r, rule.Description, rule.MaxLength))
	}
	return builder.String()
}
