// Package promptbuilder renders the per-round user prompts consumed by the
// team Leader, the Evaluator, and the Judgment LLM.
//
// Its placeholder engine is a hand-rolled manual scanner, not text/template:
// text/template requires a leading dot (`{{.Field}}`) and its
// missingkey=error option only fires for map-key lookups reached through
// range/with, not for bare top-level actions, so it cannot give the strict
// "any undefined {{ name }} is a hard error" contract this package needs.
// The scanner itself generalizes the bare `${VAR}` substitution already
// used for environment-variable interpolation in MixSeek's configuration
// loader to arbitrary `{{ name }}` tokens with surrounding whitespace.
package promptbuilder

import (
	"fmt"
	"sort"
	"strings"
)

// TemplateError is returned when rendering fails, either because a
// placeholder has no supplied value (strict mode) or the template text
// itself is malformed (an unterminated `{{`).
type TemplateError struct {
	Field string
	Msg   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error in %s: %s", e.Field, e.Msg)
}

// Render substitutes every `{{ name }}` token in tmpl using vars, failing
// with a *TemplateError if any token's name is not present in vars or the
// template is malformed. field names the template for error messages (e.g.
// "team_prompt", "evaluator_prompt").
func Render(field, tmpl string, vars map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "{{")
		if start == -1 {
			out.WriteString(tmpl[i:])
			break
		}
		out.WriteString(tmpl[i : i+start])
		openAt := i + start
		end := strings.Index(tmpl[openAt:], "}}")
		if end == -1 {
			return "", &TemplateError{Field: field, Msg: fmt.Sprintf("unterminated placeholder starting at offset %d", openAt)}
		}
		closeAt := openAt + end
		name := strings.TrimSpace(tmpl[openAt+2 : closeAt])
		if name == "" {
			return "", &TemplateError{Field: field, Msg: fmt.Sprintf("empty placeholder at offset %d", openAt)}
		}
		val, ok := vars[name]
		if !ok {
			return "", &TemplateError{Field: field, Msg: fmt.Sprintf("undefined placeholder %q", name)}
		}
		out.WriteString(val)
		i = closeAt + 2
	}
	return out.String(), nil
}

// RequiredPlaceholders returns the sorted, de-duplicated set of `{{ name }}`
// tokens found in tmpl, used to validate a user-supplied template override
// covers every variable the caller intends to supply.
func RequiredPlaceholders(tmpl string) []string {
	seen := map[string]struct{}{}
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "{{")
		if start == -1 {
			break
		}
		openAt := i + start
		end := strings.Index(tmpl[openAt:], "}}")
		if end == -1 {
			break
		}
		closeAt := openAt + end
		name := strings.TrimSpace(tmpl[openAt+2 : closeAt])
		if name != "" {
			seen[name] = struct{}{}
		}
		i = closeAt + 2
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
