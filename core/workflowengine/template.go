package workflowengine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// templateExprRe matches {{ path }} placeholders, whitespace-trimmed.
var templateExprRe = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// legacyPathAliases are kept for workflows saved by older builder versions.
// Deprecated: new templates should reference the AI result via `AI.*` or the
// block id directly.
var legacyPathAliases = []struct {
	prefix  string
	rewrite string
}{
	// `previous.ai_explanation.X` predates the tagged result shape; the
	// segment is stripped so the path resolves against the result itself.
	{prefix: "previous.ai_explanation.", rewrite: "previous."},
}

// Interpolate expands every {{path}} placeholder in template against the
// execution context. Unresolvable paths render as the empty string; a
// notification body must never abort a run over a bad reference.
func Interpolate(template string, ec *ExecutionContext) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}

	return templateExprRe.ReplaceAllStringFunc(template, func(match string) string {
		sub := templateExprRe.FindStringSubmatch(match)
		if len(sub) < 2 {
			return ""
		}
		return stringifyTemplateValue(resolveTemplatePath(strings.TrimSpace(sub[1]), ec))
	})
}

func resolveTemplatePath(path string, ec *ExecutionContext) any {
	if ec == nil {
		return nil
	}

	// Workflow constants injected by the caller.
	switch path {
	case "WORKFLOW.name":
		return ec.WorkflowName
	case "WORKFLOW.id":
		return ec.WorkflowID
	}

	for _, alias := range legacyPathAliases {
		if strings.HasPrefix(path, alias.prefix) {
			path = alias.rewrite + strings.TrimPrefix(path, alias.prefix)
			break
		}
	}

	// `AI.<rest>` resolves against the response of the last AI explanation
	// result, regardless of how many blocks ran after it.
	if path == "AI" || strings.HasPrefix(path, "AI.") {
		out, ok := ec.LastResultOfType("ai_explanation")
		if !ok {
			return nil
		}
		response, ok := out["response"]
		if !ok {
			return nil
		}
		rest := strings.TrimPrefix(path, "AI")
		rest = strings.TrimPrefix(rest, ".")
		if rest == "" {
			return response
		}
		return resolveInValue(response, rest)
	}

	return ResolveField(path, ec)
}

// stringifyTemplateValue renders a resolved value for inclusion in free text.
// Arrays of primitives become a newline bullet list; other composites render
// as JSON; nil renders empty.
func stringifyTemplateValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		if len(v) == 0 {
			return ""
		}
		if allPrimitives(v) {
			var sb strings.Builder
			for _, item := range v {
				sb.WriteString("\n- ")
				sb.WriteString(stringifyTemplateValue(item))
			}
			return sb.String()
		}
		return jsonOrDefault(v)
	default:
		return jsonOrDefault(v)
	}
}

func allPrimitives(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case nil, string, bool, float64, int, int64:
		default:
			return false
		}
	}
	return true
}

func jsonOrDefault(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(raw)
}
