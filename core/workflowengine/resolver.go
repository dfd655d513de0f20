package workflowengine

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// PreviousAlias targets the most recently stored block result instead of a
// concrete block id.
const PreviousAlias = "previous"

// ResolveField looks up a dotted path against the accumulated execution
// context and returns the closest matching value, or nil when any step of
// the walk misses. It never returns an error: unresolvable paths are a
// normal condition inside conditionals and templates.
//
// The first segment selects the result (`previous` or a block id); the rest
// is resolved inside that result's serialized form, so numeric segments
// index arrays as well as string keys that happen to be numeric.
func ResolveField(path string, ec *ExecutionContext) any {
	path = strings.TrimSpace(path)
	if path == "" || ec == nil {
		return nil
	}

	head, rest, _ := strings.Cut(path, ".")

	var out BlockOutput
	var ok bool
	if head == PreviousAlias {
		out, ok = ec.LastResult()
	} else {
		out, ok = ec.Result(head)
	}
	if !ok {
		return nil
	}

	if rest == "" {
		return map[string]any(out)
	}

	return resolveInValue(map[string]any(out), rest)
}

// resolveInValue walks a dotted path inside a JSON-like value. Resolution
// goes through the serialized form: structs with json tags, maps, and slices
// all resolve uniformly, and array elements are reachable by index.
func resolveInValue(value any, path string) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}

	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil
	}
	return res.Value()
}
