package workflowengine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aquanode/aqua-engine/model"
)

// Comparison operators supported by conditional blocks. These are the only
// forms of dynamic evaluation in the engine; there is deliberately no
// general-purpose expression language.
const (
	ConditionGreaterThan = "Greater Than"
	ConditionLessThan    = "Less Than"
	ConditionEqualTo     = "Equal To"
	ConditionContains    = "Contains"
)

type conditionalConfig struct {
	Condition string `mapstructure:"condition"`
	Value     string `mapstructure:"value"`
	Field     string `mapstructure:"field"`
}

// conditionalRunner resolves a field path against the current context and
// compares it to the configured value. A false result short-circuits the
// workflow without counting as an error.
type conditionalRunner struct{}

func (r *conditionalRunner) Type() model.BlockType    { return model.BlockTypeConditional }
func (r *conditionalRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *conditionalRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg conditionalConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if cfg.Condition == "" {
		return nil, NewMissingRequiredFieldError("condition")
	}
	if cfg.Value == "" {
		return nil, NewMissingRequiredFieldError("value")
	}
	if cfg.Field == "" {
		return nil, NewMissingRequiredFieldError("field")
	}

	fieldValue := ResolveField(cfg.Field, ec)
	result := EvaluateCondition(cfg.Condition, cfg.Value, fieldValue)

	return BlockOutput{
		"type":       "conditional",
		"condition":  cfg.Condition,
		"value":      cfg.Value,
		"field":      cfg.Field,
		"fieldValue": fieldValue,
		"result":     result,
		"passed":     result,
	}, nil
}

// EvaluateCondition compares fieldValue against value. Numeric comparisons
// coerce both sides with a permissive float parse; Contains does a
// case-insensitive substring test. Unparseable numbers fail the comparison
// rather than erroring.
func EvaluateCondition(condition, value string, fieldValue any) bool {
	switch condition {
	case ConditionGreaterThan:
		fv, fok := toFloat(fieldValue)
		cv, cok := toFloat(value)
		return fok && cok && fv > cv
	case ConditionLessThan:
		fv, fok := toFloat(fieldValue)
		cv, cok := toFloat(value)
		return fok && cok && fv < cv
	case ConditionEqualTo:
		fv, fok := toFloat(fieldValue)
		cv, cok := toFloat(value)
		return fok && cok && fv == cv
	case ConditionContains:
		haystack := strings.ToLower(coerceString(fieldValue))
		needle := strings.ToLower(value)
		return strings.Contains(haystack, needle)
	default:
		return false
	}
}

// toFloat mirrors a permissive parseFloat: a leading numeric prefix counts,
// trailing garbage is ignored.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		return 0, false
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		// Accept a numeric prefix, e.g. "50 SUI" parses as 50.
		end := 0
		for i, r := range s {
			if (r >= '0' && r <= '9') || r == '.' || (i == 0 && (r == '-' || r == '+')) {
				end = i + 1
				continue
			}
			break
		}
		if end == 0 {
			return 0, false
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		return f, err == nil
	default:
		f, err := strconv.ParseFloat(coerceString(value), 64)
		return f, err == nil
	}
}

func coerceString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
