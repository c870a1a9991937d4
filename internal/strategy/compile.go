package strategy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourusername/turfsim/internal/formula"
	"github.com/yourusername/turfsim/internal/models"
)

var definitionValidator = validator.New()

// compiledRule pairs a parsed rule expression with its comparison, when
// the rule is of the "formula against threshold" form
type compiledRule struct {
	source     string
	expr       formula.Expr
	comparator models.Comparator
	threshold  float64
	boolean    bool
}

// CompiledStrategy is a StrategyDefinition whose rules have been parsed
// and validated against the binding schema. Immutable once built; a
// backtest run never re-validates mid-run.
type CompiledStrategy struct {
	Definition models.StrategyDefinition
	rules      []compiledRule
	variables  []string
}

// Compile parses and validates every condition rule of the definition.
// This is the submission-time gate: a strategy that fails here is
// rejected synchronously and no job is ever created for it.
func Compile(def models.StrategyDefinition) (*CompiledStrategy, error) {
	if err := definitionValidator.Struct(def); err != nil {
		return nil, fmt.Errorf("invalid strategy definition: %w", err)
	}
	if def.Sizing.Method == models.SizingPercent && def.Sizing.Amount > 1 {
		return nil, fmt.Errorf("invalid strategy definition: percent sizing amount must be in (0,1], got %v", def.Sizing.Amount)
	}
	if def.MinOdds > 0 && def.MaxOdds > 0 && def.MinOdds > def.MaxOdds {
		return nil, fmt.Errorf("invalid strategy definition: min odds %v above max odds %v", def.MinOdds, def.MaxOdds)
	}

	schema := BindingSchema()
	seen := make(map[string]struct{})
	rules := make([]compiledRule, 0, len(def.Rules))

	for i, rule := range def.Rules {
		expr, err := formula.Parse(rule.Formula)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if err := formula.Validate(expr, schema); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		kind, err := formula.ResultKind(expr, schema)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}

		compiled := compiledRule{source: rule.Formula, expr: expr}
		if rule.IsBoolean() {
			if kind != formula.KindBool {
				return nil, fmt.Errorf("rule %d: formula produces %s but no comparator is declared", i+1, kind)
			}
			compiled.boolean = true
		} else {
			if rule.Comparator == "" || rule.Threshold == nil {
				return nil, fmt.Errorf("rule %d: comparator and threshold must both be set", i+1)
			}
			if kind != formula.KindNumber {
				return nil, fmt.Errorf("rule %d: formula produces %s but comparator %q requires a number", i+1, kind, rule.Comparator)
			}
			compiled.comparator = rule.Comparator
			compiled.threshold = *rule.Threshold
		}
		rules = append(rules, compiled)

		for _, name := range formula.ExtractVariables(expr) {
			seen[name] = struct{}{}
		}
	}

	variables := make([]string, 0, len(seen))
	for _, name := range schema.Names() {
		if _, ok := seen[name]; ok {
			variables = append(variables, name)
		}
	}

	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}

	return &CompiledStrategy{Definition: def, rules: rules, variables: variables}, nil
}

// Variables returns the sorted set of context fields the strategy's
// rules reference
func (cs *CompiledStrategy) Variables() []string {
	out := make([]string, len(cs.variables))
	copy(out, cs.variables)
	return out
}

// evaluateRule applies one compiled rule to a binding map
func (r compiledRule) evaluate(bindings map[string]formula.Value) (bool, error) {
	if r.boolean {
		return formula.EvaluateBool(r.expr, bindings)
	}
	value, err := formula.EvaluateNumber(r.expr, bindings)
	if err != nil {
		return false, err
	}
	switch r.comparator {
	case models.ComparatorGT:
		return value > r.threshold, nil
	case models.ComparatorGTE:
		return value >= r.threshold, nil
	case models.ComparatorLT:
		return value < r.threshold, nil
	case models.ComparatorLTE:
		return value <= r.threshold, nil
	case models.ComparatorEQ:
		return value == r.threshold, nil
	case models.ComparatorNEQ:
		return value != r.threshold, nil
	default:
		return false, fmt.Errorf("unknown comparator %q", r.comparator)
	}
}
