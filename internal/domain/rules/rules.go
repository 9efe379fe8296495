// Package rules evaluates configurable business-rule guards written in CEL.
//
// A rule is a boolean expression over the facts of one line movement. A rule
// that evaluates to false blocks the save with a business-rule error carrying
// the rule code.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/cel-go/cel"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
)

// Scope selects which movements a rule guards.
type Scope string

const (
	ScopeAdjustment  Scope = "adjustment"
	ScopeTransfer    Scope = "transfer"
	ScopeFulfillment Scope = "fulfillment"
)

// Rule codes shipped by default.
const (
	CodeNonNegative  = "inventory.non_negative"
	CodeWithinOnHand = "transfer.within_on_hand"
)

// Definition is a rule as configured.
type Definition struct {
	Code       string  `json:"code"`
	Expression string  `json:"expression"`
	Message    string  `json:"message"`
	Scopes     []Scope `json:"scopes"`
}

// Defaults returns the built-in guards: adjustments may not drive on-hand
// negative, transfers and vendor returns may not move more than is on hand.
func Defaults() []Definition {
	return []Definition{
		{
			Code:       CodeNonNegative,
			Expression: "onHand + change >= 0.0",
			Message:    "adjustment would drive inventory negative",
			Scopes:     []Scope{ScopeAdjustment},
		},
		{
			Code:       CodeWithinOnHand,
			Expression: "requested <= onHand",
			Message:    "quantity exceeds on-hand at the source location",
			Scopes:     []Scope{ScopeTransfer, ScopeFulfillment},
		},
	}
}

// LoadFile reads definitions from a JSON array. An empty path yields Defaults.
func LoadFile(path string) ([]Definition, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return defs, nil
}

// Facts describe one line movement.
type Facts struct {
	ItemID     string
	LocationID string
	OnHand     types.Quantity
	// Change is the signed quantity change (adjustments).
	Change types.Quantity
	// Requested is the outbound quantity (transfers, returns).
	Requested types.Quantity
}

func (f Facts) vars() map[string]any {
	return map[string]any{
		"onHand":    f.OnHand.Float64(),
		"change":    f.Change.Float64(),
		"requested": f.Requested.Float64(),
		"item":      f.ItemID,
		"location":  f.LocationID,
	}
}

type compiled struct {
	def Definition
	prg cel.Program
}

// Engine holds compiled rules grouped by scope.
type Engine struct {
	byScope map[Scope][]compiled
}

// NewEngine compiles definitions. Any invalid expression fails the whole set.
func NewEngine(defs []Definition) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("onHand", cel.DoubleType),
		cel.Variable("change", cel.DoubleType),
		cel.Variable("requested", cel.DoubleType),
		cel.Variable("item", cel.StringType),
		cel.Variable("location", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	e := &Engine{byScope: make(map[Scope][]compiled)}
	for _, def := range defs {
		ast, iss := env.Compile(def.Expression)
		if iss.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Code, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: expression must be boolean, got %s", def.Code, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Code, err)
		}
		for _, scope := range def.Scopes {
			e.byScope[scope] = append(e.byScope[scope], compiled{def: def, prg: prg})
		}
	}
	return e, nil
}

// Check evaluates every rule of scope against facts and returns the first violation.
func (e *Engine) Check(ctx context.Context, scope Scope, facts Facts) error {
	if e == nil {
		return nil
	}
	vars := facts.vars()
	for _, r := range e.byScope[scope] {
		out, _, err := r.prg.ContextEval(ctx, vars)
		if err != nil {
			return fmt.Errorf("evaluate rule %s: %w", r.def.Code, err)
		}
		if ok, _ := out.Value().(bool); !ok {
			return apperror.NewBusinessRule(r.def.Code, r.def.Message).
				WithDetail("item_id", facts.ItemID).
				WithDetail("location_id", facts.LocationID).
				WithDetail("on_hand", facts.OnHand.String()).
				WithDetail("change", facts.Change.String()).
				WithDetail("requested", facts.Requested.String())
		}
	}
	return nil
}
