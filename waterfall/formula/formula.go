// Package formula implements the expression ASTs of spec §9 that replace
// the legacy spreadsheet-style string payment formulas
// ("tranche_balance * coupon_rate / 4"): small arithmetic expressions over
// a fixed variable vocabulary, parsed once at strategy load and evaluated
// per call. The human-readable source string is retained on the parsed
// Formula for config round-tripping, per spec §9.
//
// Grammar (standard arithmetic precedence, left-associative):
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := '-' unary | primary
//	primary := number | ident | '(' expr ')'
package formula

import (
	"fmt"

	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
)

// Vars is the fixed variable vocabulary a Formula may reference (spec §9:
// "tranche_balance, coupon_rate, collateral_balance, available_cash, ...").
type Vars map[string]money.Decimal

// Formula is a parsed arithmetic expression plus its original source text.
type Formula struct {
	Source string
	root   node
}

// Parse compiles src into a Formula. It is parsed once at strategy load
// (spec §9) — Eval never re-parses.
func Parse(src string) (*Formula, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &fparser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != fTokEOF {
		return nil, dealerr.NewBadInput("formula: unexpected trailing token %q in %q", p.peek().text, src)
	}
	return &Formula{Source: src, root: root}, nil
}

// Eval evaluates the formula against vars. An identifier not present in
// vars is a BadInput error — the fixed vocabulary is enforced at call time,
// not just at parse time.
func (f *Formula) Eval(vars Vars) (money.Decimal, error) {
	return f.root.eval(vars)
}

func (f *Formula) String() string { return f.Source }

type node interface {
	eval(vars Vars) (money.Decimal, error)
}

type numberNode struct{ v money.Decimal }

func (n numberNode) eval(Vars) (money.Decimal, error) { return n.v, nil }

type identNode struct{ name string }

func (n identNode) eval(vars Vars) (money.Decimal, error) {
	v, ok := vars[n.name]
	if !ok {
		return money.Zero, dealerr.NewBadInput("formula: undefined variable %q", n.name)
	}
	return v, nil
}

type binNode struct {
	op          byte
	left, right node
}

func (n binNode) eval(vars Vars) (money.Decimal, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return money.Zero, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return money.Zero, err
	}
	switch n.op {
	case '+':
		return l.Add(r), nil
	case '-':
		return l.Sub(r), nil
	case '*':
		return l.Mul(r), nil
	case '/':
		if r.IsZero() {
			return money.Zero, dealerr.NewBadInput("formula: division by zero")
		}
		return l.Div(r), nil
	default:
		return money.Zero, fmt.Errorf("formula: unknown operator %q", n.op)
	}
}

type negNode struct{ operand node }

func (n negNode) eval(vars Vars) (money.Decimal, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return money.Zero, err
	}
	return v.Neg(), nil
}
