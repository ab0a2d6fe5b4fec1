package filter

import "fmt"

// Getter resolves a field name to its current value on the record being
// filtered. It returns an error if the field is unknown; callers typically
// close over an *asset.Asset or similar record.
type Getter func(field string) (Value, error)

// Eval walks expr against get, returning whether the record satisfies it.
func Eval(expr Expr, get Getter) (bool, error) {
	switch e := expr.(type) {
	case Comparison:
		return evalComparison(e, get)
	case Not:
		inner, err := Eval(e.Operand, get)
		if err != nil {
			return false, err
		}
		return !inner, nil
	case BinOp:
		left, err := Eval(e.Left, get)
		if err != nil {
			return false, err
		}
		switch e.Op {
		case "and":
			if !left {
				return false, nil
			}
			return Eval(e.Right, get)
		case "or":
			if left {
				return true, nil
			}
			return Eval(e.Right, get)
		default:
			return false, fmt.Errorf("filter: unknown logical operator %q", e.Op)
		}
	default:
		return false, fmt.Errorf("filter: unknown expression node %T", expr)
	}
}

func evalComparison(c Comparison, get Getter) (bool, error) {
	actual, err := get(c.Field)
	if err != nil {
		return false, err
	}
	if actual.IsString || c.Value.IsString {
		return compareStrings(actual, c.Value, c.Op)
	}
	return compareNumbers(actual.Num, c.Value.Num, c.Op)
}

func compareStrings(actual, want Value, op string) (bool, error) {
	switch op {
	case "==":
		return actual.Str == want.Str, nil
	case "!=":
		return actual.Str != want.Str, nil
	default:
		return false, fmt.Errorf("filter: operator %q is not valid for string fields", op)
	}
}

func compareNumbers(actual, want float64, op string) (bool, error) {
	switch op {
	case "==":
		return actual == want, nil
	case "!=":
		return actual != want, nil
	case ">":
		return actual > want, nil
	case "<":
		return actual < want, nil
	case ">=":
		return actual >= want, nil
	case "<=":
		return actual <= want, nil
	default:
		return false, fmt.Errorf("filter: unknown comparison operator %q", op)
	}
}
