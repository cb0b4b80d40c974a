// Package calculator applies a single operation to an accumulator value.
package calculator

import (
	"errors"
	"math/big"

	c "Dicalc/common"
)

var (
	ErrOverflow        = errors.New("Overflow")
	ErrUnderflow       = errors.New("Underflow")
	ErrDivisionByZero  = errors.New("Division by zero")
	ErrUnknownOperator = errors.New("unknown operator")
)

// Apply returns the value obtained by applying op to current. It never
// modifies current; on error the caller must keep current as is.
// Results leaving the signed 128-bit range are reported instead of wrapped.
func Apply(current *big.Int, op c.Operation) (*big.Int, error) {
	operand := new(big.Int).SetUint64(uint64(op.Operand))
	next := new(big.Int)
	switch op.Operator {
	case c.Add:
		if next.Add(current, operand); c.AboveWide(next) {
			return nil, ErrOverflow
		}
	case c.Sub:
		if next.Sub(current, operand); c.BelowWide(next) {
			return nil, ErrUnderflow
		}
	case c.Mul:
		if next.Mul(current, operand); !c.InWideRange(next) {
			return nil, ErrOverflow
		}
	case c.Div:
		if op.Operand == 0 {
			return nil, ErrDivisionByZero
		}
		// Quo truncates toward zero
		next.Quo(current, operand)
	default:
		return nil, ErrUnknownOperator
	}
	return next, nil
}
