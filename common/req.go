package common

import "fmt"

// Operation is an operator plus its byte-ranged operand, decoded from an OP request.
type Operation struct {
	Operator Operator
	Operand  uint8
}

func (op Operation) String() string {
	return fmt.Sprintf("%s %d", op.Operator, op.Operand)
}
