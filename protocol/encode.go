package protocol

import (
	"strconv"

	c "Dicalc/common"
)

// Encode renders msg as a line without the trailing newline. Err reasons are
// inserted verbatim, so they must not contain a double quote.
func Encode(msg c.Message) string {
	switch msg.Type {
	case c.Op:
		return EncodeOperation(msg.Operation)
	case c.Get, c.Ok:
		return c.MessageType2Str[msg.Type]
	case c.Err:
		return errorPrefix + `"` + msg.Reason + `"`
	case c.Value:
		if msg.Value == nil {
			return valuePrefix + "0"
		}
		return valuePrefix + msg.Value.String()
	}
	return ""
}

// EncodeOperation renders an OP request.
func EncodeOperation(op c.Operation) string {
	return opPrefix + op.Operator.String() + " " + strconv.Itoa(int(op.Operand))
}
