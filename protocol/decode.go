package protocol

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	c "Dicalc/common"
)

const (
	opPrefix    = "OP "
	errorPrefix = "ERROR "
	valuePrefix = "VALUE "
)

// Decode parses a single line into a Message.
func Decode(line string) (c.Message, error) {
	s := strings.TrimSpace(line)
	switch {
	case s == "":
		return c.Message{}, ErrEmptyMessage
	case s == c.MessageType2Str[c.Get]:
		return c.GetMessage(), nil
	case s == c.MessageType2Str[c.Ok]:
		return c.OkMessage(), nil
	case strings.HasPrefix(s, opPrefix):
		op, err := decodeOperation(s[len(opPrefix):])
		if err != nil {
			return c.Message{}, err
		}
		return c.OpMessage(op), nil
	case strings.HasPrefix(s, errorPrefix):
		reason, err := decodeReason(s[len(errorPrefix):])
		if err != nil {
			return c.Message{}, err
		}
		return c.ErrMessage(reason), nil
	case strings.HasPrefix(s, valuePrefix):
		v, err := decodeValue(s[len(valuePrefix):])
		if err != nil {
			return c.Message{}, err
		}
		return c.Message{Type: c.Value, Value: v}, nil
	}
	return c.Message{}, ErrUnknownMessage
}

// decodeOperation expects exactly "<symbol> <operand>".
func decodeOperation(rest string) (c.Operation, error) {
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		return c.Operation{}, ErrInvalidOperationFormat
	}
	op, ok := c.ParseOperator(parts[0])
	if !ok {
		return c.Operation{}, ErrInvalidOperation
	}
	// operands are parsed as 16-bit so that 256..65535 reads as a number
	// that is merely out of range
	n, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return c.Operation{}, ErrInvalidNumber
	}
	if n > math.MaxUint8 {
		return c.Operation{}, ErrOperandOutOfRange
	}
	return c.Operation{Operator: op, Operand: uint8(n)}, nil
}

// decodeReason takes the text between the first and the last double quote.
func decodeReason(rest string) (string, error) {
	start := strings.IndexByte(rest, '"')
	end := strings.LastIndexByte(rest, '"')
	if start < 0 || end <= start {
		return "", ErrInvalidErrorFormat
	}
	return rest[start+1 : end], nil
}

func decodeValue(rest string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(rest), 10)
	if !ok || !c.InWideRange(v) {
		return nil, ErrInvalidValue
	}
	return v, nil
}
