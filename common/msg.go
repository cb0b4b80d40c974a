package common

import "math/big"

// MessageType tags the five kinds of protocol lines.
type MessageType int

const (
	Op MessageType = iota
	Get
	Ok
	Err
	Value
)

var MessageType2Str = []string{
	"OP",
	"GET",
	"OK",
	"ERROR",
	"VALUE",
}
var Str2MessageType = map[string]MessageType{
	"OP":    Op,
	"GET":   Get,
	"OK":    Ok,
	"ERROR": Err,
	"VALUE": Value,
}

func (t MessageType) String() string {
	if t < Op || t > Value {
		return "UNKNOWN"
	}
	return MessageType2Str[t]
}

// Message is a tagged union; only the field matching Type is meaningful.
type Message struct {
	Type      MessageType
	Operation Operation // Op
	Reason    string    // Err, never contains a double quote
	Value     *big.Int  // Value
}

func OpMessage(op Operation) Message {
	return Message{Type: Op, Operation: op}
}

func GetMessage() Message {
	return Message{Type: Get}
}

func OkMessage() Message {
	return Message{Type: Ok}
}

func ErrMessage(reason string) Message {
	return Message{Type: Err, Reason: reason}
}

// ValueMessage snapshots v so later changes to v do not leak into the message.
func ValueMessage(v *big.Int) Message {
	return Message{Type: Value, Value: new(big.Int).Set(v)}
}
