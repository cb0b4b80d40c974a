package common

// Operator is one of the four arithmetic primitives a client may submit.
type Operator int

const (
	Add Operator = iota
	Sub
	Mul
	Div
)

var Operator2Symbol = []string{
	"+",
	"-",
	"*",
	"/",
}
var Symbol2Operator = map[string]Operator{
	"+": Add,
	"-": Sub,
	"*": Mul,
	"/": Div,
}

// ParseOperator maps a textual symbol to its Operator.
func ParseOperator(symbol string) (Operator, bool) {
	op, ok := Symbol2Operator[symbol]
	return op, ok
}

func (o Operator) Valid() bool {
	return o >= Add && o <= Div
}

// String returns the wire symbol, or "?" for values outside the enumeration.
func (o Operator) String() string {
	if !o.Valid() {
		return "?"
	}
	return Operator2Symbol[o]
}
