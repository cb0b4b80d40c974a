package common

import "math/big"

// The accumulator is a signed 128-bit integer carried in a big.Int and kept
// inside [MinWide, MaxWide] by every mutation.
const WideBits = 128

var (
	maxWide = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), WideBits-1), big.NewInt(1))
	minWide = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), WideBits-1))
)

// MaxWide returns a fresh copy of the largest representable accumulator value.
func MaxWide() *big.Int {
	return new(big.Int).Set(maxWide)
}

// MinWide returns a fresh copy of the smallest representable accumulator value.
func MinWide() *big.Int {
	return new(big.Int).Set(minWide)
}

func AboveWide(v *big.Int) bool {
	return v.Cmp(maxWide) > 0
}

func BelowWide(v *big.Int) bool {
	return v.Cmp(minWide) < 0
}

func InWideRange(v *big.Int) bool {
	return v != nil && !AboveWide(v) && !BelowWide(v)
}
