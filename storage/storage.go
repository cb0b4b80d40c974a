package storage

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	c "Dicalc/common"

	"github.com/sirupsen/logrus"
)

var ErrStateInaccessible = errors.New("state inaccessible")

// Storage owns the process-wide accumulator. Every access goes through mu;
// the stored value is never handed out, callbacks receive copies.
//
// A panic inside a callback poisons the storage for the rest of the process:
// the accumulator is no longer trusted and every later access fails with
// ErrStateInaccessible.
type Storage struct {
	acc      *big.Int
	mu       sync.Mutex
	poisoned bool
}

func NewStorage() *Storage {
	return &Storage{
		acc: new(big.Int),
	}
}

// Read runs f on a snapshot of the accumulator while holding the gate.
func Read[T any](s *Storage, f func(v *big.Int) T) (result T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return result, ErrStateInaccessible
	}
	defer s.recoverPoison(&err)
	return f(new(big.Int).Set(s.acc)), nil
}

// Update runs f on a snapshot of the accumulator while holding the gate and
// stores the value f returns. A nil next leaves the accumulator unchanged.
func Update[T any](s *Storage, f func(cur *big.Int) (next *big.Int, result T)) (result T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return result, ErrStateInaccessible
	}
	defer s.recoverPoison(&err)
	next, result := f(new(big.Int).Set(s.acc))
	if next != nil {
		if !c.InWideRange(next) {
			panic(fmt.Sprintf("accumulator out of range: %s", next))
		}
		s.acc = new(big.Int).Set(next)
	}
	return result, nil
}

// Get returns a copy of the current value.
func (s *Storage) Get() (*big.Int, error) {
	return Read(s, func(v *big.Int) *big.Int { return v })
}

func (s *Storage) Poisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}

// recoverPoison must be deferred while mu is held.
func (s *Storage) recoverPoison(err *error) {
	if r := recover(); r != nil {
		s.poisoned = true
		logrus.Errorf("%s: panic while holding the accumulator gate, state poisoned: %v", c.CurFuncName(), r)
		*err = ErrStateInaccessible
	}
}
