package server

import (
	"errors"
	"math/big"

	"Dicalc/calculator"
	c "Dicalc/common"
	"Dicalc/protocol"
	"Dicalc/storage"

	"golang.org/x/time/rate"
)

var (
	ErrUnexpectedMessage = errors.New("unexpected message")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

// Dispatch answers one request line. Protocol, arithmetic and state failures
// all become an Err response; the accumulator is only touched by a valid OP
// that the engine accepts. limiter may be nil.
func (s *Server) Dispatch(line string, limiter *rate.Limiter) c.Message {
	msg, err := protocol.Decode(line)
	if err != nil {
		s.Metrics.ObserveDecodeError()
		return c.ErrMessage(err.Error())
	}
	switch msg.Type {
	case c.Op:
		if limiter != nil && !limiter.Allow() {
			s.Metrics.ObserveRejectedOp(msg.Operation.Operator)
			return c.ErrMessage(ErrRateLimited.Error())
		}
		return s.applyOperation(msg.Operation)
	case c.Get:
		return s.readValue()
	}
	// OK, ERROR and VALUE are responses, a client never sends them
	return c.ErrMessage(ErrUnexpectedMessage.Error())
}

func (s *Server) applyOperation(op c.Operation) c.Message {
	failure, err := storage.Update(s.Storage, func(cur *big.Int) (*big.Int, error) {
		return calculator.Apply(cur, op)
	})
	if err != nil {
		s.Metrics.ObserveStateError()
		return c.ErrMessage(err.Error())
	}
	s.Metrics.ObserveOp(op.Operator, failure)
	if failure != nil {
		return c.ErrMessage(failure.Error())
	}
	return c.OkMessage()
}

func (s *Server) readValue() c.Message {
	v, err := s.Storage.Get()
	if err != nil {
		s.Metrics.ObserveStateError()
		return c.ErrMessage(err.Error())
	}
	s.Metrics.ObserveGet()
	return c.Message{Type: c.Value, Value: v}
}
