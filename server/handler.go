package server

import (
	"context"
	"errors"
	"io"
	gonet "net"

	c "Dicalc/common"
	dnet "Dicalc/net"
	"Dicalc/protocol"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Connection lifecycle. A handler loops reading -> dispatching -> responding
// -> reading until the transport fails; only then does it enter closed.
const (
	stateReading     = "reading"
	stateDispatching = "dispatching"
	stateResponding  = "responding"
	stateClosed      = "closed"

	eventDispatch = "dispatch"
	eventRespond  = "respond"
	eventNext     = "next"
	eventClose    = "close"
)

type connHandler struct {
	srv     *Server
	lc      *dnet.LineConn
	fsm     *fsm.FSM
	limiter *rate.Limiter
	log     *logrus.Entry
}

func newConnHandler(s *Server, conn gonet.Conn) *connHandler {
	h := &connHandler{
		srv: s,
		lc:  dnet.NewLineConn(conn, s.Config.MaxLineBytes),
		log: logrus.WithFields(logrus.Fields{
			"conn":   uuid.NewString(),
			"remote": conn.RemoteAddr().String(),
		}),
	}
	if rl := s.Config.RateLimit; rl.OpsPerSecond > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(rl.OpsPerSecond), rl.Burst)
	}
	h.fsm = fsm.NewFSM(
		stateReading,
		fsm.Events{
			{Name: eventDispatch, Src: []string{stateReading}, Dst: stateDispatching},
			{Name: eventRespond, Src: []string{stateDispatching}, Dst: stateResponding},
			{Name: eventNext, Src: []string{stateResponding}, Dst: stateReading},
			{Name: eventClose, Src: []string{stateReading, stateDispatching, stateResponding}, Dst: stateClosed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				h.log.Tracef("%s: %s -> %s", c.CurFuncName(), e.Src, e.Dst)
			},
			"enter_" + stateClosed: func(_ context.Context, e *fsm.Event) {
				h.lc.Close()
				h.srv.Metrics.ConnectionClosed()
				h.log.Infof("%s: connection closed", c.CurFuncName())
			},
		},
	)
	return h
}

// run serves requests until the peer goes away or the transport fails.
// Failed requests are answered and the loop goes on.
func (h *connHandler) run() {
	h.srv.Metrics.ConnectionOpened()
	h.log.Infof("%s: connection opened", c.CurFuncName())
	defer h.transition(eventClose)

	for {
		line, err := h.lc.ReadLine()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				h.log.Debugf("%s: peer closed the connection", c.CurFuncName())
			case errors.Is(err, gonet.ErrClosed):
				h.log.Debugf("%s: connection closed by server", c.CurFuncName())
			default:
				h.log.Warnf("%s: read failed: %v", c.CurFuncName(), err)
			}
			return
		}

		h.transition(eventDispatch)
		resp := h.srv.Dispatch(line, h.limiter)
		if resp.Type == c.Err {
			h.log.Debugf("%s: request %q refused: %s", c.CurFuncName(), line, resp.Reason)
		}

		h.transition(eventRespond)
		if err := h.lc.WriteLine(protocol.Encode(resp)); err != nil {
			h.log.Warnf("%s: write failed: %v", c.CurFuncName(), err)
			return
		}
		h.transition(eventNext)
	}
}

func (h *connHandler) transition(event string) {
	if err := h.fsm.Event(context.Background(), event); err != nil {
		h.log.Warnf("%s: event %s refused in state %s: %v", c.CurFuncName(), event, h.fsm.Current(), err)
	}
}
