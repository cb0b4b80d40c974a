package net

import (
	"context"
	"errors"
	"fmt"
	gonet "net"
	"sync"
	"time"

	c "Dicalc/common"

	"github.com/sirupsen/logrus"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Listen binds a TCP listener for the line protocol.
func Listen(addr string) (gonet.Listener, error) {
	if addr == "" {
		return nil, errors.New("listen: no address given")
	}
	ln, err := gonet.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	logrus.Infof("%s: listening on %s", c.CurFuncName(), ln.Addr())
	return ln, nil
}

// Dial connects to a line protocol server.
func Dial(ctx context.Context, addr string, maxLine int) (*LineConn, error) {
	var d gonet.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewLineConn(conn, maxLine), nil
}

// Serve accepts connections from ln and runs handle for each one on its own
// goroutine. Accept failures are logged and retried with a growing delay.
// Serve returns nil once ctx is done (ln is closed then), or an error when
// ln is closed underneath it. Before returning it closes the connections
// whose handlers are still running and waits for those handlers.
func Serve(ctx context.Context, ln gonet.Listener, handle func(gonet.Conn)) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns = make(map[gonet.Conn]struct{})
	)
	defer func() {
		mu.Lock()
		for conn := range conns {
			conn.Close()
		}
		mu.Unlock()
		wg.Wait()
	}()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, gonet.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			if delay == 0 {
				delay = minAcceptDelay
			} else if delay *= 2; delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			logrus.Warnf("%s: accept failed: %v; retrying in %v", c.CurFuncName(), err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0
		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
			}()
			handle(conn)
		}()
	}
}
