package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	gonet "net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	c "Dicalc/common"
	"Dicalc/config"
	dnet "Dicalc/net"
	"Dicalc/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// startServer serves on a random local port until the test ends.
func startServer(t *testing.T, conf config.Config) (*Server, string) {
	t.Helper()
	srv := NewServer(conf)
	ln, err := dnet.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

func dial(t *testing.T, addr string) *dnet.LineConn {
	t.Helper()
	lc, err := dnet.Dial(context.Background(), addr, config.DefaultMaxLineBytes)
	require.NoError(t, err)
	t.Cleanup(func() { lc.Close() })
	return lc
}

func roundTrip(t *testing.T, lc *dnet.LineConn, line string) string {
	t.Helper()
	require.NoError(t, lc.WriteLine(line))
	resp, err := lc.ReadLine()
	require.NoError(t, err)
	return resp
}

func poison(t *testing.T, s *storage.Storage) {
	t.Helper()
	_, err := storage.Update(s, func(*big.Int) (*big.Int, struct{}) { panic("test poison") })
	require.ErrorIs(t, err, storage.ErrStateInaccessible)
}

func TestAddThenGet(t *testing.T) {
	_, addr := startServer(t, config.Default())
	lc := dial(t, addr)

	assert.Equal(t, "OK", roundTrip(t, lc, "OP + 10"))
	assert.Equal(t, "VALUE 10", roundTrip(t, lc, "GET"))
}

func TestDivisionByZeroKeepsConnectionAndValue(t *testing.T) {
	_, addr := startServer(t, config.Default())
	lc := dial(t, addr)

	assert.Equal(t, `ERROR "Division by zero"`, roundTrip(t, lc, "OP / 0"))
	assert.Equal(t, "VALUE 0", roundTrip(t, lc, "GET"))
	assert.Equal(t, "OK", roundTrip(t, lc, "OP - 3"))
	assert.Equal(t, "VALUE -3", roundTrip(t, lc, "GET"))
}

func TestMalformedRequestsGetErrors(t *testing.T) {
	_, addr := startServer(t, config.Default())
	lc := dial(t, addr)

	assert.Equal(t, `ERROR "empty message"`, roundTrip(t, lc, ""))
	assert.Equal(t, `ERROR "unknown message"`, roundTrip(t, lc, "XYZ"))
	assert.Equal(t, `ERROR "invalid operation format"`, roundTrip(t, lc, "OP +"))
	assert.Equal(t, `ERROR "invalid number"`, roundTrip(t, lc, "OP + abc"))
	assert.Equal(t, `ERROR "operand out of range"`, roundTrip(t, lc, "OP + 256"))
	assert.Equal(t, `ERROR "invalid operation"`, roundTrip(t, lc, "OP ^ 2"))
	assert.Equal(t, `ERROR "unexpected message"`, roundTrip(t, lc, "OK"))
	assert.Equal(t, `ERROR "unexpected message"`, roundTrip(t, lc, "VALUE 3"))
	assert.Equal(t, `ERROR "unexpected message"`, roundTrip(t, lc, `ERROR "x"`))
	assert.Equal(t, "VALUE 0", roundTrip(t, lc, "GET"))
}

func TestStateIsSharedAcrossConnections(t *testing.T) {
	_, addr := startServer(t, config.Default())
	a, b := dial(t, addr), dial(t, addr)

	assert.Equal(t, "OK", roundTrip(t, a, "OP + 7"))
	assert.Equal(t, "OK", roundTrip(t, b, "OP * 3"))
	assert.Equal(t, "VALUE 21", roundTrip(t, a, "GET"))
}

func TestConcurrentIncrementsAreLinearizable(t *testing.T) {
	const conns, perConn = 8, 200
	srv, addr := startServer(t, config.Default())

	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		lc := dial(t, addr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perConn; j++ {
				if err := lc.WriteLine("OP + 1"); err != nil {
					t.Errorf("write: %v", err)
					return
				}
				resp, err := lc.ReadLine()
				if err != nil || resp != "OK" {
					t.Errorf("resp=%q err=%v", resp, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	lc := dial(t, addr)
	assert.Equal(t, fmt.Sprintf("VALUE %d", conns*perConn), roundTrip(t, lc, "GET"))
	v, err := srv.Storage.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(conns*perConn), v.Int64())
}

func TestOverflowLeavesValueUnchanged(t *testing.T) {
	srv := NewServer(config.Default())
	_, err := storage.Update(srv.Storage, func(*big.Int) (*big.Int, struct{}) {
		return c.MaxWide(), struct{}{}
	})
	require.NoError(t, err)

	resp := srv.Dispatch("OP + 1", nil)
	assert.Equal(t, c.ErrMessage("Overflow"), resp)
	resp = srv.Dispatch("GET", nil)
	require.Equal(t, c.Value, resp.Type)
	assert.Equal(t, 0, resp.Value.Cmp(c.MaxWide()))
}

func TestPoisonedStateAnswersStateInaccessible(t *testing.T) {
	srv, addr := startServer(t, config.Default())
	lc := dial(t, addr)
	assert.Equal(t, "OK", roundTrip(t, lc, "OP + 1"))

	poison(t, srv.Storage)

	assert.Equal(t, `ERROR "state inaccessible"`, roundTrip(t, lc, "OP + 1"))
	assert.Equal(t, `ERROR "state inaccessible"`, roundTrip(t, lc, "GET"))
	// the connection survives and other connections get the same answer
	assert.Equal(t, `ERROR "invalid number"`, roundTrip(t, lc, "OP + x"))
	other := dial(t, addr)
	assert.Equal(t, `ERROR "state inaccessible"`, roundTrip(t, other, "GET"))
}

func TestRateLimitOnlyAppliesToOps(t *testing.T) {
	conf := config.Default()
	conf.RateLimit = config.RateLimit{OpsPerSecond: 0.001, Burst: 2}
	_, addr := startServer(t, conf)
	lc := dial(t, addr)

	assert.Equal(t, "OK", roundTrip(t, lc, "OP + 1"))
	assert.Equal(t, "OK", roundTrip(t, lc, "OP + 1"))
	assert.Equal(t, `ERROR "rate limit exceeded"`, roundTrip(t, lc, "OP + 1"))
	assert.Equal(t, "VALUE 2", roundTrip(t, lc, "GET"))

	// buckets are per connection
	other := dial(t, addr)
	assert.Equal(t, "OK", roundTrip(t, other, "OP + 1"))
}

func TestDispatchWithLimiter(t *testing.T) {
	srv := NewServer(config.Default())
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	assert.Equal(t, c.OkMessage(), srv.Dispatch("OP + 5", limiter))
	assert.Equal(t, c.ErrMessage(ErrRateLimited.Error()), srv.Dispatch("OP + 5", limiter))
	// malformed lines are rejected before touching the bucket
	assert.Equal(t, c.ErrMessage("invalid number"), srv.Dispatch("OP + x", limiter))
}

func TestOverlongLineClosesOnlyThatConnection(t *testing.T) {
	conf := config.Default()
	conf.MaxLineBytes = 16
	_, addr := startServer(t, conf)
	bad, good := dial(t, addr), dial(t, addr)

	require.NoError(t, bad.WriteLine("OP + "+strings.Repeat("1", 64)))
	_, err := bad.ReadLine()
	assert.Error(t, err)

	assert.Equal(t, "OK", roundTrip(t, good, "OP + 4"))
	assert.Equal(t, "VALUE 4", roundTrip(t, good, "GET"))
}

func TestShutdownClosesOpenConnections(t *testing.T) {
	srv := NewServer(config.Default())
	ln, err := dnet.Listen("127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	lc := dial(t, ln.Addr().String())
	assert.Equal(t, "OK", roundTrip(t, lc, "OP + 1"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	_, err = lc.ReadLine()
	assert.Error(t, err)

	_, err = gonet.DialTimeout("tcp", ln.Addr().String(), time.Second)
	assert.Error(t, err)
}

func TestListenAndServeBindFailure(t *testing.T) {
	ln, err := dnet.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	conf := config.Default()
	conf.Addr = ln.Addr().String()
	err = NewServer(conf).ListenAndServe(context.Background())
	assert.Error(t, err)

	conf.Addr = ""
	assert.Error(t, NewServer(conf).ListenAndServe(context.Background()))
}

func TestAdminRouter(t *testing.T) {
	srv := NewServer(config.Default())
	require.Equal(t, c.OkMessage(), srv.Dispatch("OP + 9", nil))
	router := NewAdminRouter(srv)

	get := func(path string) (int, map[string]string) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]string
		if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		}
		return rec.Code, body
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = get("/value")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "9", body["value"])

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dicalc_ops_total{operator="+",result="ok"} 1`)

	poison(t, srv.Storage)
	code, body = get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "state inaccessible", body["status"])
	code, body = get("/value")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "state inaccessible", body["error"])
}
