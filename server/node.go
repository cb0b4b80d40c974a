package server

import (
	"context"
	"errors"
	"fmt"
	gonet "net"
	"net/http"
	"time"

	c "Dicalc/common"
	"Dicalc/config"
	"Dicalc/metrics"
	dnet "Dicalc/net"
	"Dicalc/storage"

	"github.com/sirupsen/logrus"
)

// Server owns the accumulator and hands a shared reference to every
// connection handler it spawns.
type Server struct {
	Config  config.Config
	Storage *storage.Storage
	Metrics *metrics.Metrics
}

// NewServer creates a server with a zeroed accumulator.
func NewServer(conf config.Config) *Server {
	if conf.MaxLineBytes <= 0 {
		conf.MaxLineBytes = config.DefaultMaxLineBytes
	}
	return &Server{
		Config:  conf,
		Storage: storage.NewStorage(),
		Metrics: metrics.New(),
	}
}

// Serve accepts connections on ln until ctx is done. Each connection gets
// its own handler goroutine; on return every handler has finished.
func (s *Server) Serve(ctx context.Context, ln gonet.Listener) error {
	err := dnet.Serve(ctx, ln, func(conn gonet.Conn) {
		newConnHandler(s, conn).run()
	})
	logrus.Infof("%s: stopped accepting on %s", c.CurFuncName(), ln.Addr())
	return err
}

// ListenAndServe binds Config.Addr, and Config.AdminAddr when set, and
// serves until ctx is done. Bind failures are returned before serving.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := dnet.Listen(s.Config.Addr)
	if err != nil {
		return err
	}
	var admin *http.Server
	if s.Config.AdminAddr != "" {
		adminLn, err := gonet.Listen("tcp", s.Config.AdminAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen admin %s: %w", s.Config.AdminAddr, err)
		}
		admin = &http.Server{
			Handler:           NewAdminRouter(s),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logrus.Infof("%s: admin HTTP listening on %s", c.CurFuncName(), adminLn.Addr())
			if err := admin.Serve(adminLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("%s: admin HTTP: %v", c.CurFuncName(), err)
			}
		}()
	}

	err = s.Serve(ctx, ln)
	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		if serr := admin.Shutdown(shutdownCtx); serr != nil {
			logrus.Warnf("%s: admin shutdown: %v", c.CurFuncName(), serr)
		}
	}
	return err
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.Config.ShutdownTimeout > 0 {
		return s.Config.ShutdownTimeout
	}
	return config.DefaultShutdownTimeout
}
