package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	c "Dicalc/common"
	"Dicalc/config"
	"Dicalc/server"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("c", "", "Path to config file (.yaml, .yml or .toml)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			logrus.Fatalf("%s: %v", c.CurFuncName(), err)
		}
		cfg = *loaded
	}
	if flag.NArg() > 1 {
		usage()
	}
	if flag.NArg() == 1 {
		cfg.Addr = flag.Arg(0)
	}
	if cfg.Addr == "" {
		usage()
	}
	if err := c.ConfigureLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("%s: %v", c.CurFuncName(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg)
	logrus.Infof("%s: accumulator service starting on %s", c.CurFuncName(), cfg.Addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		logrus.Fatalf("%s: %v", c.CurFuncName(), err)
	}
	logrus.Infof("%s: shut down", c.CurFuncName())
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: daemon [-c <config>] <addr>")
	os.Exit(1)
}
