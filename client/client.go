package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	c "Dicalc/common"
	"Dicalc/config"
	dnet "Dicalc/net"
	"Dicalc/protocol"

	"github.com/sirupsen/logrus"
)

// session sends requests one at a time and waits for each answer.
type session struct {
	lc     *dnet.LineConn
	stdout io.Writer
	stderr io.Writer
}

func (s *session) request(line string) (c.Message, error) {
	if err := s.lc.WriteLine(line); err != nil {
		return c.Message{}, err
	}
	resp, err := s.lc.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return c.Message{}, fmt.Errorf("server closed the connection")
		}
		return c.Message{}, err
	}
	msg, err := protocol.Decode(resp)
	if err != nil {
		// undecodable answers are reported, not fatal
		return c.ErrMessage(fmt.Sprintf("bad response %q: %v", resp, err)), nil
	}
	return msg, nil
}

// sendOperations sends every non-blank line of in as an OP request and
// reports refused ones on stderr. A broken input stops the batch early.
func (s *session) sendOperations(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp, err := s.request("OP " + line)
		if err != nil {
			return err
		}
		switch resp.Type {
		case c.Ok:
		case c.Err:
			fmt.Fprintf(s.stderr, "%s\n", protocol.Encode(resp))
		default:
			fmt.Fprintf(s.stderr, "ERROR \"unexpected response to %s: %s\"\n", line, resp.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		logrus.Errorf("%s: reading operations: %v", c.CurFuncName(), err)
	}
	return nil
}

// printValue asks for the final value: stdout on success, stderr otherwise.
func (s *session) printValue() error {
	resp, err := s.request(protocol.Encode(c.GetMessage()))
	if err != nil {
		return err
	}
	switch resp.Type {
	case c.Value:
		fmt.Fprintln(s.stdout, resp.Value)
	case c.Err:
		fmt.Fprintf(s.stderr, "%s\n", protocol.Encode(resp))
	default:
		fmt.Fprintf(s.stderr, "ERROR \"unexpected response to GET: %s\"\n", resp.Type)
	}
	return nil
}

func run(ctx context.Context, addr string, in io.Reader, stdout, stderr io.Writer) error {
	lc, err := dnet.Dial(ctx, addr, config.DefaultMaxLineBytes)
	if err != nil {
		return err
	}
	defer lc.Close()
	stop := context.AfterFunc(ctx, func() { lc.Close() })
	defer stop()

	s := &session{lc: lc, stdout: stdout, stderr: stderr}
	if err := s.sendOperations(in); err != nil {
		return err
	}
	return s.printValue()
}

// resolveArgs accepts "<addr> <file>" or, with an address from the config
// file, just "<file>".
func resolveArgs(cfgAddr string, args []string) (addr, path string, err error) {
	switch {
	case len(args) == 2:
		return args[0], args[1], nil
	case len(args) == 1 && cfgAddr != "":
		return cfgAddr, args[0], nil
	}
	return "", "", errors.New("Usage: client [-c <config>] <addr> <file|->")
}

func openBatch(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open operations file: %w", err)
	}
	return f, nil
}

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
	if err := c.ConfigureLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("%s: %v", c.CurFuncName(), err)
	}

	addr, path, err := resolveArgs(cfg.Addr, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	in, err := openBatch(path)
	if err != nil {
		logrus.Fatalf("%s: %v", c.CurFuncName(), err)
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, addr, in, os.Stdout, os.Stderr); err != nil {
		logrus.Errorf("%s: %v", c.CurFuncName(), err)
		os.Exit(1)
	}
}
