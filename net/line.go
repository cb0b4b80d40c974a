package net

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	gonet "net"
)

var ErrLineTooLong = errors.New("line too long")

// LineConn frames a stream connection as newline-terminated lines.
// Reads and writes may happen from different goroutines, but not two reads
// or two writes at once.
type LineConn struct {
	conn    gonet.Conn
	scanner *bufio.Scanner
	w       *bufio.Writer
}

func NewLineConn(conn gonet.Conn, maxLine int) *LineConn {
	s := bufio.NewScanner(conn)
	// room for the terminator and an optional carriage return
	s.Buffer(make([]byte, 0, min(maxLine+2, 4096)), maxLine+2)
	return &LineConn{
		conn:    conn,
		scanner: s,
		w:       bufio.NewWriter(conn),
	}
}

// ReadLine returns the next line without its terminator. A final line
// lacking a newline is still returned. io.EOF marks a clean close.
func (lc *LineConn) ReadLine() (string, error) {
	if lc.scanner.Scan() {
		return lc.scanner.Text(), nil
	}
	err := lc.scanner.Err()
	switch {
	case err == nil:
		return "", io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return "", ErrLineTooLong
	}
	return "", fmt.Errorf("read line: %w", err)
}

// WriteLine writes line plus a newline and flushes.
func (lc *LineConn) WriteLine(line string) error {
	if _, err := lc.w.WriteString(line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := lc.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := lc.w.Flush(); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

func (lc *LineConn) RemoteAddr() string {
	return lc.conn.RemoteAddr().String()
}

func (lc *LineConn) Close() error {
	return lc.conn.Close()
}
