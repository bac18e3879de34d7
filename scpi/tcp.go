package scpi

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

const tcpDialTimeout = 5 * time.Second

// TCP is the raw TCP backend, with an optional Rigol length-prefixed
// framing variant: each response carries a 4-byte big-endian length
// header followed by that many bytes.
type TCP struct {
	Address     string // host:port
	Rigol       bool
	ReadTimeout time.Duration

	conn net.Conn

	// Framed-read state. remaining < 0 means the length header is
	// still pending.
	remaining int
	lastByte  byte
	started   bool
}

// NewTCP builds a raw-TCP transport for host:port.
func NewTCP(address string) *TCP {
	return &TCP{Address: address, ReadTimeout: time.Second}
}

// NewRigolTCP builds the length-framed variant used by Rigol scopes.
func NewRigolTCP(address string) *TCP {
	return &TCP{Address: address, Rigol: true, ReadTimeout: time.Second}
}

func (t *TCP) Open() error {
	conn, err := net.DialTimeout("tcp", t.Address, tcpDialTimeout)
	if err != nil {
		otc.Log(otc.LogErr, "scpi_tcp: failed to connect to %s: %s", t.Address, err)
		return otc.ErrIO
	}
	t.conn = conn
	return nil
}

func (t *TCP) ConnectionID() (string, error) {
	variant := "tcp-raw"
	if t.Rigol {
		variant = "tcp-rigol"
	}
	return fmt.Sprintf("%s/%s", variant, t.Address), nil
}

func (t *TCP) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	fd, err := t.connFd()
	if err != nil {
		return err
	}
	return sess.SourceAdd(t, fd, events, timeout, cb, data)
}

func (t *TCP) SourceRemove(sess *otc.Session) error {
	return sess.SourceRemove(t)
}

// connFd digs the file descriptor out of the TCP connection so the
// session can poll it.
func (t *TCP) connFd() (int, error) {
	tc, ok := t.conn.(*net.TCPConn)
	if !ok {
		return -1, otc.ErrArg
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return -1, otc.ErrIO
	}
	fd := -1
	ctrlErr := raw.Control(func(f uintptr) { fd = int(f) })
	if ctrlErr != nil || fd < 0 {
		return -1, otc.ErrIO
	}
	return fd, nil
}

func (t *TCP) Send(command string) error {
	if t.conn == nil {
		return otc.ErrDevClosed
	}
	buf := []byte(command)
	for len(buf) > 0 {
		n, err := t.conn.Write(buf)
		if err != nil {
			otc.Log(otc.LogErr, "scpi_tcp: send failed: %s", err)
			return otc.ErrIO
		}
		buf = buf[n:]
	}
	return nil
}

func (t *TCP) ReadBegin() error {
	t.remaining = -1
	t.lastByte = 0
	t.started = false
	return nil
}

func (t *TCP) ReadData(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, otc.ErrDevClosed
	}
	t.conn.SetReadDeadline(time.Now().Add(t.ReadTimeout))
	if t.Rigol && t.remaining < 0 {
		var hdr [4]byte
		got := 0
		for got < len(hdr) {
			n, err := t.conn.Read(hdr[got:])
			if err != nil {
				return 0, otc.ErrIO
			}
			got += n
		}
		t.remaining = int(binary.BigEndian.Uint32(hdr[:]))
	}
	want := len(buf)
	if t.Rigol && want > t.remaining {
		want = t.remaining
	}
	if want == 0 {
		return 0, nil
	}
	n, err := t.conn.Read(buf[:want])
	if err != nil {
		return 0, otc.ErrIO
	}
	if t.Rigol {
		t.remaining -= n
	}
	if n > 0 {
		t.lastByte = buf[n-1]
		t.started = true
	}
	return n, nil
}

func (t *TCP) WriteData(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, otc.ErrDevClosed
	}
	n, err := t.conn.Write(buf)
	if err != nil {
		return 0, otc.ErrIO
	}
	return n, nil
}

func (t *TCP) ReadComplete() bool {
	if t.Rigol {
		return t.remaining == 0
	}
	return t.started && t.lastByte == '\n'
}

func (t *TCP) Close() error {
	if t.conn == nil {
		return otc.ErrDevClosed
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return otc.ErrIO
	}
	return nil
}
