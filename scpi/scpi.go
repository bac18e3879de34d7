// Package scpi implements the transport-independent SCPI
// request/response engine and its five transport backends.
package scpi

import (
	"fmt"
	"strings"
	"sync"
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

const (
	cmdIDN = "*IDN?"
	cmdOPC = "*OPC?"
)

// TransportLayer tags which backend a device uses.
type TransportLayer int

const (
	TransportGPIB TransportLayer = iota
	TransportSerial
	TransportRawTCP
	TransportRigolTCP
	TransportUSBTMC
	TransportVXI
)

// Quirk bits gate workarounds for misbehaving firmware.
type Quirk uint

const (
	// QuirkNoTerminator omits the line terminator on output.
	QuirkNoTerminator Quirk = 1 << iota
	// QuirkNoOPC never issues *OPC?.
	QuirkNoOPC
	// QuirkSlowChannelSelect waits after switching channels.
	QuirkSlowChannelSelect
)

// Transport is the one operation vector every backend implements.
// Backends keep their own state; the core serializes access per
// device.
type Transport interface {
	Open() error
	ConnectionID() (string, error)
	SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error
	SourceRemove(sess *otc.Session) error
	Send(command string) error
	ReadBegin() error
	ReadData(buf []byte) (int, error)
	WriteData(buf []byte) (int, error)
	ReadComplete() bool
	Close() error
}

// Dev is one SCPI device instance on some transport.
type Dev struct {
	Name      string
	Prefix    string
	Transport TransportLayer

	t  Transport
	mu sync.Mutex

	// ReadTimeout bounds one composite request/response helper.
	ReadTimeout time.Duration

	// FirmwareVersion is cached after the first *IDN? and gates
	// vendor quirks.
	FirmwareVersion uint64
	Quirks          Quirk
	// ActualChannelName rewrites channel-select arguments when the
	// instrument names channels differently than the driver.
	ActualChannelName string
	NoOpcCommand      bool
	// InfinityLimit: responses at or beyond this magnitude parse as
	// infinity. Zero disables the check.
	InfinityLimit float64
}

// NewDev wraps a transport into a device instance.
func NewDev(layer TransportLayer, t Transport) *Dev {
	return &Dev{
		Transport:   layer,
		t:           t,
		ReadTimeout: 5 * time.Second,
	}
}

// Open opens the underlying transport.
func (d *Dev) Open() error {
	if d.t == nil {
		return otc.ErrArg
	}
	return d.t.Open()
}

// Close closes the underlying transport.
func (d *Dev) Close() error {
	if d.t == nil {
		return otc.ErrArg
	}
	return d.t.Close()
}

// ConnectionID returns the backend's stable connection id string.
func (d *Dev) ConnectionID() (string, error) {
	return d.t.ConnectionID()
}

// SourceAdd hooks the transport's pollable into a session.
func (d *Dev) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	return d.t.SourceAdd(sess, events, timeout, cb, data)
}

// SourceRemove detaches the transport's pollable from the session.
func (d *Dev) SourceRemove(sess *otc.Session) error {
	return d.t.SourceRemove(sess)
}

// send formats and transmits one command, appending the terminator
// unless the device quirks it away. Callers hold d.mu.
func (d *Dev) send(format string, args ...interface{}) error {
	cmd := fmt.Sprintf(format, args...)
	if d.Quirks&QuirkNoTerminator == 0 && !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	logDbg(d, "sending: %q", strings.TrimRight(cmd, "\n"))
	return d.t.Send(cmd)
}

// Send transmits one command with the per-device serialization held.
func (d *Dev) Send(format string, args ...interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.send(format, args...)
}

// readResponse collects one full response. Callers hold d.mu.
func (d *Dev) readResponse() (string, error) {
	if err := d.t.ReadBegin(); err != nil {
		return "", err
	}
	var sb strings.Builder
	buf := make([]byte, 1024)
	deadline := time.Now().Add(d.ReadTimeout)
	for !d.t.ReadComplete() {
		if time.Now().After(deadline) {
			logErr(d, "timed out waiting for response")
			return "", otc.ErrTimeout
		}
		n, err := d.t.ReadData(buf)
		if err != nil {
			return "", err
		}
		sb.Write(buf[:n])
	}
	return sb.String(), nil
}

// trimResponse strips leading whitespace, the trailing terminator and
// SCPI-style quoting (single or double quotes, doubled inner quotes as
// escape).
func trimResponse(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	s = strings.TrimRight(s, "\r\n")
	if len(s) >= 2 {
		q := s[0]
		if (q == '\'' || q == '"') && s[len(s)-1] == q {
			s = s[1 : len(s)-1]
			s = strings.ReplaceAll(s, string([]byte{q, q}), string(q))
		}
	}
	return s
}

// HwInfo is the four-field *IDN? response.
type HwInfo struct {
	Manufacturer    string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

// GetHwID sends *IDN? and parses the four comma-separated fields.
func (d *Dev) GetHwID() (*HwInfo, error) {
	resp, err := d.GetString(cmdIDN)
	if err != nil {
		return nil, err
	}
	fields := strings.SplitN(resp, ",", 4)
	if len(fields) < 4 {
		logErr(d, "invalid *IDN? response: %q", resp)
		return nil, otc.ErrData
	}
	info := &HwInfo{
		Manufacturer:    trimResponse(strings.TrimSpace(fields[0])),
		Model:           trimResponse(strings.TrimSpace(fields[1])),
		SerialNumber:    trimResponse(strings.TrimSpace(fields[2])),
		FirmwareVersion: trimResponse(strings.TrimSpace(fields[3])),
	}
	return info, nil
}

// GetOpc sends *OPC? and waits for the instrument to report
// completion. Devices with the no-OPC quirk skip the exchange.
func (d *Dev) GetOpc() error {
	if d.NoOpcCommand || d.Quirks&QuirkNoOPC != 0 {
		return nil
	}
	const attempts = 30
	for i := 0; i < attempts; i++ {
		done, err := d.GetBool(cmdOPC)
		if err == nil && done {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return otc.ErrTimeout
}

func logDbg(d *Dev, format string, args ...interface{}) {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "scpi"
	}
	otc.Log(otc.LogDbg, prefix+": "+format, args...)
}

func logErr(d *Dev, format string, args ...interface{}) {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "scpi"
	}
	otc.Log(otc.LogErr, prefix+": "+format, args...)
}
