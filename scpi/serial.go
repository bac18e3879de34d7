package scpi

import (
	"strconv"
	"strings"
	"time"

	serial "github.com/daedaluz/goserial"
	otc "github.com/opentracelab/opentracecapture"
)

// Serial is the serial-port backend on top of the host's termios
// interface.
type Serial struct {
	Port       string // device path, e.g. /dev/ttyUSB0
	SerialComm string // "baud/frame" spec, e.g. "115200/8n1"

	port *serial.Port
	baud int

	lastByte byte
	started  bool
}

// NewSerial builds a serial transport. serialcomm may be empty; the
// port's line settings are then left unchanged, though Open still puts
// it in raw mode.
func NewSerial(port, serialcomm string) *Serial {
	return &Serial{Port: port, SerialComm: serialcomm, baud: 9600}
}

var serialSpeeds = map[int]serial.CFlag{
	1200:   serial.B1200,
	2400:   serial.B2400,
	4800:   serial.B4800,
	9600:   serial.B9600,
	19200:  serial.B19200,
	38400:  serial.B38400,
	57600:  serial.B57600,
	115200: serial.B115200,
	230400: serial.B230400,
	460800: serial.B460800,
	921600: serial.B921600,
}

func (s *Serial) Open() error {
	port, err := serial.Open(s.Port, serial.NewOptions())
	if err != nil {
		otc.Log(otc.LogErr, "scpi_serial: failed to open %s: %s", s.Port, err)
		return otc.ErrIO
	}
	s.port = port
	if err := port.MakeRaw(); err != nil {
		port.Close()
		return otc.ErrIO
	}
	if s.SerialComm != "" {
		if err := s.applyComm(); err != nil {
			port.Close()
			return err
		}
	}
	return nil
}

// applyComm parses "baud/frame" and programs the port speed.
func (s *Serial) applyComm() error {
	fields := strings.SplitN(s.SerialComm, "/", 2)
	baud, err := strconv.Atoi(fields[0])
	if err != nil || baud <= 0 {
		otc.Log(otc.LogErr, "scpi_serial: invalid serialcomm %q", s.SerialComm)
		return otc.ErrArg
	}
	s.baud = baud
	attrs, err := s.port.GetAttr2()
	if err != nil {
		return otc.ErrIO
	}
	if speed, ok := serialSpeeds[baud]; ok {
		attrs.SetSpeed(speed)
	} else {
		attrs.SetCustomSpeed(uint32(baud))
	}
	if err := s.port.SetAttr2(serial.TCSANOW, attrs); err != nil {
		return otc.ErrIO
	}
	return nil
}

func (s *Serial) ConnectionID() (string, error) {
	return s.Port, nil
}

func (s *Serial) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	if s.port == nil {
		return otc.ErrDevClosed
	}
	return sess.SourceAdd(s, s.port.Fd(), events, timeout, cb, data)
}

func (s *Serial) SourceRemove(sess *otc.Session) error {
	return sess.SourceRemove(s)
}

// byteTimeout derives a transfer timeout from the configured baud
// rate: ten bit times per byte, plus slack for the instrument.
func (s *Serial) byteTimeout(bytes int) time.Duration {
	if s.baud <= 0 {
		return time.Second
	}
	bits := int64(bytes) * 10
	d := time.Duration(bits*int64(time.Second)/int64(s.baud)) + 100*time.Millisecond
	return d
}

func (s *Serial) Send(command string) error {
	if s.port == nil {
		return otc.ErrDevClosed
	}
	buf := []byte(command)
	for len(buf) > 0 {
		n, err := s.port.Write(buf)
		if err != nil {
			otc.Log(otc.LogErr, "scpi_serial: write failed: %s", err)
			return otc.ErrIO
		}
		buf = buf[n:]
	}
	return nil
}

func (s *Serial) ReadBegin() error {
	s.lastByte = 0
	s.started = false
	return nil
}

func (s *Serial) ReadData(buf []byte) (int, error) {
	if s.port == nil {
		return 0, otc.ErrDevClosed
	}
	n, err := s.port.ReadTimeout(buf, s.byteTimeout(len(buf)))
	if err != nil {
		return 0, otc.ErrIO
	}
	if n > 0 {
		s.lastByte = buf[n-1]
		s.started = true
	}
	return n, nil
}

func (s *Serial) WriteData(buf []byte) (int, error) {
	if s.port == nil {
		return 0, otc.ErrDevClosed
	}
	n, err := s.port.Write(buf)
	if err != nil {
		return 0, otc.ErrIO
	}
	return n, nil
}

func (s *Serial) ReadComplete() bool {
	return s.started && (s.lastByte == '\n' || s.lastByte == '\r')
}

func (s *Serial) Close() error {
	if s.port == nil {
		return otc.ErrDevClosed
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return otc.ErrIO
	}
	return nil
}

var _ Transport = (*Serial)(nil)
var _ Transport = (*TCP)(nil)

// serialResource recognises device-path resources like /dev/ttyUSB0.
func serialResource(resource string) bool {
	return strings.HasPrefix(resource, "/dev/tty") || strings.HasPrefix(resource, "/dev/cu.")
}
