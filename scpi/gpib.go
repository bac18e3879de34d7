package scpi

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
	otc "github.com/opentracelab/opentracecapture"
)

// GPIB drives an instrument through the kernel's gpib char devices.
type GPIB struct {
	// Name is the board-device name, e.g. "gpib0,12".
	Name string

	fd      int
	minor   int
	address int

	readStarted bool
	sawEnd      bool
}

// gpib char device ioctls.
type gpibStatusArg struct {
	Status int32
	Pad    int32
}

var (
	gpibIBSTA = ioctl.IOR('G', 4, unsafe.Sizeof(gpibStatusArg{}))
	gpibIBLOC = ioctl.IO('G', 9)
)

// END bit in the status register: the last read terminated with EOI.
const gpibStatusEnd = 0x2000

// NewGPIB builds a GPIB transport for a "minor,address" name.
func NewGPIB(name string) *GPIB {
	g := &GPIB{Name: name, fd: -1}
	fmt.Sscanf(name, "gpib%d,%d", &g.minor, &g.address)
	return g
}

func (g *GPIB) Open() error {
	path := fmt.Sprintf("/dev/gpib%d", g.minor)
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		otc.Log(otc.LogErr, "scpi_gpib: failed to open %s: %s", path, err)
		return otc.ErrIO
	}
	g.fd = fd
	return nil
}

func (g *GPIB) ConnectionID() (string, error) {
	return "libgpib/" + g.Name, nil
}

func (g *GPIB) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	// The gpib char devices are not pollable; drive the callback off
	// a timer instead.
	return sess.SourceAdd(g, -1, events, timeout, cb, data)
}

func (g *GPIB) SourceRemove(sess *otc.Session) error {
	return sess.SourceRemove(g)
}

// Send writes the full command; a short write is an error.
func (g *GPIB) Send(command string) error {
	if g.fd < 0 {
		return otc.ErrDevClosed
	}
	buf := []byte(command)
	n, err := syscall.Write(g.fd, buf)
	if err != nil {
		otc.Log(otc.LogErr, "scpi_gpib: write failed: %s", err)
		return otc.ErrIO
	}
	if n != len(buf) {
		otc.Log(otc.LogErr, "scpi_gpib: short write (%d of %d)", n, len(buf))
		return otc.ErrIO
	}
	return nil
}

func (g *GPIB) ReadBegin() error {
	g.readStarted = false
	g.sawEnd = false
	return nil
}

func (g *GPIB) ReadData(buf []byte) (int, error) {
	if g.fd < 0 {
		return 0, otc.ErrDevClosed
	}
	n, err := syscall.Read(g.fd, buf)
	if err != nil {
		return 0, otc.ErrIO
	}
	g.readStarted = true
	var st gpibStatusArg
	if ioctl.Ioctl(uintptr(g.fd), gpibIBSTA, uintptr(unsafe.Pointer(&st))) == nil {
		if st.Status&gpibStatusEnd != 0 {
			g.sawEnd = true
		}
	} else if n < len(buf) {
		// No status register available; a short read ends the
		// message.
		g.sawEnd = true
	}
	return n, nil
}

func (g *GPIB) WriteData(buf []byte) (int, error) {
	if g.fd < 0 {
		return 0, otc.ErrDevClosed
	}
	n, err := syscall.Write(g.fd, buf)
	if err != nil {
		return 0, otc.ErrIO
	}
	return n, nil
}

// ReadComplete is true once the END status bit was seen after a
// started read.
func (g *GPIB) ReadComplete() bool {
	return g.readStarted && g.sawEnd
}

// Close returns the device to local before releasing it.
func (g *GPIB) Close() error {
	if g.fd < 0 {
		return otc.ErrDevClosed
	}
	ioctl.Ioctl(uintptr(g.fd), gpibIBLOC, 0)
	err := syscall.Close(g.fd)
	g.fd = -1
	if err != nil {
		return otc.ErrIO
	}
	return nil
}

var _ Transport = (*GPIB)(nil)
