package scpi

import (
	"encoding/binary"
	"fmt"
	"syscall"
	"time"

	usb "github.com/daedaluz/gousb"
	"github.com/daedaluz/gousb/usbfs"
	otc "github.com/opentracelab/opentracecapture"
)

// USBTMC bulk message ids.
const (
	devDepMsgOut        = 1
	requestDevDepMsgIn  = 2
	devDepMsgIn         = 2
)

// USBTMC class control requests.
const (
	usbtmcInitiateClear    = 5
	usbtmcCheckClearStatus = 6
	usbtmcGetCapabilities  = 7
	usb488RenControl       = 160
	usb488GoToLocal        = 161
	usb488LocalLockout     = 162
)

// Transfer attribute bits.
const (
	usbtmcAttrEOM = 0x01
)

const (
	usbtmcHeaderSize  = 12
	usbtmcIOTimeoutMs = 5000
)

const (
	usbClassApplication = 0xfe
	usbSubclassTMC      = 0x03
)

// Instruments that lock up on remote-enable handshakes.
var renBlacklist = []struct{ vid, pid uint16 }{
	{0x1ab1, 0x0588}, // Rigol DS1000 series
	{0x1ab1, 0x04b0},
	{0x0957, 0x0588},
}

// USBTMC is the USB Test & Measurement Class backend over the usbfs
// character devices.
type USBTMC struct {
	// Conn selects the device as "bus.address".
	Conn string

	fd        int
	iface     int
	bulkIn    uint8
	bulkOut   uint8
	vid, pid  uint16
	bTag      uint8
	claimed   bool

	// Bulk-in continuation state.
	remaining int
	eom       bool
	buf       []byte
}

// NewUSBTMC builds a USBTMC transport for a "bus.address" connection
// id.
func NewUSBTMC(conn string) *USBTMC {
	return &USBTMC{Conn: conn, fd: -1}
}

// findDevice locates the device and its TMC interface/endpoints from
// the sysfs descriptors.
func (u *USBTMC) findDevice() (*usb.Device, error) {
	var bus, addr int
	if _, err := fmt.Sscanf(u.Conn, "%d.%d", &bus, &addr); err != nil {
		return nil, otc.ErrArg
	}
	devs, err := usb.EnumerateDevices()
	if err != nil {
		return nil, otc.ErrIO
	}
	for _, dev := range devs {
		if dev.BusNumber == bus && dev.DeviceNumber == addr {
			return dev, nil
		}
	}
	otc.Log(otc.LogErr, "scpi_usbtmc: no device at %s", u.Conn)
	return nil, otc.ErrIO
}

// pickInterface walks the configuration descriptors for the TMC
// interface and its bulk endpoint pair.
func (u *USBTMC) pickInterface(dev *usb.Device) error {
	inTMC := false
	found := false
	for _, d := range dev.Descriptors {
		switch desc := d.(type) {
		case *usb.DeviceDescriptor:
			u.vid = desc.IDVendor
			u.pid = desc.IDProduct
		case *usb.InterfaceDescriptor:
			inTMC = uint8(desc.BInterfaceClass) == usbClassApplication &&
				uint8(desc.BInterfaceSubClass) == usbSubclassTMC
			if inTMC {
				u.iface = int(desc.BInterfaceNumber)
				found = true
			}
		case *usb.EndpointDescriptor:
			if !inTMC || desc.BmAttributes&0x03 != 0x02 {
				break
			}
			if desc.BEndpointAddress&0x80 != 0 {
				u.bulkIn = desc.BEndpointAddress
			} else {
				u.bulkOut = desc.BEndpointAddress
			}
		}
	}
	if !found || u.bulkIn == 0 || u.bulkOut == 0 {
		otc.Log(otc.LogErr, "scpi_usbtmc: %s has no TMC interface", u.Conn)
		return otc.ErrIO
	}
	return nil
}

func (u *USBTMC) renBlacklisted() bool {
	for _, b := range renBlacklist {
		if b.vid == u.vid && b.pid == u.pid {
			return true
		}
	}
	return false
}

func (u *USBTMC) Open() error {
	dev, err := u.findDevice()
	if err != nil {
		return err
	}
	if err := u.pickInterface(dev); err != nil {
		return err
	}
	fd, err := usbfs.OpenDevice(dev.BusNumber, dev.DeviceNumber)
	if err != nil {
		otc.Log(otc.LogErr, "scpi_usbtmc: failed to open %s: %s", u.Conn, err)
		return otc.ErrIO
	}
	u.fd = fd
	// Detach any kernel driver, then claim the interface.
	usbfs.Disconnect(fd, uint32(u.iface))
	if err := usbfs.ClaimInterface(fd, u.iface); err != nil {
		otc.Log(otc.LogErr, "scpi_usbtmc: failed to claim interface %d: %s", u.iface, err)
		usbfs.ResetDevice(fd)
		u.close()
		return otc.ErrIO
	}
	u.claimed = true

	var caps [24]byte
	u.controlIn(usbtmcGetCapabilities, 0, uint16(u.iface), caps[:])

	if !u.renBlacklisted() {
		u.controlOut(usb488RenControl, 1, uint16(u.iface))
		u.controlOut(usb488LocalLockout, 0, uint16(u.iface))
	}
	return nil
}

func (u *USBTMC) controlIn(request uint8, value, index uint16, payload []byte) (int, error) {
	typ := uint8(usb.RequestDirectionIn | usb.RequestTypeClass | usb.RequestRecipientInterface)
	n, err := usbfs.ControlTransfer(u.fd, typ, request, value, index, usbtmcIOTimeoutMs, payload)
	if err != nil {
		otc.Log(otc.LogDbg, "scpi_usbtmc: control request %d failed: %s", request, err)
		return 0, otc.ErrIO
	}
	return n, nil
}

func (u *USBTMC) controlOut(request uint8, value, index uint16) error {
	typ := uint8(usb.RequestDirectionOut | usb.RequestTypeClass | usb.RequestRecipientInterface)
	if _, err := usbfs.ControlTransfer(u.fd, typ, request, value, index, usbtmcIOTimeoutMs, nil); err != nil {
		otc.Log(otc.LogDbg, "scpi_usbtmc: control request %d failed: %s", request, err)
		return otc.ErrIO
	}
	return nil
}

func (u *USBTMC) ConnectionID() (string, error) {
	return "usbtmc/" + u.Conn, nil
}

func (u *USBTMC) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	// usbfs transfers are synchronous; poll off a timer.
	return sess.SourceAdd(u, -1, events, timeout, cb, data)
}

func (u *USBTMC) SourceRemove(sess *otc.Session) error {
	return sess.SourceRemove(u)
}

// nextTag advances the per-device 1..255 bTag counter.
func (u *USBTMC) nextTag() uint8 {
	u.bTag++
	if u.bTag == 0 {
		u.bTag = 1
	}
	return u.bTag
}

// bulkOutHeader builds the 12-byte bulk-out header: msgID, bTag,
// ~bTag, reserved, 32-bit little-endian size, attributes, term char,
// two reserved bytes.
func bulkOutHeader(msgID, bTag uint8, size uint32, attrs, termChar uint8) [usbtmcHeaderSize]byte {
	var h [usbtmcHeaderSize]byte
	h[0] = msgID
	h[1] = bTag
	h[2] = ^bTag
	binary.LittleEndian.PutUint32(h[4:8], size)
	h[8] = attrs
	h[9] = termChar
	return h
}

// padded rounds the payload up to a 4-byte boundary.
func padded(n int) int {
	return (n + 3) &^ 3
}

func (u *USBTMC) Send(command string) error {
	if u.fd < 0 {
		return otc.ErrDevClosed
	}
	payload := []byte(command)
	hdr := bulkOutHeader(devDepMsgOut, u.nextTag(), uint32(len(payload)), usbtmcAttrEOM, 0)
	out := make([]byte, usbtmcHeaderSize+padded(len(payload)))
	copy(out, hdr[:])
	copy(out[usbtmcHeaderSize:], payload)
	n, err := usbfs.BulkTransfer(u.fd, uint32(u.bulkOut), usbtmcIOTimeoutMs, out)
	if err != nil || n != len(out) {
		otc.Log(otc.LogErr, "scpi_usbtmc: bulk out failed: %s", err)
		return otc.ErrIO
	}
	logSpewBytes("bulk out", out)
	return nil
}

func logSpewBytes(what string, b []byte) {
	otc.Log(otc.LogSpew, "scpi_usbtmc: %s % x", what, b)
}

func (u *USBTMC) ReadBegin() error {
	u.remaining = 0
	u.eom = false
	u.buf = nil

	// Ask the instrument for data.
	hdr := bulkOutHeader(requestDevDepMsgIn, u.nextTag(), 1024*1024, 0, 0)
	n, err := usbfs.BulkTransfer(u.fd, uint32(u.bulkOut), usbtmcIOTimeoutMs, hdr[:])
	if err != nil || n != len(hdr) {
		otc.Log(otc.LogErr, "scpi_usbtmc: bulk out failed: %s", err)
		return otc.ErrIO
	}
	return u.readBulkIn(true)
}

// readBulkIn pulls one bulk-in transfer. The first transfer of a
// message carries the response header; it is retried exactly once
// when the instrument answers with fewer bytes than the header.
func (u *USBTMC) readBulkIn(first bool) error {
	buf := make([]byte, 64*1024)
	n, err := usbfs.BulkTransfer(u.fd, uint32(u.bulkIn), usbtmcIOTimeoutMs, buf)
	if err != nil {
		otc.Log(otc.LogErr, "scpi_usbtmc: bulk in failed: %s", err)
		return otc.ErrIO
	}
	if first {
		if n < usbtmcHeaderSize {
			// Some scopes answer the first read with an empty or
			// truncated transfer; retry exactly once.
			n, err = usbfs.BulkTransfer(u.fd, uint32(u.bulkIn), usbtmcIOTimeoutMs, buf)
			if err != nil || n < usbtmcHeaderSize {
				otc.Log(otc.LogErr, "scpi_usbtmc: short bulk-in header (%d bytes)", n)
				return otc.ErrData
			}
		}
		if buf[0] != devDepMsgIn {
			otc.Log(otc.LogErr, "scpi_usbtmc: unexpected msg id %d", buf[0])
			return otc.ErrData
		}
		if buf[1] != u.bTag {
			otc.Log(otc.LogWarn, "scpi_usbtmc: bTag mismatch (got %d, want %d)", buf[1], u.bTag)
		}
		u.remaining = int(binary.LittleEndian.Uint32(buf[4:8]))
		u.eom = buf[8]&usbtmcAttrEOM != 0
		data := buf[usbtmcHeaderSize:n]
		if len(data) > u.remaining {
			data = data[:u.remaining]
		}
		u.buf = append(u.buf, data...)
		u.remaining -= len(data)
		return nil
	}
	data := buf[:n]
	if len(data) > u.remaining {
		data = data[:u.remaining]
	}
	u.buf = append(u.buf, data...)
	u.remaining -= len(data)
	return nil
}

func (u *USBTMC) ReadData(buf []byte) (int, error) {
	if u.fd < 0 {
		return 0, otc.ErrDevClosed
	}
	for len(u.buf) == 0 && u.remaining > 0 {
		if err := u.readBulkIn(false); err != nil {
			return 0, err
		}
	}
	if len(u.buf) == 0 && u.remaining == 0 && !u.eom {
		// Message continues in a fresh transfer chain.
		if err := u.ReadBegin(); err != nil {
			return 0, err
		}
	}
	n := copy(buf, u.buf)
	u.buf = u.buf[n:]
	return n, nil
}

func (u *USBTMC) WriteData(buf []byte) (int, error) {
	if err := u.Send(string(buf)); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// ReadComplete is true when the transfer chain is drained and the
// instrument flagged end-of-message.
func (u *USBTMC) ReadComplete() bool {
	return len(u.buf) == 0 && u.remaining == 0 && u.eom
}

func (u *USBTMC) close() {
	if u.fd < 0 {
		return
	}
	if u.claimed {
		usbfs.ReleaseInterface(u.fd, u.iface)
		u.claimed = false
	}
	usbfs.Connect(u.fd, uint32(u.iface))
	syscall.Close(u.fd)
	u.fd = -1
}

func (u *USBTMC) Close() error {
	if u.fd < 0 {
		return otc.ErrDevClosed
	}
	if !u.renBlacklisted() {
		u.controlOut(usb488GoToLocal, 0, uint16(u.iface))
	}
	u.close()
	return nil
}

// ScanUSBTMC enumerates connection ids of visible TMC-class devices.
func ScanUSBTMC() ([]string, error) {
	devs, err := usb.FindDevices(func(dev *usb.Device) bool {
		for _, d := range dev.Descriptors {
			if ifd, ok := d.(*usb.InterfaceDescriptor); ok {
				if uint8(ifd.BInterfaceClass) == usbClassApplication &&
					uint8(ifd.BInterfaceSubClass) == usbSubclassTMC {
					return true
				}
			}
		}
		return false
	})
	if err != nil {
		return nil, otc.ErrIO
	}
	ids := make([]string, 0, len(devs))
	for _, dev := range devs {
		ids = append(ids, otc.UsbConnID(dev.BusNumber, dev.DeviceNumber))
	}
	return ids, nil
}

var _ Transport = (*USBTMC)(nil)
