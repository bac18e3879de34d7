package scpi

import (
	"encoding/binary"
	"net"
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

// VXI-11 device_core program constants.
const (
	vxiCoreProg = 0x0607af
	vxiCoreVers = 1

	vxiProcCreateLink  = 10
	vxiProcDeviceWrite = 11
	vxiProcDeviceRead  = 12
	vxiProcDestroyLink = 23
)

// device_read reason bits.
const (
	vxiReasonReqCnt = 0x01
	vxiReasonChr    = 0x02
	vxiReasonEnd    = 0x04
)

const vxiPortmapPort = "111"

// VXI is a minimal VXI-11 core-channel client, standing in where a
// host VISA library would be used. It speaks ONC-RPC over TCP directly
// to the instrument's core port.
type VXI struct {
	// Host is the instrument address. Port defaults to the portmapped
	// core channel; instruments that publish a fixed core port can be
	// given "host:port".
	Host        string
	ReadTimeout time.Duration

	conn net.Conn
	xid  uint32
	lid  uint32 // link id from create_link

	buf     []byte
	sawEnd  bool
	started bool
}

// NewVXI builds a VXI-11 transport for the instrument at host.
func NewVXI(host string) *VXI {
	return &VXI{Host: host, ReadTimeout: 5 * time.Second}
}

// xdr helpers. ONC-RPC encodes everything big-endian on 4-byte
// boundaries.

func xdrUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func xdrOpaque(buf []byte, data []byte) []byte {
	buf = xdrUint32(buf, uint32(len(data)))
	buf = append(buf, data...)
	for pad := (4 - len(data)%4) % 4; pad > 0; pad-- {
		buf = append(buf, 0)
	}
	return buf
}

// call performs one RPC round trip and returns the reply body past the
// accepted-reply header.
func (v *VXI) call(proc uint32, args []byte) ([]byte, error) {
	if v.conn == nil {
		return nil, otc.ErrDevClosed
	}
	v.xid++
	var msg []byte
	msg = xdrUint32(msg, v.xid)
	msg = xdrUint32(msg, 0) // CALL
	msg = xdrUint32(msg, 2) // RPC version
	msg = xdrUint32(msg, vxiCoreProg)
	msg = xdrUint32(msg, vxiCoreVers)
	msg = xdrUint32(msg, proc)
	msg = xdrUint32(msg, 0) // auth null
	msg = xdrUint32(msg, 0)
	msg = xdrUint32(msg, 0) // verf null
	msg = xdrUint32(msg, 0)
	msg = append(msg, args...)

	// Record marking: length with the last-fragment bit.
	var rec [4]byte
	binary.BigEndian.PutUint32(rec[:], uint32(len(msg))|0x80000000)
	v.conn.SetDeadline(time.Now().Add(v.ReadTimeout))
	if _, err := v.conn.Write(append(rec[:], msg...)); err != nil {
		return nil, otc.ErrIO
	}

	var reply []byte
	for {
		if _, err := readFull(v.conn, rec[:]); err != nil {
			return nil, otc.ErrIO
		}
		marker := binary.BigEndian.Uint32(rec[:])
		frag := make([]byte, marker&0x7fffffff)
		if _, err := readFull(v.conn, frag); err != nil {
			return nil, otc.ErrIO
		}
		reply = append(reply, frag...)
		if marker&0x80000000 != 0 {
			break
		}
	}
	// xid, REPLY, MSG_ACCEPTED, verf (flavor+len), SUCCESS.
	if len(reply) < 24 {
		return nil, otc.ErrData
	}
	if binary.BigEndian.Uint32(reply[0:4]) != v.xid ||
		binary.BigEndian.Uint32(reply[8:12]) != 0 ||
		binary.BigEndian.Uint32(reply[20:24]) != 0 {
		otc.Log(otc.LogErr, "scpi_vxi: rpc call %d rejected", proc)
		return nil, otc.ErrIO
	}
	return reply[24:], nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	got := 0
	for got < len(buf) {
		n, err := conn.Read(buf[got:])
		if err != nil {
			return got, err
		}
		got += n
	}
	return got, nil
}

func (v *VXI) Open() error {
	addr := v.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, vxiPortmapPort)
	}
	conn, err := net.DialTimeout("tcp", addr, tcpDialTimeout)
	if err != nil {
		otc.Log(otc.LogErr, "scpi_vxi: failed to connect to %s: %s", addr, err)
		return otc.ErrIO
	}
	v.conn = conn

	// create_link(clientId, lockDevice=false, lock_timeout, "inst0")
	var args []byte
	args = xdrUint32(args, 0)
	args = xdrUint32(args, 0)
	args = xdrUint32(args, 0)
	args = xdrOpaque(args, []byte("inst0"))
	resp, err := v.call(vxiProcCreateLink, args)
	if err != nil {
		v.conn.Close()
		v.conn = nil
		return err
	}
	if len(resp) < 8 || binary.BigEndian.Uint32(resp[0:4]) != 0 {
		otc.Log(otc.LogErr, "scpi_vxi: create_link failed")
		v.conn.Close()
		v.conn = nil
		return otc.ErrIO
	}
	v.lid = binary.BigEndian.Uint32(resp[4:8])
	return nil
}

func (v *VXI) ConnectionID() (string, error) {
	return "vxi/" + v.Host, nil
}

func (v *VXI) SourceAdd(sess *otc.Session, events int16, timeout time.Duration, cb otc.ReceiveCallback, data interface{}) error {
	// The RPC exchange is synchronous; poll off a timer.
	return sess.SourceAdd(v, -1, events, timeout, cb, data)
}

func (v *VXI) SourceRemove(sess *otc.Session) error {
	return sess.SourceRemove(v)
}

func (v *VXI) Send(command string) error {
	var args []byte
	args = xdrUint32(args, v.lid)
	args = xdrUint32(args, uint32(v.ReadTimeout/time.Millisecond)) // io_timeout
	args = xdrUint32(args, 0)                                      // lock_timeout
	args = xdrUint32(args, 0x08)                                   // flags: END
	args = xdrOpaque(args, []byte(command))
	resp, err := v.call(vxiProcDeviceWrite, args)
	if err != nil {
		return err
	}
	if len(resp) < 8 || binary.BigEndian.Uint32(resp[0:4]) != 0 {
		otc.Log(otc.LogErr, "scpi_vxi: device_write failed")
		return otc.ErrIO
	}
	return nil
}

func (v *VXI) ReadBegin() error {
	v.buf = nil
	v.sawEnd = false
	v.started = false
	return nil
}

func (v *VXI) ReadData(buf []byte) (int, error) {
	if len(v.buf) == 0 && !v.sawEnd {
		var args []byte
		args = xdrUint32(args, v.lid)
		args = xdrUint32(args, uint32(len(buf)))
		args = xdrUint32(args, uint32(v.ReadTimeout/time.Millisecond))
		args = xdrUint32(args, 0) // lock_timeout
		args = xdrUint32(args, 0) // flags
		args = xdrUint32(args, 0) // term char
		resp, err := v.call(vxiProcDeviceRead, args)
		if err != nil {
			return 0, err
		}
		if len(resp) < 12 || binary.BigEndian.Uint32(resp[0:4]) != 0 {
			otc.Log(otc.LogErr, "scpi_vxi: device_read failed")
			return 0, otc.ErrIO
		}
		reason := binary.BigEndian.Uint32(resp[4:8])
		count := binary.BigEndian.Uint32(resp[8:12])
		if int(count) > len(resp)-12 {
			return 0, otc.ErrData
		}
		v.buf = append(v.buf, resp[12:12+count]...)
		if reason&(vxiReasonEnd|vxiReasonChr) != 0 {
			v.sawEnd = true
		}
		v.started = true
	}
	n := copy(buf, v.buf)
	v.buf = v.buf[n:]
	return n, nil
}

func (v *VXI) WriteData(buf []byte) (int, error) {
	if err := v.Send(string(buf)); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (v *VXI) ReadComplete() bool {
	return v.started && v.sawEnd && len(v.buf) == 0
}

func (v *VXI) Close() error {
	if v.conn == nil {
		return otc.ErrDevClosed
	}
	var args []byte
	args = xdrUint32(args, v.lid)
	v.call(vxiProcDestroyLink, args)
	err := v.conn.Close()
	v.conn = nil
	if err != nil {
		return otc.ErrIO
	}
	return nil
}

var _ Transport = (*VXI)(nil)
