package scpi

import (
	"bytes"
	"testing"
)

func TestBulkOutHeader(t *testing.T) {
	// 16-byte request with bTag 7: msg id 1, tag echo/complement,
	// little-endian size, EOM attribute.
	h := bulkOutHeader(devDepMsgOut, 7, 16, usbtmcAttrEOM, 0)
	want := []byte{
		0x01, 0x07, 0xf8, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(h[:], want) {
		t.Errorf("header = % x, want % x", h[:], want)
	}
}

func TestPadded(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0}, {1, 4}, {3, 4}, {4, 4}, {5, 8}, {16, 16},
	}
	for _, tt := range tests {
		if got := padded(tt.in); got != tt.want {
			t.Errorf("padded(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// A command goes out as the 12-byte header plus the payload padded to
// a 4-byte boundary.
func TestSendTotalLength(t *testing.T) {
	tests := []struct {
		payload, total int
	}{
		{16, 28},
		{17, 32},
		{1, 16},
	}
	for _, tt := range tests {
		if got := usbtmcHeaderSize + padded(tt.payload); got != tt.total {
			t.Errorf("payload %d: total = %d, want %d", tt.payload, got, tt.total)
		}
	}
}

func TestNextTagWraps(t *testing.T) {
	u := NewUSBTMC("1.1")
	u.bTag = 254
	if tag := u.nextTag(); tag != 255 {
		t.Errorf("tag = %d, want 255", tag)
	}
	if tag := u.nextTag(); tag != 1 {
		t.Errorf("tag after wrap = %d, want 1 (0 is skipped)", tag)
	}
}

func TestRenBlacklist(t *testing.T) {
	u := NewUSBTMC("1.1")
	u.vid, u.pid = 0x1ab1, 0x0588
	if !u.renBlacklisted() {
		t.Error("Rigol DS1000 not blacklisted")
	}
	u.vid, u.pid = 0x0400, 0x0001
	if u.renBlacklisted() {
		t.Error("unknown device blacklisted")
	}
}
