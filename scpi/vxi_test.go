package scpi

import (
	"bytes"
	"testing"
)

func TestXdrUint32(t *testing.T) {
	got := xdrUint32(nil, 0x01020304)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("xdrUint32 = % x", got)
	}
}

func TestXdrOpaque(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"inst0", []byte{0, 0, 0, 5, 'i', 'n', 's', 't', '0', 0, 0, 0}},
		{"abcd", []byte{0, 0, 0, 4, 'a', 'b', 'c', 'd'}},
		{"", []byte{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := xdrOpaque(nil, []byte(tt.in))
		if !bytes.Equal(got, tt.want) {
			t.Errorf("xdrOpaque(%q) = % x, want % x", tt.in, got, tt.want)
		}
	}
}

func TestVXIConnectionID(t *testing.T) {
	id, err := NewVXI("192.168.7.2").ConnectionID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "vxi/192.168.7.2" {
		t.Errorf("ConnectionID() = %q", id)
	}
}
