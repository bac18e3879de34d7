package otc

import "testing"

func TestErrorCodesStable(t *testing.T) {
	tests := []struct {
		err  Error
		code int
		name string
	}{
		{ErrGeneric, -1, "err"},
		{ErrMalloc, -2, "malloc"},
		{ErrArg, -3, "arg"},
		{ErrBug, -4, "bug"},
		{ErrSamplerate, -5, "samplerate"},
		{ErrNA, -6, "na"},
		{ErrDevClosed, -7, "dev_closed"},
		{ErrTimeout, -8, "timeout"},
		{ErrChannelGroup, -9, "channel_group"},
		{ErrData, -10, "data"},
		{ErrIO, -11, "io"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code() != tt.code {
				t.Errorf("Code() = %d, want %d", tt.err.Code(), tt.code)
			}
			if tt.err.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", tt.err.Name(), tt.name)
			}
			if tt.err.Error() == "" || tt.err.Error() == "unknown error" {
				t.Errorf("Error() has no message")
			}
		})
	}
}

func TestErrorIsError(t *testing.T) {
	var err error = ErrTimeout
	if err.Error() != "timeout occurred" {
		t.Errorf("Error() = %q", err.Error())
	}
}
