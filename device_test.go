package otc

import "testing"

// chDriver records and optionally rejects channel state changes.
type chDriver struct {
	BaseDriver
	reject bool
	calls  int
}

func (d *chDriver) Name() string     { return "ch-test" }
func (d *chDriver) LongName() string { return "Channel test driver" }
func (d *chDriver) APIVersion() int  { return 1 }

func (d *chDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *chDriver) ConfigChannelSet(sdi *Dev, ch *Channel, changes int) error {
	d.calls++
	if d.reject {
		return ErrNA
	}
	return nil
}

func (d *chDriver) DevOpen(sdi *Dev) error          { return nil }
func (d *chDriver) DevClose(sdi *Dev) error         { return nil }
func (d *chDriver) AcquisitionStart(sdi *Dev) error { return nil }
func (d *chDriver) AcquisitionStop(sdi *Dev) error  { return nil }

func TestChannelEnable(t *testing.T) {
	drv := &chDriver{}
	sdi := NewDev(drv, InstUser, "test", "ch", "0")
	ch := ChannelNew(sdi, 0, ChannelLogic, true, "D0")

	// No-op when the state does not change.
	if err := ChannelEnable(ch, true); err != nil {
		t.Fatal(err)
	}
	if drv.calls != 0 {
		t.Errorf("driver called for unchanged state (%d)", drv.calls)
	}

	if err := ChannelEnable(ch, false); err != nil {
		t.Fatal(err)
	}
	if drv.calls != 1 || ch.Enabled {
		t.Errorf("state change not propagated (calls %d, enabled %v)", drv.calls, ch.Enabled)
	}

	// A rejected change restores the previous state.
	drv.reject = true
	if err := ChannelEnable(ch, true); err != ErrNA {
		t.Errorf("rejected change returned %v, want ErrNA", err)
	}
	if ch.Enabled {
		t.Error("state not restored after driver rejection")
	}
}

func TestChannelListsDiffer(t *testing.T) {
	a := []*Channel{
		{Index: 0, Type: ChannelLogic, Name: "D0"},
		{Index: 1, Type: ChannelAnalog, Name: "A0"},
	}
	same := []*Channel{
		{Index: 0, Type: ChannelLogic, Name: "D0"},
		{Index: 1, Type: ChannelAnalog, Name: "A0"},
	}
	renamed := []*Channel{
		{Index: 0, Type: ChannelLogic, Name: "D0"},
		{Index: 1, Type: ChannelAnalog, Name: "CH1"},
	}
	if ChannelListsDiffer(a, same) {
		t.Error("identical lists reported different")
	}
	if !ChannelListsDiffer(a, renamed) {
		t.Error("renamed channel not detected")
	}
	if !ChannelListsDiffer(a, a[:1]) {
		t.Error("length change not detected")
	}
}

func TestDevOpenClose(t *testing.T) {
	drv := &chDriver{}
	sdi := NewDev(drv, InstUser, "test", "oc", "0")
	sdi.SetStatus(StatusInactive)

	if err := DevOpen(sdi); err != nil {
		t.Fatal(err)
	}
	if sdi.Status() != StatusActive {
		t.Errorf("status after open = %v, want Active", sdi.Status())
	}
	if err := DevOpen(sdi); err != ErrArg {
		t.Errorf("double open = %v, want ErrArg", err)
	}
	if err := DevClose(sdi); err != nil {
		t.Fatal(err)
	}
	if sdi.Status() != StatusInactive {
		t.Errorf("status after close = %v, want Inactive", sdi.Status())
	}
	if err := DevClose(sdi); err != ErrArg {
		t.Errorf("double close = %v, want ErrArg", err)
	}
}

// The device stays Inactive even when the driver's close fails.
func TestDevCloseErrorStillCloses(t *testing.T) {
	drv := &failCloseDriver{}
	sdi := NewDev(drv, InstUser, "test", "fc", "0")
	sdi.SetStatus(StatusActive)

	if err := DevClose(sdi); err != ErrIO {
		t.Errorf("DevClose() = %v, want ErrIO", err)
	}
	if sdi.Status() != StatusInactive {
		t.Errorf("status = %v, want Inactive", sdi.Status())
	}
}

type failCloseDriver struct {
	BaseDriver
}

func (d *failCloseDriver) Name() string     { return "failclose-test" }
func (d *failCloseDriver) LongName() string { return "Fail close test driver" }
func (d *failCloseDriver) APIVersion() int  { return 1 }

func (d *failCloseDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *failCloseDriver) ConfigChannelSet(sdi *Dev, ch *Channel, changes int) error { return nil }

func (d *failCloseDriver) DevOpen(sdi *Dev) error          { return nil }
func (d *failCloseDriver) DevClose(sdi *Dev) error         { return ErrIO }
func (d *failCloseDriver) AcquisitionStart(sdi *Dev) error { return nil }
func (d *failCloseDriver) AcquisitionStop(sdi *Dev) error  { return nil }

func TestDevOptions(t *testing.T) {
	drv, sdi := gateDev(t)
	keys, err := DevOptions(drv, sdi, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != ConfLimitSamples {
		t.Errorf("DevOptions() = %v, want [ConfLimitSamples]", keys)
	}
	if !DevHasOption(sdi, ConfLimitSamples) {
		t.Error("DevHasOption(limit_samples) = false")
	}
	if DevHasOption(sdi, ConfSamplerate) {
		t.Error("DevHasOption(samplerate) = true")
	}
	caps := DevConfigCapabilitiesList(sdi, nil, ConfLimitSamples)
	if caps != CapGet|CapSet {
		t.Errorf("capabilities = %x, want GET|SET", caps)
	}
}
