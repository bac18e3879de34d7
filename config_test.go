package otc

import "testing"

// gateDriver publishes exactly one option: LIMIT_SAMPLES with GET and
// SET (no LIST), and records every call that reaches it.
type gateDriver struct {
	BaseDriver
	getCalls  int
	setCalls  int
	listCalls int
	limit     uint64
}

func (d *gateDriver) Name() string     { return "gate-test" }
func (d *gateDriver) LongName() string { return "Gate test driver" }
func (d *gateDriver) APIVersion() int  { return 1 }

func (d *gateDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *gateDriver) ConfigGet(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error) {
	d.getCalls++
	return Uint64Variant(d.limit), nil
}

func (d *gateDriver) ConfigSet(key ConfKey, value *Variant, sdi *Dev, cg *ChannelGroup) error {
	d.setCalls++
	d.limit = value.Uint64()
	return nil
}

func (d *gateDriver) ConfigList(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error) {
	switch key {
	case ConfDeviceOptions:
		return Uint32ListVariant([]uint32{
			uint32(ConfLimitSamples) | uint32(CapGet|CapSet),
		}), nil
	case ConfScanOptions:
		return Uint32ListVariant(nil), nil
	}
	d.listCalls++
	return nil, ErrNA
}

func (d *gateDriver) DevOpen(sdi *Dev) error          { return nil }
func (d *gateDriver) DevClose(sdi *Dev) error         { return nil }
func (d *gateDriver) AcquisitionStart(sdi *Dev) error { return nil }
func (d *gateDriver) AcquisitionStop(sdi *Dev) error  { return nil }

func gateDev(t *testing.T) (*gateDriver, *Dev) {
	t.Helper()
	drv := &gateDriver{}
	sdi := NewDev(drv, InstUser, "test", "gate", "0")
	sdi.SetStatus(StatusInactive)
	ChannelNew(sdi, 0, ChannelLogic, true, "D0")
	if err := DevOpen(sdi); err != nil {
		t.Fatal(err)
	}
	return drv, sdi
}

func TestConfigSetGate(t *testing.T) {
	drv, sdi := gateDev(t)

	if err := ConfigSet(sdi, nil, ConfLimitSamples, Uint64Variant(1000)); err != nil {
		t.Fatalf("valid set failed: %v", err)
	}
	if drv.setCalls != 1 || drv.limit != 1000 {
		t.Errorf("driver set not invoked: calls %d, limit %d", drv.setCalls, drv.limit)
	}

	// A zero limit is rejected before the driver sees it.
	if err := ConfigSet(sdi, nil, ConfLimitSamples, Uint64Variant(0)); err != ErrArg {
		t.Errorf("zero limit returned %v, want ErrArg", err)
	}
	if drv.setCalls != 1 {
		t.Errorf("driver invoked for invalid value (%d calls)", drv.setCalls)
	}

	// Wrong variant kind never reaches the driver.
	if err := ConfigSet(sdi, nil, ConfLimitSamples, StringVariant("1000")); err != ErrArg {
		t.Errorf("wrong type returned %v, want ErrArg", err)
	}
	if drv.setCalls != 1 {
		t.Errorf("driver invoked for mistyped value (%d calls)", drv.setCalls)
	}

	// Key absent from the options list.
	if err := ConfigSet(sdi, nil, ConfSamplerate, Uint64Variant(100)); err != ErrArg {
		t.Errorf("undeclared key returned %v, want ErrArg", err)
	}
}

func TestConfigListGate(t *testing.T) {
	drv, sdi := gateDev(t)

	// LIMIT_SAMPLES has no LIST capability.
	if _, err := ConfigList(drv, sdi, nil, ConfLimitSamples); err != ErrArg {
		t.Errorf("list without capability returned %v, want ErrArg", err)
	}
	if drv.listCalls != 0 {
		t.Errorf("driver list invoked %d times", drv.listCalls)
	}
}

func TestConfigGetGate(t *testing.T) {
	drv, sdi := gateDev(t)
	drv.limit = 77

	v, err := ConfigGet(drv, sdi, nil, ConfLimitSamples)
	if err != nil {
		t.Fatalf("valid get failed: %v", err)
	}
	if v.Uint64() != 77 {
		t.Errorf("got %d, want 77", v.Uint64())
	}
	if drv.getCalls != 1 {
		t.Errorf("driver get calls = %d, want 1", drv.getCalls)
	}

	if _, err := ConfigGet(drv, sdi, nil, ConfSamplerate); err != ErrArg {
		t.Errorf("undeclared key returned %v, want ErrArg", err)
	}
}

func TestConfigSetRequiresOpenDevice(t *testing.T) {
	drv := &gateDriver{}
	sdi := NewDev(drv, InstUser, "test", "gate", "0")
	sdi.SetStatus(StatusInactive)

	if err := ConfigSet(sdi, nil, ConfLimitSamples, Uint64Variant(10)); err != ErrDevClosed {
		t.Errorf("set on closed device returned %v, want ErrDevClosed", err)
	}
	if drv.setCalls != 0 {
		t.Error("driver invoked on closed device")
	}
}

func TestConfigSetCaptureRatio(t *testing.T) {
	drv := &ratioDriver{}
	sdi := NewDev(drv, InstUser, "test", "ratio", "0")
	sdi.SetStatus(StatusActive)

	if err := ConfigSet(sdi, nil, ConfCaptureRatio, Uint64Variant(101)); err != ErrArg {
		t.Errorf("ratio 101 returned %v, want ErrArg", err)
	}
	if err := ConfigSet(sdi, nil, ConfCaptureRatio, Uint64Variant(50)); err != nil {
		t.Errorf("ratio 50 returned %v", err)
	}
}

type ratioDriver struct {
	BaseDriver
}

func (d *ratioDriver) Name() string     { return "ratio-test" }
func (d *ratioDriver) LongName() string { return "Ratio test driver" }
func (d *ratioDriver) APIVersion() int  { return 1 }

func (d *ratioDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *ratioDriver) ConfigSet(key ConfKey, value *Variant, sdi *Dev, cg *ChannelGroup) error {
	return nil
}

func (d *ratioDriver) ConfigList(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error) {
	if key == ConfDeviceOptions {
		return Uint32ListVariant([]uint32{
			uint32(ConfCaptureRatio) | uint32(CapGet | CapSet),
		}), nil
	}
	return nil, ErrNA
}

func (d *ratioDriver) DevOpen(sdi *Dev) error          { return nil }
func (d *ratioDriver) DevClose(sdi *Dev) error         { return nil }
func (d *ratioDriver) AcquisitionStart(sdi *Dev) error { return nil }
func (d *ratioDriver) AcquisitionStop(sdi *Dev) error  { return nil }
