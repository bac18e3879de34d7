package otc

// ConfigItem is one (key, value) pair as passed to scans and carried in
// meta packets.
type ConfigItem struct {
	Key   ConfKey
	Value *Variant
}

// Driver is the interface every hardware driver implements. Optional
// hooks return ErrNA when the driver does not support them.
type Driver interface {
	// Name returns the short lowercase driver name, [a-z0-9-].
	Name() string
	// LongName returns the human readable driver name.
	LongName() string
	// APIVersion returns the driver API version this driver targets.
	APIVersion() int

	Init(ctx *Context) error
	Cleanup() error

	Scan(options []ConfigItem) ([]*Dev, error)
	DevList() []*Dev
	DevClear() error

	ConfigGet(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error)
	ConfigSet(key ConfKey, value *Variant, sdi *Dev, cg *ChannelGroup) error
	ConfigChannelSet(sdi *Dev, ch *Channel, changes int) error
	ConfigCommit(sdi *Dev) error
	ConfigList(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error)

	DevOpen(sdi *Dev) error
	DevClose(sdi *Dev) error
	AcquisitionStart(sdi *Dev) error
	AcquisitionStop(sdi *Dev) error
}

// BaseDriver provides default implementations for the optional driver
// hooks so drivers only implement what they support.
type BaseDriver struct {
	Ctx  *Context
	Devs []*Dev
}

func (b *BaseDriver) Init(ctx *Context) error {
	b.Ctx = ctx
	return nil
}

func (b *BaseDriver) Cleanup() error {
	b.Devs = nil
	return nil
}

func (b *BaseDriver) DevList() []*Dev { return b.Devs }

func (b *BaseDriver) DevClear() error {
	b.Devs = nil
	return nil
}

func (b *BaseDriver) ConfigGet(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error) {
	return nil, ErrNA
}

func (b *BaseDriver) ConfigSet(key ConfKey, value *Variant, sdi *Dev, cg *ChannelGroup) error {
	return ErrNA
}

func (b *BaseDriver) ConfigChannelSet(sdi *Dev, ch *Channel, changes int) error {
	return nil
}

func (b *BaseDriver) ConfigCommit(sdi *Dev) error { return nil }

func (b *BaseDriver) ConfigList(key ConfKey, sdi *Dev, cg *ChannelGroup) (*Variant, error) {
	return nil, ErrNA
}

// DriverScanOptionsList asks the driver which keys its scanner
// accepts, capability bits masked off.
func DriverScanOptionsList(driver Driver) ([]ConfKey, error) {
	if driver == nil {
		return nil, ErrArg
	}
	opts, err := driver.ConfigList(ConfScanOptions, nil, nil)
	if err != nil {
		return nil, err
	}
	keys := make([]ConfKey, 0, len(opts.Uint32List()))
	for _, opt := range opts.Uint32List() {
		keys = append(keys, ConfKey(opt)&ConfMask)
	}
	return keys, nil
}

// checkScanOptions validates scan options against the driver's
// published SCAN_OPTIONS list before the scanner runs.
func checkScanOptions(driver Driver, options []ConfigItem) error {
	if len(options) == 0 {
		return nil
	}
	keys, err := DriverScanOptionsList(driver)
	if err != nil {
		logErr("Driver %s does not support scan options", driver.Name())
		return ErrArg
	}
	for _, opt := range options {
		found := false
		for _, k := range keys {
			if k == opt.Key {
				found = true
				break
			}
		}
		if !found {
			logErr("Driver %s does not support scan option %d", driver.Name(), opt.Key)
			return ErrArg
		}
		if err := VariantTypeCheck(opt.Key, opt.Value); err != nil {
			return err
		}
	}
	return nil
}

// DriverScan runs the driver's scanner with the given options. The
// returned list is owned by the caller; the devices remain owned by
// the driver until attached to a session or freed.
func DriverScan(driver Driver, options []ConfigItem) ([]*Dev, error) {
	if driver == nil {
		return nil, ErrArg
	}
	if err := checkScanOptions(driver, options); err != nil {
		return nil, err
	}
	return driver.Scan(options)
}

func logKey(sdi *Dev, cg *ChannelGroup, key ConfKey, op string, v *Variant) {
	info := KeyInfoGet(KeyConfig, uint32(key))
	id := "unknown"
	if info != nil {
		id = info.ID
	}
	cgName := ""
	if cg != nil {
		cgName = "/" + cg.Name
	}
	what := ""
	if sdi != nil {
		what = sdi.connID
	}
	logSpew("otc_config_%s(): key %d (%s) sdi %s%s", op, key, id, what, cgName)
	_ = v
}

// checkKey enforces the typed gate: key known, key present in the
// driver's options list (scoped to cg when given), and the capability
// bit for the requested operation set.
func checkKey(driver Driver, sdi *Dev, cg *ChannelGroup, key ConfKey, op ConfKey) error {
	info := KeyInfoGet(KeyConfig, uint32(key))
	if info == nil {
		logErr("Invalid key %d", key)
		return ErrArg
	}
	opstr := map[ConfKey]string{CapGet: "get", CapSet: "set", CapList: "list"}[op]
	srcname := "driver"
	if sdi != nil {
		srcname = sdi.connID
	}

	opts, err := driver.ConfigList(ConfDeviceOptions, sdi, cg)
	if err != nil {
		logErr("%s: no device options", srcname)
		return ErrArg
	}
	for _, opt := range opts.Uint32List() {
		if ConfKey(opt)&ConfMask != key {
			continue
		}
		if ConfKey(opt)&op == 0 {
			logErr("%s: no %s for key %d (%s)", srcname, opstr, key, info.ID)
			return ErrArg
		}
		return nil
	}
	logErr("%s: unknown config key %d (%s)", srcname, key, info.ID)
	return ErrArg
}

// ConfigGet fetches a configuration value through the typed gate.
func ConfigGet(driver Driver, sdi *Dev, cg *ChannelGroup, key ConfKey) (*Variant, error) {
	if driver == nil {
		return nil, ErrArg
	}
	if err := checkKey(driver, sdi, cg, key, CapGet); err != nil {
		return nil, err
	}
	logKey(sdi, cg, key, "get", nil)
	return driver.ConfigGet(key, sdi, cg)
}

// ConfigSet pushes a configuration value through the typed gate.
func ConfigSet(sdi *Dev, cg *ChannelGroup, key ConfKey, value *Variant) error {
	if sdi == nil || sdi.driver == nil {
		return ErrArg
	}
	if err := VariantTypeCheck(key, value); err != nil {
		logErr("Invalid value for key %d", key)
		return err
	}
	// Closed-form sanity checks before the driver sees the value.
	switch key {
	case ConfLimitMsec, ConfLimitSamples:
		if value.Uint64() == 0 {
			logErr("Cannot set limit to 0")
			return ErrArg
		}
	case ConfSamplerate:
		if value.Uint64() == 0 {
			logErr("Cannot set samplerate to 0")
			return ErrArg
		}
	case ConfCaptureRatio:
		if value.Uint64() > 100 {
			logErr("Capture ratio must be 0..100")
			return ErrArg
		}
	}
	if err := checkKey(sdi.driver, sdi, cg, key, CapSet); err != nil {
		return err
	}
	if sdi.status != StatusActive {
		return ErrDevClosed
	}
	logKey(sdi, cg, key, "set", value)
	return sdi.driver.ConfigSet(key, value, sdi, cg)
}

// ConfigCommit pushes any deferred configuration state to hardware.
func ConfigCommit(sdi *Dev) error {
	if sdi == nil || sdi.driver == nil {
		return ErrArg
	}
	return sdi.driver.ConfigCommit(sdi)
}

// ConfigList enumerates the possible values for key through the typed
// gate. The option-list meta keys bypass the gate.
func ConfigList(driver Driver, sdi *Dev, cg *ChannelGroup, key ConfKey) (*Variant, error) {
	if driver == nil {
		return nil, ErrArg
	}
	if key != ConfScanOptions && key != ConfDeviceOptions {
		if err := checkKey(driver, sdi, cg, key, CapList); err != nil {
			return nil, err
		}
	}
	logKey(sdi, cg, key, "list", nil)
	return driver.ConfigList(key, sdi, cg)
}

// DevAcquisitionStart starts acquisition on the device.
func DevAcquisitionStart(sdi *Dev) error {
	if sdi == nil || sdi.driver == nil {
		return ErrArg
	}
	return sdi.driver.AcquisitionStart(sdi)
}

// DevAcquisitionStop requests the device stop acquiring.
func DevAcquisitionStop(sdi *Dev) error {
	if sdi == nil || sdi.driver == nil {
		return ErrArg
	}
	return sdi.driver.AcquisitionStop(sdi)
}
