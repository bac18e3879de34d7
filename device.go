package otc

import "fmt"

// DevStatus is the lifecycle state of a device instance.
type DevStatus int

const (
	StatusNotFound DevStatus = 10000 + iota
	StatusInitializing
	StatusInactive
	StatusActive
	StatusStopping
)

// DevInstType tags which kind of connection a device instance uses.
type DevInstType int

const (
	InstUSB DevInstType = 10000 + iota
	InstSerial
	InstSCPI
	InstUser
	InstModbus
)

// Dev is one device instance. Created by a driver scan or by user
// construction; mutated only through the driver interface; it belongs
// to at most one session at a time.
type Dev struct {
	driver   Driver
	status   DevStatus
	instType DevInstType

	vendor    string
	model     string
	version   string
	serialNum string
	connID    string

	channels []*Channel
	groups   []*ChannelGroup

	// Conn is the opaque transport handle, owned by the driver.
	Conn interface{}
	// Priv is driver-private state.
	Priv interface{}

	session *Session
}

// NewDev builds a device instance for a driver scan result.
func NewDev(driver Driver, instType DevInstType, vendor, model, version string) *Dev {
	return &Dev{
		driver:   driver,
		status:   StatusInitializing,
		instType: instType,
		vendor:   vendor,
		model:    model,
		version:  version,
	}
}

// UserDevNew constructs a user-owned device instance with no driver.
func UserDevNew(vendor, model, version string) *Dev {
	return &Dev{
		status:   StatusInactive,
		instType: InstUser,
		vendor:   vendor,
		model:    model,
		version:  version,
	}
}

// UserDevChannelAdd adds a channel to a user-constructed device.
func UserDevChannelAdd(sdi *Dev, index int, ctype ChannelType, name string) error {
	if sdi == nil || sdi.instType != InstUser {
		return ErrArg
	}
	ChannelNew(sdi, index, ctype, true, name)
	return nil
}

func (d *Dev) Driver() Driver                 { return d.driver }
func (d *Dev) Status() DevStatus              { return d.status }
func (d *Dev) InstType() DevInstType          { return d.instType }
func (d *Dev) Vendor() string                 { return d.vendor }
func (d *Dev) Model() string                  { return d.model }
func (d *Dev) Version() string                { return d.version }
func (d *Dev) SerialNum() string              { return d.serialNum }
func (d *Dev) ConnID() string                 { return d.connID }
func (d *Dev) Channels() []*Channel           { return d.channels }
func (d *Dev) ChannelGroups() []*ChannelGroup { return d.groups }
func (d *Dev) Session() *Session              { return d.session }

// SetSerialNum and SetConnID are for driver use during scan.
func (d *Dev) SetSerialNum(s string) { d.serialNum = s }
func (d *Dev) SetConnID(s string)    { d.connID = s }
func (d *Dev) SetStatus(s DevStatus) { d.status = s }

// DevOpen opens the device. Refused while the device is already
// Active; on success the device transitions to Active.
func DevOpen(sdi *Dev) error {
	if sdi == nil || sdi.driver == nil {
		return ErrArg
	}
	if sdi.status == StatusActive {
		logErr("%s: device already open", sdi.connID)
		return ErrArg
	}
	if err := sdi.driver.DevOpen(sdi); err != nil {
		return err
	}
	sdi.status = StatusActive
	return nil
}

// DevClose closes the device. The instance is considered closed
// afterwards even when the driver reports an error.
func DevClose(sdi *Dev) error {
	if sdi == nil || sdi.driver == nil {
		return ErrArg
	}
	if sdi.status != StatusActive {
		logErr("%s: device not open", sdi.connID)
		return ErrArg
	}
	sdi.status = StatusInactive
	return sdi.driver.DevClose(sdi)
}

// DevHasOption reports whether the device publishes key in its
// device-wide options list; channel-group option lists are not searched.
func DevHasOption(sdi *Dev, key ConfKey) bool {
	if sdi == nil || sdi.driver == nil {
		return false
	}
	opts, err := sdi.driver.ConfigList(ConfDeviceOptions, sdi, nil)
	if err != nil {
		return false
	}
	for _, opt := range opts.Uint32List() {
		if ConfKey(opt)&ConfMask == key {
			return true
		}
	}
	return false
}

// DevOptions returns the set of configuration keys the device accepts,
// capability bits masked off.
func DevOptions(driver Driver, sdi *Dev, cg *ChannelGroup) ([]ConfKey, error) {
	if sdi != nil {
		driver = sdi.driver
	}
	if driver == nil {
		return nil, ErrArg
	}
	opts, err := driver.ConfigList(ConfDeviceOptions, sdi, cg)
	if err != nil {
		return nil, err
	}
	keys := make([]ConfKey, 0, len(opts.Uint32List()))
	for _, opt := range opts.Uint32List() {
		keys = append(keys, ConfKey(opt)&ConfMask)
	}
	return keys, nil
}

// DevConfigCapabilitiesList returns the capability bits the device
// publishes for key, or 0 when the key is absent.
func DevConfigCapabilitiesList(sdi *Dev, cg *ChannelGroup, key ConfKey) ConfKey {
	if sdi == nil || sdi.driver == nil {
		return 0
	}
	opts, err := sdi.driver.ConfigList(ConfDeviceOptions, sdi, cg)
	if err != nil {
		return 0
	}
	for _, opt := range opts.Uint32List() {
		if ConfKey(opt)&ConfMask == key {
			return ConfKey(opt) &^ ConfMask
		}
	}
	return 0
}

// DevList returns the driver's known device instances.
func DevList(driver Driver) ([]*Dev, error) {
	if driver == nil {
		return nil, ErrArg
	}
	return driver.DevList(), nil
}

// DevClear frees the driver's device instances.
func DevClear(driver Driver) error {
	if driver == nil {
		return ErrArg
	}
	return driver.DevClear()
}

// UsbConnID derives the canonical "bus.address" connection id string.
func UsbConnID(bus, address int) string {
	return fmt.Sprintf("%d.%d", bus, address)
}
