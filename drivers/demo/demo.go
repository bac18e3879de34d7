// Package demo implements a hardware-less pattern generator driver.
// It exercises the full acquisition path: registry, typed gate,
// session timer sources and the data-feed bus.
package demo

import (
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

const (
	defaultNumLogic   = 8
	defaultNumAnalog  = 2
	defaultSamplerate = 1000000
	chunkSamples      = 64
	tickInterval      = 10 * time.Millisecond
)

// Logic patterns.
const (
	patternWalking     = "walking-ones"
	patternIncremental = "incremental"
	patternAllLow      = "all-low"
	patternAllHigh     = "all-high"
)

var patterns = []string{patternWalking, patternIncremental, patternAllLow, patternAllHigh}

var scanOpts = []uint32{
	uint32(otc.ConfNumLogicChannels),
	uint32(otc.ConfNumAnalogChannels),
}

var devOpts = []uint32{
	uint32(otc.ConfDemoDev) | uint32(otc.CapGet),
	uint32(otc.ConfSamplerate) | uint32(otc.CapGet|otc.CapSet|otc.CapList),
	uint32(otc.ConfLimitSamples) | uint32(otc.CapGet|otc.CapSet),
	uint32(otc.ConfLimitMsec) | uint32(otc.CapGet|otc.CapSet),
	uint32(otc.ConfPatternMode) | uint32(otc.CapGet|otc.CapSet|otc.CapList),
	uint32(otc.ConfAveraging) | uint32(otc.CapGet|otc.CapSet),
}

var samplerates = []uint64{1000, 10000, 100000, 1000000, 10000000}

type devState struct {
	samplerate   uint64
	limitSamples uint64
	limitMsec    uint64
	pattern      string
	averaging    bool

	sentSamples uint64
	counter     uint8
	startTime   time.Time
	running     bool
}

// Driver is the demo pattern driver.
type Driver struct {
	otc.BaseDriver
}

// New returns the driver descriptor instance.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) Name() string     { return "demo" }
func (d *Driver) LongName() string { return "Demo pattern device" }
func (d *Driver) APIVersion() int  { return 1 }

func (d *Driver) Scan(options []otc.ConfigItem) ([]*otc.Dev, error) {
	numLogic := defaultNumLogic
	numAnalog := defaultNumAnalog
	for _, opt := range options {
		switch opt.Key {
		case otc.ConfNumLogicChannels:
			numLogic = int(opt.Value.Int32())
		case otc.ConfNumAnalogChannels:
			numAnalog = int(opt.Value.Int32())
		}
	}

	sdi := otc.NewDev(d, otc.InstUser, "OpenTraceLab", "Demo device", "1.0")
	sdi.SetConnID("demo")
	sdi.SetStatus(otc.StatusInactive)
	sdi.Priv = &devState{
		samplerate:   defaultSamplerate,
		limitSamples: 0,
		pattern:      patternWalking,
	}

	var logic []*otc.Channel
	for i := 0; i < numLogic; i++ {
		ch := otc.ChannelNew(sdi, i, otc.ChannelLogic, true, logicName(i))
		logic = append(logic, ch)
	}
	if len(logic) > 0 {
		otc.ChannelGroupNew(sdi, "Logic", logic)
	}
	for i := 0; i < numAnalog; i++ {
		ch := otc.ChannelNew(sdi, numLogic+i, otc.ChannelAnalog, true, analogName(i))
		otc.ChannelGroupNew(sdi, ch.Name, []*otc.Channel{ch})
	}

	d.Devs = append(d.Devs, sdi)
	return []*otc.Dev{sdi}, nil
}

func logicName(i int) string {
	return "D" + string(rune('0'+i%10))
}

func analogName(i int) string {
	return "A" + string(rune('0'+i%10))
}

func state(sdi *otc.Dev) *devState {
	st, _ := sdi.Priv.(*devState)
	return st
}

func (d *Driver) ConfigGet(key otc.ConfKey, sdi *otc.Dev, cg *otc.ChannelGroup) (*otc.Variant, error) {
	st := state(sdi)
	if st == nil {
		return nil, otc.ErrArg
	}
	switch key {
	case otc.ConfSamplerate:
		return otc.Uint64Variant(st.samplerate), nil
	case otc.ConfLimitSamples:
		return otc.Uint64Variant(st.limitSamples), nil
	case otc.ConfLimitMsec:
		return otc.Uint64Variant(st.limitMsec), nil
	case otc.ConfPatternMode:
		return otc.StringVariant(st.pattern), nil
	case otc.ConfAveraging:
		return otc.BoolVariant(st.averaging), nil
	case otc.ConfDemoDev:
		return otc.StringVariant("demo"), nil
	}
	return nil, otc.ErrNA
}

func (d *Driver) ConfigSet(key otc.ConfKey, value *otc.Variant, sdi *otc.Dev, cg *otc.ChannelGroup) error {
	st := state(sdi)
	if st == nil {
		return otc.ErrArg
	}
	switch key {
	case otc.ConfSamplerate:
		st.samplerate = value.Uint64()
	case otc.ConfLimitSamples:
		st.limitSamples = value.Uint64()
		st.limitMsec = 0
	case otc.ConfLimitMsec:
		st.limitMsec = value.Uint64()
		st.limitSamples = 0
	case otc.ConfPatternMode:
		name := value.String()
		for _, p := range patterns {
			if p == name {
				st.pattern = name
				return nil
			}
		}
		return otc.ErrArg
	case otc.ConfAveraging:
		st.averaging = value.Bool()
	default:
		return otc.ErrNA
	}
	return nil
}

func (d *Driver) ConfigList(key otc.ConfKey, sdi *otc.Dev, cg *otc.ChannelGroup) (*otc.Variant, error) {
	switch key {
	case otc.ConfScanOptions:
		return otc.Uint32ListVariant(scanOpts), nil
	case otc.ConfDeviceOptions:
		return otc.Uint32ListVariant(devOpts), nil
	case otc.ConfSamplerate:
		return otc.Uint64ListVariant(samplerates), nil
	case otc.ConfPatternMode:
		return otc.StringListVariant(patterns), nil
	}
	return nil, otc.ErrNA
}

func (d *Driver) DevOpen(sdi *otc.Dev) error  { return nil }
func (d *Driver) DevClose(sdi *otc.Dev) error { return nil }

func (d *Driver) AcquisitionStart(sdi *otc.Dev) error {
	sess := sdi.Session()
	if sess == nil {
		return otc.ErrBug
	}
	st := state(sdi)
	if st == nil {
		return otc.ErrArg
	}
	st.sentSamples = 0
	st.counter = 0
	st.startTime = time.Now()
	st.running = true

	otc.Send(sdi, &otc.Packet{
		Type:   otc.PacketHeader,
		Header: &otc.Header{FeedVersion: 1, StartTime: st.startTime},
	})
	otc.SendMeta(sdi, otc.ConfSamplerate, otc.Uint64Variant(st.samplerate))

	return sess.SourceAdd(sdi, -1, 0, tickInterval, func(fd int, revents int, data interface{}) bool {
		return d.tick(sdi)
	}, nil)
}

func (d *Driver) AcquisitionStop(sdi *otc.Dev) error {
	st := state(sdi)
	if st == nil || !st.running {
		return nil
	}
	st.running = false
	otc.Send(sdi, &otc.Packet{Type: otc.PacketEnd})
	sess := sdi.Session()
	if sess != nil {
		sess.SourceRemove(sdi)
	}
	return nil
}

// tick emits one chunk of logic and analog samples and enforces the
// configured limits.
func (d *Driver) tick(sdi *otc.Dev) bool {
	st := state(sdi)
	if st == nil || !st.running {
		return false
	}
	if st.limitMsec > 0 {
		elapsed := time.Since(st.startTime)
		if elapsed >= time.Duration(st.limitMsec)*time.Millisecond {
			d.AcquisitionStop(sdi)
			return false
		}
	}
	n := uint64(chunkSamples)
	if st.limitSamples > 0 {
		left := st.limitSamples - st.sentSamples
		if left == 0 {
			d.AcquisitionStop(sdi)
			return false
		}
		if n > left {
			n = left
		}
	}

	logic := make([]byte, n)
	for i := range logic {
		logic[i] = d.logicSample(st)
	}
	otc.Send(sdi, &otc.Packet{
		Type:  otc.PacketLogic,
		Logic: &otc.Logic{Data: logic, UnitSize: 1},
	})

	var analogChans []*otc.Channel
	for _, ch := range sdi.Channels() {
		if ch.Type == otc.ChannelAnalog && ch.Enabled {
			analogChans = append(analogChans, ch)
		}
	}
	if len(analogChans) > 0 {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte((st.sentSamples + uint64(i)) % 200)
		}
		otc.Send(sdi, &otc.Packet{
			Type: otc.PacketAnalog,
			Analog: &otc.Analog{
				Data:       data,
				NumSamples: int(n),
				Encoding: &otc.AnalogEncoding{
					UnitSize: 1,
					Digits:   2,
					Scale:    otc.Rational{P: 1, Q: 20},
					Offset:   otc.Rational{P: -5, Q: 1},
				},
				Meaning: &otc.AnalogMeaning{
					MQ:       otc.MQVoltage,
					Unit:     otc.UnitVolt,
					MQFlags:  otc.MQFlagDC,
					Channels: analogChans,
				},
				Spec: &otc.AnalogSpec{SpecDigits: 2},
			},
		})
	}

	st.sentSamples += n
	if st.limitSamples > 0 && st.sentSamples >= st.limitSamples {
		d.AcquisitionStop(sdi)
		return false
	}
	return true
}

func (d *Driver) logicSample(st *devState) byte {
	switch st.pattern {
	case patternAllLow:
		return 0x00
	case patternAllHigh:
		return 0xff
	case patternIncremental:
		st.counter++
		return st.counter
	default:
		// Walking-ones pattern.
		st.counter++
		return 1 << (st.counter % 8)
	}
}
