package otc

import "time"

// PacketType tags a data-feed packet.
type PacketType int

const (
	PacketHeader PacketType = 10000 + iota
	PacketEnd
	PacketMeta
	PacketTrigger
	PacketLogic
	PacketFrameBegin
	PacketFrameEnd
	PacketAnalog
)

var packetTypeNames = map[PacketType]string{
	PacketHeader:     "HEADER",
	PacketEnd:        "END",
	PacketMeta:       "META",
	PacketTrigger:    "TRIGGER",
	PacketLogic:      "LOGIC",
	PacketFrameBegin: "FRAME-BEGIN",
	PacketFrameEnd:   "FRAME-END",
	PacketAnalog:     "ANALOG",
}

func (t PacketType) String() string {
	if s, ok := packetTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Header is the payload of the first packet of every feed.
type Header struct {
	FeedVersion int
	StartTime   time.Time
}

// Meta carries configuration changes observed mid-feed.
type Meta struct {
	Config []ConfigItem
}

// Logic is a packed logic sample payload: bits are packed MSB-to-LSB
// across channel indices, UnitSize bytes per sample.
type Logic struct {
	Data     []byte
	UnitSize int
}

// Packet is one typed data-feed packet. Exactly one payload field
// matching Type is set; Trigger, FrameBegin, FrameEnd and End carry no
// payload.
type Packet struct {
	Type   PacketType
	Header *Header
	Meta   *Meta
	Logic  *Logic
	Analog *Analog
}

// DatafeedCallback receives every packet that survives the transform
// chain, in emission order, on the session thread.
type DatafeedCallback func(sdi *Dev, packet *Packet)

// Transform is a pluggable packet filter. Receive returns the packet
// to pass on, or nil to suppress the input.
type Transform interface {
	Receive(packet *Packet) (*Packet, error)
}

// Send routes a packet from a device through its session's transform
// chain and on to the registered callbacks.
func Send(sdi *Dev, packet *Packet) error {
	if sdi == nil || packet == nil {
		return ErrArg
	}
	sess := sdi.session
	if sess == nil {
		logErr("%s: device not in a session", sdi.connID)
		return ErrBug
	}
	logSpew("bus: received %s packet", packet.Type)
	for _, tr := range sess.transforms {
		out, err := tr.Receive(packet)
		if err != nil {
			return err
		}
		if out == nil {
			// The transform swallowed the packet.
			return nil
		}
		packet = out
	}
	for _, cb := range sess.callbacks {
		cb(sdi, packet)
	}
	return nil
}

// SendMeta emits a one-element meta packet.
func SendMeta(sdi *Dev, key ConfKey, value *Variant) error {
	if err := VariantTypeCheck(key, value); err != nil {
		return err
	}
	packet := &Packet{
		Type: PacketMeta,
		Meta: &Meta{Config: []ConfigItem{{Key: key, Value: value}}},
	}
	return Send(sdi, packet)
}

// PacketCopy deep-copies a packet: payload buffers and the encoding,
// meaning and spec sub-objects are duplicated so the copy is
// independent of the original.
func PacketCopy(packet *Packet) (*Packet, error) {
	if packet == nil {
		return nil, ErrArg
	}
	cp := &Packet{Type: packet.Type}
	switch packet.Type {
	case PacketTrigger, PacketFrameBegin, PacketFrameEnd, PacketEnd:
		// No payload.
	case PacketHeader:
		if packet.Header == nil {
			return nil, ErrArg
		}
		h := *packet.Header
		cp.Header = &h
	case PacketMeta:
		if packet.Meta == nil {
			return nil, ErrArg
		}
		m := &Meta{Config: make([]ConfigItem, len(packet.Meta.Config))}
		copy(m.Config, packet.Meta.Config)
		cp.Meta = m
	case PacketLogic:
		if packet.Logic == nil {
			return nil, ErrArg
		}
		l := &Logic{
			UnitSize: packet.Logic.UnitSize,
			Data:     append([]byte(nil), packet.Logic.Data...),
		}
		cp.Logic = l
	case PacketAnalog:
		if packet.Analog == nil {
			return nil, ErrArg
		}
		a := &Analog{
			NumSamples: packet.Analog.NumSamples,
			Data:       append([]byte(nil), packet.Analog.Data...),
		}
		if packet.Analog.Encoding != nil {
			enc := *packet.Analog.Encoding
			a.Encoding = &enc
		}
		if packet.Analog.Meaning != nil {
			m := *packet.Analog.Meaning
			m.Channels = append([]*Channel(nil), packet.Analog.Meaning.Channels...)
			a.Meaning = &m
		}
		if packet.Analog.Spec != nil {
			sp := *packet.Analog.Spec
			a.Spec = &sp
		}
		cp.Analog = a
	default:
		return nil, ErrArg
	}
	return cp, nil
}
