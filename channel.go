package otc

// ChannelType distinguishes logic from analog channels.
type ChannelType int

const (
	ChannelLogic ChannelType = 10000 + iota
	ChannelAnalog
)

// Channel is one input or output of a device. Logic channels are
// encoded according to their index in logic packets.
type Channel struct {
	sdi     *Dev
	Index   int
	Type    ChannelType
	Enabled bool
	Name    string
	priv    interface{}
}

// ChannelGroup is a named ordered set of channels of one device that
// share configuration.
type ChannelGroup struct {
	Name     string
	Channels []*Channel
	priv     interface{}
}

// ChannelNew appends a channel to the device's channel list.
func ChannelNew(sdi *Dev, index int, ctype ChannelType, enabled bool, name string) *Channel {
	ch := &Channel{
		sdi:     sdi,
		Index:   index,
		Type:    ctype,
		Enabled: enabled,
		Name:    name,
	}
	if sdi != nil {
		sdi.channels = append(sdi.channels, ch)
	}
	return ch
}

// Dev returns the device the channel belongs to.
func (ch *Channel) Dev() *Dev { return ch.sdi }

// ChannelNameSet renames the channel.
func ChannelNameSet(ch *Channel, name string) error {
	if ch == nil {
		return ErrArg
	}
	ch.Name = name
	return nil
}

// ChannelEnable sets the enabled state, propagating the change to the
// driver only when the state actually changes. If the driver rejects
// the change the previous state is restored and the driver's error
// returned.
func ChannelEnable(ch *Channel, state bool) error {
	if ch == nil {
		return ErrArg
	}
	sdi := ch.sdi
	if sdi == nil || sdi.driver == nil {
		ch.Enabled = state
		return nil
	}
	if ch.Enabled == state {
		return nil
	}
	was := ch.Enabled
	ch.Enabled = state
	if err := sdi.driver.ConfigChannelSet(sdi, ch, ChannelSetEnabled); err != nil {
		ch.Enabled = was
		return err
	}
	return nil
}

// Flags for Driver.ConfigChannelSet.
const (
	ChannelSetEnabled = 1 << iota
)

// channelsDiffer reports whether two channels differ structurally.
func channelsDiffer(a, b *Channel) bool {
	return a.Index != b.Index || a.Type != b.Type || a.Name != b.Name
}

// ChannelListsDiffer compares two channel lists structurally (names,
// types, indices). Used to detect layout changes between reloads.
func ChannelListsDiffer(l1, l2 []*Channel) bool {
	if len(l1) != len(l2) {
		return true
	}
	for i := range l1 {
		if channelsDiffer(l1[i], l2[i]) {
			return true
		}
	}
	return false
}

// ChannelGroupNew appends a named group to the device.
func ChannelGroupNew(sdi *Dev, name string, channels []*Channel) *ChannelGroup {
	cg := &ChannelGroup{Name: name, Channels: channels}
	if sdi != nil {
		sdi.groups = append(sdi.groups, cg)
	}
	return cg
}

// NextEnabledChannel returns the first enabled channel after cur in the
// device's list, wrapping around; cur itself if it is the only one.
func NextEnabledChannel(sdi *Dev, cur *Channel) *Channel {
	if sdi == nil || len(sdi.channels) == 0 {
		return nil
	}
	start := 0
	for i, ch := range sdi.channels {
		if ch == cur {
			start = i + 1
			break
		}
	}
	n := len(sdi.channels)
	for i := 0; i < n; i++ {
		ch := sdi.channels[(start+i)%n]
		if ch.Enabled {
			return ch
		}
	}
	return nil
}
