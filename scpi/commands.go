package scpi

import (
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

// CommandID indexes a driver's command table. The set is fixed;
// drivers supply the strings.
type CommandID int

const (
	CmdGetTimebase CommandID = 1 + iota
	CmdSetTimebase
	CmdGetHorizontalDiv
	CmdGetVerticalScale
	CmdSetVerticalScale
	CmdGetTriggerSource
	CmdSetTriggerSource
	CmdGetTriggerSlope
	CmdSetTriggerSlope
	CmdGetTriggerPattern
	CmdSetTriggerPattern
	CmdGetHighResolution
	CmdSetHighResolution
	CmdGetPeakDetection
	CmdSetPeakDetection
	CmdGetCoupling
	CmdSetCoupling
	CmdGetHorizTriggerPos
	CmdSetHorizTriggerPos
	CmdGetAnalogChanState
	CmdSetAnalogChanState
	CmdGetDigChanState
	CmdSetDigChanState
	CmdGetVerticalOffset
	CmdGetDigPodState
	CmdSetDigPodState
	CmdGetAnalogData
	CmdGetDigData
	CmdGetSampleRate
	CmdGetProbeUnit
	CmdGetDigPodThreshold
	CmdSetDigPodThreshold
	CmdGetDigPodUserThreshold
	CmdSetDigPodUserThreshold
	// CmdSelectChannel is the per-driver channel-select command used
	// to scope the following command to one channel.
	CmdSelectChannel
)

// Command binds one command id to the driver's command string. Strings
// may contain printf-style conversions for scalar substitution.
type Command struct {
	ID     CommandID
	String string
}

func lookupCommand(cmds []Command, id CommandID) (string, bool) {
	for _, c := range cmds {
		if c.ID == id {
			return c.String, true
		}
	}
	return "", false
}

const slowChannelSelectDelay = 100 * time.Millisecond

// selectChannel prepends the driver's channel-select command when the
// operation is scoped to a channel. The device may rewrite the channel
// name, and slow instruments get a settle delay.
func (d *Dev) selectChannel(cmds []Command, channelName string) error {
	if channelName == "" {
		return nil
	}
	sel, ok := lookupCommand(cmds, CmdSelectChannel)
	if !ok {
		return nil
	}
	name := channelName
	if d.ActualChannelName != "" {
		name = d.ActualChannelName
	}
	if err := d.Send(sel, name); err != nil {
		return err
	}
	if d.Quirks&QuirkSlowChannelSelect != 0 {
		time.Sleep(slowChannelSelectDelay)
	}
	return nil
}

// Cmd looks id up in the driver's command table, optionally scopes it
// to a channel, substitutes args and sends the result.
func (d *Dev) Cmd(cmds []Command, channelName string, id CommandID, args ...interface{}) error {
	format, ok := lookupCommand(cmds, id)
	if !ok {
		logErr(d, "no command for id %d", id)
		return otc.ErrNA
	}
	if err := d.selectChannel(cmds, channelName); err != nil {
		return err
	}
	return d.Send(format, args...)
}

// CmdResp behaves like Cmd and collects the response.
func (d *Dev) CmdResp(cmds []Command, channelName string, id CommandID, args ...interface{}) (string, error) {
	format, ok := lookupCommand(cmds, id)
	if !ok {
		logErr(d, "no command for id %d", id)
		return "", otc.ErrNA
	}
	if err := d.selectChannel(cmds, channelName); err != nil {
		return "", err
	}
	return d.GetString(format, args...)
}
