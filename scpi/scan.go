package scpi

import (
	"strings"

	otc "github.com/opentracelab/opentracecapture"
)

// NewTransport builds the backend matching a resource string:
//
//	libgpib/gpib0,12      GPIB board-device
//	tcp-raw/host:port     plain socket
//	tcp-rigol/host:port   Rigol length-framed socket
//	usbtmc/bus.address    USB TMC class device
//	vxi/host              VXI-11 core channel
//	/dev/ttyUSB0          serial port (with optional serialcomm)
func NewTransport(resource, serialcomm string) (TransportLayer, Transport, error) {
	switch {
	case strings.HasPrefix(resource, "libgpib/"):
		return TransportGPIB, NewGPIB(strings.TrimPrefix(resource, "libgpib/")), nil
	case strings.HasPrefix(resource, "tcp-raw/"):
		return TransportRawTCP, NewTCP(strings.TrimPrefix(resource, "tcp-raw/")), nil
	case strings.HasPrefix(resource, "tcp-rigol/"):
		return TransportRigolTCP, NewRigolTCP(strings.TrimPrefix(resource, "tcp-rigol/")), nil
	case strings.HasPrefix(resource, "usbtmc/"):
		return TransportUSBTMC, NewUSBTMC(strings.TrimPrefix(resource, "usbtmc/")), nil
	case strings.HasPrefix(resource, "vxi/"):
		return TransportVXI, NewVXI(strings.TrimPrefix(resource, "vxi/")), nil
	case serialResource(resource):
		return TransportSerial, NewSerial(resource, serialcomm), nil
	}
	otc.Log(otc.LogErr, "scpi: unrecognised resource %q", resource)
	return 0, nil, otc.ErrArg
}

// ProbeFunc turns an identified SCPI endpoint into a device instance,
// or returns nil when the instrument is not one of the driver's.
type ProbeFunc func(dev *Dev, info *HwInfo) *otc.Dev

// Scan probes the resources named by the scan options, plus every
// enumerable USBTMC endpoint when no resource was forced, and returns
// the devices the driver's probe accepted.
func Scan(options []otc.ConfigItem, probe ProbeFunc) ([]*otc.Dev, error) {
	var resources []string
	serialcomm := ""
	for _, opt := range options {
		switch opt.Key {
		case otc.ConfConn:
			resources = append(resources, opt.Value.String())
		case otc.ConfSerialComm:
			serialcomm = opt.Value.String()
		}
	}
	if len(resources) == 0 {
		ids, err := ScanUSBTMC()
		if err == nil {
			for _, id := range ids {
				resources = append(resources, "usbtmc/"+id)
			}
		}
	}

	var found []*otc.Dev
	for _, resource := range resources {
		layer, t, err := NewTransport(resource, serialcomm)
		if err != nil {
			continue
		}
		dev := NewDev(layer, t)
		if err := dev.Open(); err != nil {
			continue
		}
		info, err := dev.GetHwID()
		if err != nil {
			otc.Log(otc.LogInfo, "scpi: no *IDN? response from %s", resource)
			dev.Close()
			continue
		}
		otc.Log(otc.LogDbg, "scpi: %s identifies as %s %s", resource,
			info.Manufacturer, info.Model)
		sdi := probe(dev, info)
		if sdi == nil {
			dev.Close()
			continue
		}
		found = append(found, sdi)
	}
	return found, nil
}
