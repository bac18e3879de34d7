package otc

import (
	"encoding/binary"
	"math"
)

// AnalogEncoding describes the wire layout of the samples in an analog
// packet and the transform from raw values to the measured quantity:
// value = raw * scale + offset.
type AnalogEncoding struct {
	UnitSize  int  // size in bytes of one sample
	Signed    bool // samples are signed integers
	IsFloat   bool // samples are IEEE-754 floats
	BigEndian bool // sample byte order
	// Digits gives the significant digits after the decimal point when
	// positive, or the reversed-polarity exponent required to express
	// the value without a decimal point when negative.
	Digits       int
	DigitsExact  bool // digits derive from wire resolution
	Scale        Rational
	Offset       Rational
}

// AnalogSpec carries the digit semantics sourced from the vendor
// datasheet or device display rather than wire resolution.
type AnalogSpec struct {
	SpecDigits int
}

// AnalogMeaning ties an analog payload to what was measured on which
// channels.
type AnalogMeaning struct {
	MQ       MQ
	Unit     Unit
	MQFlags  MQFlag
	Channels []*Channel
}

// Analog is the payload of an analog data-feed packet.
type Analog struct {
	Data       []byte
	NumSamples int
	Encoding   *AnalogEncoding
	Meaning    *AnalogMeaning
	Spec       *AnalogSpec
}

// AnalogToFloat decodes every sample described by the packet's encoding
// into IEEE-754 floats, applying byte order, scale and offset. The
// output slice must hold NumSamples entries.
func AnalogToFloat(analog *Analog, out []float32) error {
	if analog == nil || analog.Encoding == nil {
		return ErrArg
	}
	enc := analog.Encoding
	if len(out) < analog.NumSamples {
		return ErrArg
	}
	if len(analog.Data) < analog.NumSamples*enc.UnitSize {
		return ErrData
	}
	var order binary.ByteOrder = binary.LittleEndian
	if enc.BigEndian {
		order = binary.BigEndian
	}
	scale := enc.Scale.Float()
	offset := enc.Offset.Float()
	if enc.Scale.Q == 0 {
		scale = 1
	}
	if enc.Offset.Q == 0 {
		offset = 0
	}
	for i := 0; i < analog.NumSamples; i++ {
		b := analog.Data[i*enc.UnitSize : (i+1)*enc.UnitSize]
		var raw float64
		switch {
		case enc.IsFloat && enc.UnitSize == 4:
			raw = float64(math.Float32frombits(order.Uint32(b)))
		case enc.IsFloat && enc.UnitSize == 8:
			raw = math.Float64frombits(order.Uint64(b))
		case enc.IsFloat:
			return ErrData
		case enc.UnitSize == 1 && enc.Signed:
			raw = float64(int8(b[0]))
		case enc.UnitSize == 1:
			raw = float64(b[0])
		case enc.UnitSize == 2 && enc.Signed:
			raw = float64(int16(order.Uint16(b)))
		case enc.UnitSize == 2:
			raw = float64(order.Uint16(b))
		case enc.UnitSize == 4 && enc.Signed:
			raw = float64(int32(order.Uint32(b)))
		case enc.UnitSize == 4:
			raw = float64(order.Uint32(b))
		case enc.UnitSize == 8 && enc.Signed:
			raw = float64(int64(order.Uint64(b)))
		case enc.UnitSize == 8:
			raw = float64(order.Uint64(b))
		default:
			return ErrData
		}
		out[i] = float32(raw*scale + offset)
	}
	return nil
}

// A2LThreshold converts decoded analog samples to logic: one output
// byte per sample, 1 when the sample is at or above threshold.
func A2LThreshold(analog *Analog, threshold float64, out []byte) error {
	if len(out) < analog.NumSamples {
		return ErrArg
	}
	f := make([]float32, analog.NumSamples)
	if err := AnalogToFloat(analog, f); err != nil {
		return err
	}
	for i, v := range f {
		if float64(v) >= threshold {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
	return nil
}

// A2LSchmittTrigger converts analog samples to logic with hysteresis.
// state holds one byte per channel (0 low, 1 high) and is updated on
// every crossing of hiThr or loThr.
func A2LSchmittTrigger(analog *Analog, loThr, hiThr float64, state *byte, out []byte) error {
	if state == nil || len(out) < analog.NumSamples {
		return ErrArg
	}
	f := make([]float32, analog.NumSamples)
	if err := AnalogToFloat(analog, f); err != nil {
		return err
	}
	for i, v := range f {
		if float64(v) >= hiThr {
			*state = 1
		} else if float64(v) < loThr {
			*state = 0
		}
		out[i] = *state
	}
	return nil
}
