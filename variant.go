package otc

// Variant is a runtime value tagged with one of the declared data
// types. Every configuration call carries its value as a Variant and is
// checked against the key's declared type before a driver sees it.
type Variant struct {
	typ DataType

	u32  uint32
	i32  int32
	u64  uint64
	str  string
	b    bool
	f    float64
	rat  Rational
	ur   [2]uint64
	fr   [2]float64
	kv   map[string]string
	mq   MQ
	mqfl MQFlag

	u32s []uint32
	u64s []uint64
	strs []string
	rats []Rational
	urs  [][2]uint64
	frs  [][2]float64
}

func Uint32Variant(v uint32) *Variant { return &Variant{typ: TUint32, u32: v} }
func Int32Variant(v int32) *Variant   { return &Variant{typ: TInt32, i32: v} }
func Uint64Variant(v uint64) *Variant { return &Variant{typ: TUint64, u64: v} }
func StringVariant(v string) *Variant { return &Variant{typ: TString, str: v} }
func BoolVariant(v bool) *Variant     { return &Variant{typ: TBool, b: v} }
func FloatVariant(v float64) *Variant { return &Variant{typ: TFloat, f: v} }

func RationalPeriodVariant(r Rational) *Variant {
	return &Variant{typ: TRationalPeriod, rat: r}
}

func RationalVoltVariant(r Rational) *Variant {
	return &Variant{typ: TRationalVolt, rat: r}
}

func KeyValueVariant(kv map[string]string) *Variant {
	return &Variant{typ: TKeyValue, kv: kv}
}

func Uint64RangeVariant(low, high uint64) *Variant {
	return &Variant{typ: TUint64Range, ur: [2]uint64{low, high}}
}

func DoubleRangeVariant(low, high float64) *Variant {
	return &Variant{typ: TDoubleRange, fr: [2]float64{low, high}}
}

func MQVariant(mq MQ, flags MQFlag) *Variant {
	return &Variant{typ: TMQ, mq: mq, mqfl: flags}
}

// List constructors, used by drivers to answer LIST requests.

func Uint32ListVariant(v []uint32) *Variant { return &Variant{typ: TUint32List, u32s: v} }
func Uint64ListVariant(v []uint64) *Variant { return &Variant{typ: TUint64List, u64s: v} }
func StringListVariant(v []string) *Variant { return &Variant{typ: TStringList, strs: v} }

func RationalListVariant(v []Rational) *Variant {
	return &Variant{typ: TRationalList, rats: v}
}

func Uint64RangeListVariant(v [][2]uint64) *Variant {
	return &Variant{typ: TUint64RangeList, urs: v}
}

func DoubleRangeListVariant(v [][2]float64) *Variant {
	return &Variant{typ: TDoubleRangeList, frs: v}
}

// Type returns the declared type tag of the variant.
func (v *Variant) Type() DataType { return v.typ }

func (v *Variant) Uint32() uint32             { return v.u32 }
func (v *Variant) Int32() int32               { return v.i32 }
func (v *Variant) Uint64() uint64             { return v.u64 }
func (v *Variant) String() string             { return v.str }
func (v *Variant) Bool() bool                 { return v.b }
func (v *Variant) Float() float64             { return v.f }
func (v *Variant) Rational() Rational         { return v.rat }
func (v *Variant) Uint64Range() (uint64, uint64) {
	return v.ur[0], v.ur[1]
}
func (v *Variant) DoubleRange() (float64, float64) {
	return v.fr[0], v.fr[1]
}
func (v *Variant) KeyValue() map[string]string { return v.kv }
func (v *Variant) MQValue() (MQ, MQFlag)       { return v.mq, v.mqfl }

func (v *Variant) Uint32List() []uint32        { return v.u32s }
func (v *Variant) Uint64List() []uint64        { return v.u64s }
func (v *Variant) StringList() []string        { return v.strs }
func (v *Variant) RationalList() []Rational    { return v.rats }
func (v *Variant) Uint64RangeList() [][2]uint64 { return v.urs }
func (v *Variant) DoubleRangeList() [][2]float64 { return v.frs }

// VariantTypeCheck verifies that value matches the declared type of
// key. No configuration call reaches a driver before this passes.
func VariantTypeCheck(key ConfKey, value *Variant) error {
	info := KeyInfoGet(KeyConfig, uint32(key))
	if info == nil {
		return ErrArg
	}
	if value == nil || value.typ != info.DataType {
		return ErrArg
	}
	switch value.typ {
	case TRationalPeriod, TRationalVolt:
		if value.rat.Q == 0 {
			return ErrArg
		}
	case TKeyValue:
		if value.kv == nil {
			return ErrArg
		}
	}
	return nil
}
