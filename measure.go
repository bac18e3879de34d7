package otc

// MQ is a measured quantity.
type MQ uint32

const (
	MQVoltage MQ = 10000 + iota
	MQCurrent
	MQResistance
	MQCapacitance
	MQTemperature
	MQFrequency
	MQDutyCycle
	MQContinuity
	MQPulseWidth
	MQConductance
	MQPower
	MQGain
	MQSoundPressureLevel
	MQCarbonMonoxide
	MQRelativeHumidity
	MQTime
	MQWindSpeed
	MQPressure
	MQParallelInductance
	MQParallelCapacitance
	MQParallelResistance
	MQSeriesInductance
	MQSeriesCapacitance
	MQSeriesResistance
	MQDissipationFactor
	MQQualityFactor
	MQPhaseAngle
	MQDifference
	MQCount
	MQPowerFactor
	MQApparentPower
	MQMass
	MQHarmonicRatio
	MQEnergy
	MQElectricCharge
)

// Unit is the unit a measured value is expressed in.
type Unit uint32

const (
	UnitVolt Unit = 10000 + iota
	UnitAmpere
	UnitOhm
	UnitFarad
	UnitKelvin
	UnitCelsius
	UnitFahrenheit
	UnitHertz
	UnitPercentage
	UnitBoolean
	UnitSecond
	UnitSiemens
	UnitDecibelMW
	UnitDecibelVolt
	UnitUnitless
	UnitDecibelSPL
	UnitConcentration
	UnitRevolutionsPerMinute
	UnitVoltAmpere
	UnitWatt
	UnitWattHour
	UnitMeterSecond
	UnitHectopascal
	UnitHumidity293K
	UnitDegree
	UnitHenry
	UnitGram
	UnitCarat
	UnitOunce
	UnitTroyOunce
	UnitPound
	UnitPennyweight
	UnitGrain
	UnitTael
	UnitMomme
	UnitTola
	UnitPiece
	UnitJoule
	UnitCoulomb
	UnitAmpereHour
	UnitDram
	UnitGrammage
)

// MQFlag qualifies how a quantity was measured. Flags combine as a bit
// mask.
type MQFlag uint64

const (
	MQFlagAC               MQFlag = 0x01
	MQFlagDC               MQFlag = 0x02
	MQFlagRMS              MQFlag = 0x04
	MQFlagDiode            MQFlag = 0x08
	MQFlagHold             MQFlag = 0x10
	MQFlagMax              MQFlag = 0x20
	MQFlagMin              MQFlag = 0x40
	MQFlagAutorange        MQFlag = 0x80
	MQFlagRelative         MQFlag = 0x100
	MQFlagSplFreqWeightA   MQFlag = 0x200
	MQFlagSplFreqWeightC   MQFlag = 0x400
	MQFlagSplFreqWeightZ   MQFlag = 0x800
	MQFlagSplFreqWeightFlat MQFlag = 0x1000
	MQFlagSplTimeWeightS   MQFlag = 0x2000
	MQFlagSplTimeWeightF   MQFlag = 0x4000
	MQFlagSplLAT           MQFlag = 0x8000
	MQFlagSplPctOverAlarm  MQFlag = 0x10000
	MQFlagDuration         MQFlag = 0x20000
	MQFlagAvg              MQFlag = 0x40000
	MQFlagReference        MQFlag = 0x80000
	MQFlagUnstable         MQFlag = 0x100000
	MQFlagFourWire         MQFlag = 0x200000
)
