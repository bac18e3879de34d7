package otc

// DataType declares the variant type a configuration key carries.
type DataType int

const (
	TUint64 DataType = 10000 + iota
	TString
	TBool
	TFloat
	TRationalPeriod
	TRationalVolt
	TKeyValue
	TUint64Range
	TDoubleRange
	TInt32
	TMQ
	TUint32

	// Additive list kinds used by LIST results only; never valid for SET.
	TUint32List
	TUint64List
	TStringList
	TRationalList
	TUint64RangeList
	TDoubleRangeList
)

// ConfKey identifies one key in the closed configuration namespace.
// The upper bits of a key appearing in a driver's options list carry
// the per-call capability flags.
type ConfKey uint32

// Configuration capabilities, stored in the top bits of option-list
// entries.
const (
	CapGet  ConfKey = 1 << 31 // value can be read
	CapSet  ConfKey = 1 << 30 // value can be written
	CapList ConfKey = 1 << 29 // possible values can be enumerated
	// ConfMask strips the capability bits off an option-list entry.
	ConfMask ConfKey = 0x1fffffff
)

// Device class keys.
const (
	ConfLogicAnalyzer ConfKey = 10000 + iota
	ConfOscilloscope
	ConfMultimeter
	ConfDemoDev
	ConfSoundLevelMeter
	ConfThermometer
	ConfHygrometer
	ConfEnergyMeter
	ConfDemodulator
	ConfPowerSupply
	ConfLCRMeter
	ConfElectronicLoad
	ConfScale
	ConfSignalGenerator
	ConfPowerMeter
	ConfMultiplexer
	ConfDelayGenerator
	ConfFrequencyCounter
)

// Driver scan option keys.
const (
	ConfConn ConfKey = 20000 + iota
	ConfSerialComm
	ConfModbusAddr
	ConfForceDetect
	ConfProbeNames
)

// Device and acquisition configuration keys.
const (
	ConfSamplerate ConfKey = 30000 + iota
	ConfCaptureRatio
	ConfPatternMode
	ConfRLE
	ConfTriggerSlope
	ConfAveraging
	ConfAvgSamples
	ConfTriggerSource
	ConfHorizTriggerPos
	ConfBufferSize
	ConfTimebase
	ConfFilter
	ConfVDiv
	ConfCoupling
	ConfTriggerMatch
	ConfSampleInterval
	ConfNumHDiv
	ConfNumVDiv
	ConfSplWeightFreq
	ConfSplWeightTime
	ConfSplMeasurementRange
	ConfHoldMax
	ConfHoldMin
	ConfVoltageThreshold
	ConfExternalClock
	ConfSwap
	ConfCenterFrequency
	ConfNumLogicChannels
	ConfNumAnalogChannels
	ConfVoltage
	ConfVoltageTarget
	ConfCurrent
	ConfCurrentLimit
	ConfEnabled
	ConfChannelConfig
	ConfOverVoltageProtectionEnabled
	ConfOverVoltageProtectionActive
	ConfOverVoltageProtectionThreshold
	ConfOverCurrentProtectionEnabled
	ConfOverCurrentProtectionActive
	ConfOverCurrentProtectionThreshold
	ConfClockEdge
	ConfAmplitude
	ConfRegulation
	ConfOverTemperatureProtection
	ConfOutputFrequency
	ConfOutputFrequencyTarget
	ConfMeasuredQuantity
	ConfEquivCircuitModel
	ConfOverTemperatureProtectionActive
	ConfUnderVoltageCondition
	ConfUnderVoltageConditionActive
	ConfUnderVoltageConditionThreshold
	ConfTriggerLevel
	ConfExternalClockSource
	ConfOffset
	ConfTriggerPattern
	ConfHighResolution
	ConfPeakDetection
	ConfLogicThreshold
	ConfLogicThresholdCustom
	ConfRange
	ConfDigits
	ConfPhase
	ConfDutyCycle
	ConfPower
	ConfPowerTarget
	ConfResistanceTarget
	ConfOverCurrentProtectionDelay
	ConfInverted
	ConfOverPowerProtectionEnabled
	ConfOverPowerProtectionActive
	ConfOverPowerProtectionThreshold
	ConfResistance
	ConfGateTime
)

// Special-purpose keys.
const (
	ConfSessionFile ConfKey = 40000 + iota
	ConfCaptureFile
	ConfCaptureUnitSize
	ConfPowerOff
	ConfDataSource
	ConfProbeFactor
	ConfADCPowerlineCycles
)

// Acquisition mode keys.
const (
	ConfLimitMsec ConfKey = 50000 + iota
	ConfLimitSamples
	ConfLimitFrames
	ConfContinuous
	ConfDatalog
	ConfDeviceMode
	ConfTestMode
)

// Option-list meta keys: a driver's ConfigList answers these with the
// keys its scanner and its devices accept.
const (
	ConfScanOptions   ConfKey = 0x7fff0000
	ConfDeviceOptions ConfKey = 0x7fff0001
)

// KeyType selects one of the three static key tables.
type KeyType int

const (
	KeyConfig KeyType = iota
	KeyMQ
	KeyMQFlags
)

// KeyInfo describes one row of a key table.
type KeyInfo struct {
	Key      uint32
	DataType DataType // only meaningful for KeyConfig rows
	ID       string   // short lowercase id slug
	Name     string   // human readable name
}

var keyInfoConfig = []KeyInfo{
	{uint32(ConfLogicAnalyzer), TString, "", "Logic analyzer"},
	{uint32(ConfOscilloscope), TString, "", "Oscilloscope"},
	{uint32(ConfMultimeter), TString, "", "Multimeter"},
	{uint32(ConfDemoDev), TString, "", "Demo device"},
	{uint32(ConfSoundLevelMeter), TString, "", "Sound level meter"},
	{uint32(ConfThermometer), TString, "", "Thermometer"},
	{uint32(ConfHygrometer), TString, "", "Hygrometer"},
	{uint32(ConfEnergyMeter), TString, "", "Energy meter"},
	{uint32(ConfDemodulator), TString, "", "Demodulator"},
	{uint32(ConfPowerSupply), TString, "", "Power supply"},
	{uint32(ConfLCRMeter), TString, "", "LCR meter"},
	{uint32(ConfElectronicLoad), TString, "", "Electronic load"},
	{uint32(ConfScale), TString, "", "Scale"},
	{uint32(ConfSignalGenerator), TString, "", "Signal generator"},
	{uint32(ConfPowerMeter), TString, "", "Power meter"},
	{uint32(ConfMultiplexer), TString, "", "Multiplexer"},
	{uint32(ConfDelayGenerator), TString, "", "Delay generator"},
	{uint32(ConfFrequencyCounter), TString, "", "Frequency counter"},

	{uint32(ConfConn), TString, "conn", "Connection"},
	{uint32(ConfSerialComm), TString, "serialcomm", "Serial communication"},
	{uint32(ConfModbusAddr), TUint64, "modbusaddr", "Modbus slave address"},
	{uint32(ConfForceDetect), TString, "force_detect", "Forced detection"},
	{uint32(ConfProbeNames), TString, "probe_names", "Names of device's probes"},

	{uint32(ConfSamplerate), TUint64, "samplerate", "Sample rate"},
	{uint32(ConfCaptureRatio), TUint64, "captureratio", "Pre-trigger capture ratio"},
	{uint32(ConfPatternMode), TString, "pattern", "Pattern"},
	{uint32(ConfRLE), TBool, "rle", "Run length encoding"},
	{uint32(ConfTriggerSlope), TString, "triggerslope", "Trigger slope"},
	{uint32(ConfAveraging), TBool, "averaging", "Averaging"},
	{uint32(ConfAvgSamples), TUint64, "avg_samples", "Number of samples to average over"},
	{uint32(ConfTriggerSource), TString, "triggersource", "Trigger source"},
	{uint32(ConfHorizTriggerPos), TFloat, "horiz_triggerpos", "Horizontal trigger position"},
	{uint32(ConfBufferSize), TUint64, "buffersize", "Buffer size"},
	{uint32(ConfTimebase), TRationalPeriod, "timebase", "Time base"},
	{uint32(ConfFilter), TBool, "filter", "Filter"},
	{uint32(ConfVDiv), TRationalVolt, "vdiv", "Volts/div"},
	{uint32(ConfCoupling), TString, "coupling", "Coupling"},
	{uint32(ConfTriggerMatch), TInt32, "triggermatch", "Trigger matches"},
	{uint32(ConfSampleInterval), TUint64, "sample_interval", "Sample interval"},
	{uint32(ConfNumHDiv), TInt32, "num_hdiv", "Number of horizontal divisions"},
	{uint32(ConfNumVDiv), TInt32, "num_vdiv", "Number of vertical divisions"},
	{uint32(ConfSplWeightFreq), TString, "spl_weight_freq", "Sound pressure level frequency weighting"},
	{uint32(ConfSplWeightTime), TString, "spl_weight_time", "Sound pressure level time weighting"},
	{uint32(ConfSplMeasurementRange), TUint64Range, "spl_meas_range", "Sound pressure level measurement range"},
	{uint32(ConfHoldMax), TBool, "hold_max", "Hold max"},
	{uint32(ConfHoldMin), TBool, "hold_min", "Hold min"},
	{uint32(ConfVoltageThreshold), TDoubleRange, "voltage_threshold", "Voltage threshold"},
	{uint32(ConfExternalClock), TBool, "external_clock", "External clock mode"},
	{uint32(ConfSwap), TBool, "swap", "Swap channel order"},
	{uint32(ConfCenterFrequency), TUint64, "center_frequency", "Center frequency"},
	{uint32(ConfNumLogicChannels), TInt32, "logic_channels", "Number of logic channels"},
	{uint32(ConfNumAnalogChannels), TInt32, "analog_channels", "Number of analog channels"},
	{uint32(ConfVoltage), TFloat, "voltage", "Current voltage"},
	{uint32(ConfVoltageTarget), TFloat, "voltage_target", "Voltage target"},
	{uint32(ConfCurrent), TFloat, "current", "Current current"},
	{uint32(ConfCurrentLimit), TFloat, "current_limit", "Current limit"},
	{uint32(ConfEnabled), TBool, "enabled", "Channel enabled"},
	{uint32(ConfChannelConfig), TString, "channel_config", "Channel modes"},
	{uint32(ConfOverVoltageProtectionEnabled), TBool, "ovp_enabled", "Over-voltage protection enabled"},
	{uint32(ConfOverVoltageProtectionActive), TBool, "ovp_active", "Over-voltage protection active"},
	{uint32(ConfOverVoltageProtectionThreshold), TFloat, "ovp_threshold", "Over-voltage protection threshold"},
	{uint32(ConfOverCurrentProtectionEnabled), TBool, "ocp_enabled", "Over-current protection enabled"},
	{uint32(ConfOverCurrentProtectionActive), TBool, "ocp_active", "Over-current protection active"},
	{uint32(ConfOverCurrentProtectionThreshold), TFloat, "ocp_threshold", "Over-current protection threshold"},
	{uint32(ConfClockEdge), TString, "clock_edge", "Clock edge"},
	{uint32(ConfAmplitude), TFloat, "amplitude", "Amplitude"},
	{uint32(ConfRegulation), TString, "regulation", "Channel regulation"},
	{uint32(ConfOverTemperatureProtection), TBool, "otp", "Over-temperature protection"},
	{uint32(ConfOutputFrequency), TFloat, "output_frequency", "Output frequency"},
	{uint32(ConfOutputFrequencyTarget), TFloat, "output_frequency_target", "Output frequency target"},
	{uint32(ConfMeasuredQuantity), TMQ, "measured_quantity", "Measured quantity"},
	{uint32(ConfEquivCircuitModel), TString, "equiv_circuit_model", "Equivalent circuit model"},
	{uint32(ConfOverTemperatureProtectionActive), TBool, "otp_active", "Over-temperature protection active"},
	{uint32(ConfUnderVoltageCondition), TBool, "uvc", "Under-voltage condition"},
	{uint32(ConfUnderVoltageConditionActive), TBool, "uvc_active", "Under-voltage condition active"},
	{uint32(ConfUnderVoltageConditionThreshold), TFloat, "uvc_threshold", "Under-voltage condition threshold"},
	{uint32(ConfTriggerLevel), TFloat, "triggerlevel", "Trigger level"},
	{uint32(ConfExternalClockSource), TString, "external_clock_source", "External clock source"},
	{uint32(ConfOffset), TFloat, "offset", "Offset"},
	{uint32(ConfTriggerPattern), TString, "triggerpattern", "Trigger pattern"},
	{uint32(ConfHighResolution), TBool, "highresolution", "High resolution"},
	{uint32(ConfPeakDetection), TBool, "peakdetection", "Peak detection"},
	{uint32(ConfLogicThreshold), TString, "logic_threshold", "Logic threshold (predefined)"},
	{uint32(ConfLogicThresholdCustom), TFloat, "logic_threshold_custom", "Logic threshold (custom)"},
	{uint32(ConfRange), TString, "range", "Range"},
	{uint32(ConfDigits), TString, "digits", "Digits"},
	{uint32(ConfPhase), TFloat, "phase", "Phase"},
	{uint32(ConfDutyCycle), TFloat, "output_duty_cycle", "Duty cycle"},
	{uint32(ConfPower), TFloat, "power", "Power"},
	{uint32(ConfPowerTarget), TFloat, "power_target", "Power target"},
	{uint32(ConfResistanceTarget), TFloat, "resistance_target", "Resistance target"},
	{uint32(ConfOverCurrentProtectionDelay), TFloat, "ocp_delay", "Over-current protection delay"},
	{uint32(ConfInverted), TBool, "inverted", "Signal inverted"},
	{uint32(ConfOverPowerProtectionEnabled), TBool, "opp_enabled", "Over-power protection enabled"},
	{uint32(ConfOverPowerProtectionActive), TBool, "opp_active", "Over-power protection active"},
	{uint32(ConfOverPowerProtectionThreshold), TFloat, "opp_threshold", "Over-power protection threshold"},
	{uint32(ConfResistance), TFloat, "resistance", "Current resistance"},
	{uint32(ConfGateTime), TRationalPeriod, "gate_time", "Gate time"},

	{uint32(ConfSessionFile), TString, "sessionfile", "Session file"},
	{uint32(ConfCaptureFile), TString, "capturefile", "Capture file"},
	{uint32(ConfCaptureUnitSize), TUint64, "capture_unitsize", "Capture unitsize"},
	{uint32(ConfPowerOff), TBool, "power_off", "Power off"},
	{uint32(ConfDataSource), TString, "data_source", "Data source"},
	{uint32(ConfProbeFactor), TUint64, "probe_factor", "Probe factor"},
	{uint32(ConfADCPowerlineCycles), TFloat, "nplc", "Number of ADC powerline cycles"},

	{uint32(ConfLimitMsec), TUint64, "limit_time", "Time limit"},
	{uint32(ConfLimitSamples), TUint64, "limit_samples", "Sample limit"},
	{uint32(ConfLimitFrames), TUint64, "limit_frames", "Frame limit"},
	{uint32(ConfContinuous), TBool, "continuous", "Continuous sampling"},
	{uint32(ConfDatalog), TBool, "datalog", "Datalog"},
	{uint32(ConfDeviceMode), TString, "device_mode", "Device mode"},
	{uint32(ConfTestMode), TString, "test_mode", "Test mode"},
}

var keyInfoMQ = []KeyInfo{
	{uint32(MQVoltage), 0, "voltage", "Voltage"},
	{uint32(MQCurrent), 0, "current", "Current"},
	{uint32(MQResistance), 0, "resistance", "Resistance"},
	{uint32(MQCapacitance), 0, "capacitance", "Capacitance"},
	{uint32(MQTemperature), 0, "temperature", "Temperature"},
	{uint32(MQFrequency), 0, "frequency", "Frequency"},
	{uint32(MQDutyCycle), 0, "duty_cycle", "Duty cycle"},
	{uint32(MQContinuity), 0, "continuity", "Continuity"},
	{uint32(MQPulseWidth), 0, "pulse_width", "Pulse width"},
	{uint32(MQConductance), 0, "conductance", "Conductance"},
	{uint32(MQPower), 0, "power", "Power"},
	{uint32(MQGain), 0, "gain", "Gain"},
	{uint32(MQSoundPressureLevel), 0, "spl", "Sound pressure level"},
	{uint32(MQCarbonMonoxide), 0, "co", "Carbon monoxide"},
	{uint32(MQRelativeHumidity), 0, "rh", "Relative humidity"},
	{uint32(MQTime), 0, "time", "Time"},
	{uint32(MQWindSpeed), 0, "wind_speed", "Wind speed"},
	{uint32(MQPressure), 0, "pressure", "Pressure"},
	{uint32(MQParallelInductance), 0, "parallel_inductance", "Parallel inductance"},
	{uint32(MQParallelCapacitance), 0, "parallel_capacitance", "Parallel capacitance"},
	{uint32(MQParallelResistance), 0, "parallel_resistance", "Parallel resistance"},
	{uint32(MQSeriesInductance), 0, "series_inductance", "Series inductance"},
	{uint32(MQSeriesCapacitance), 0, "series_capacitance", "Series capacitance"},
	{uint32(MQSeriesResistance), 0, "series_resistance", "Series resistance"},
	{uint32(MQDissipationFactor), 0, "dissipation_factor", "Dissipation factor"},
	{uint32(MQQualityFactor), 0, "quality_factor", "Quality factor"},
	{uint32(MQPhaseAngle), 0, "phase_angle", "Phase angle"},
	{uint32(MQDifference), 0, "difference", "Difference"},
	{uint32(MQCount), 0, "count", "Count"},
	{uint32(MQPowerFactor), 0, "power_factor", "Power factor"},
	{uint32(MQApparentPower), 0, "apparent_power", "Apparent power"},
	{uint32(MQMass), 0, "mass", "Mass"},
	{uint32(MQHarmonicRatio), 0, "harmonic_ratio", "Harmonic ratio"},
	{uint32(MQEnergy), 0, "energy", "Energy"},
	{uint32(MQElectricCharge), 0, "electric_charge", "Electric charge"},
}

var keyInfoMQFlag = []KeyInfo{
	{uint32(MQFlagAC), 0, "ac", "AC"},
	{uint32(MQFlagDC), 0, "dc", "DC"},
	{uint32(MQFlagRMS), 0, "rms", "RMS"},
	{uint32(MQFlagDiode), 0, "diode", "Diode"},
	{uint32(MQFlagHold), 0, "hold", "Hold"},
	{uint32(MQFlagMax), 0, "max", "Max"},
	{uint32(MQFlagMin), 0, "min", "Min"},
	{uint32(MQFlagAutorange), 0, "auto_range", "Auto range"},
	{uint32(MQFlagRelative), 0, "relative", "Relative"},
	{uint32(MQFlagSplFreqWeightA), 0, "spl_freq_weight_a", "SPL frequency weighting A"},
	{uint32(MQFlagSplFreqWeightC), 0, "spl_freq_weight_c", "SPL frequency weighting C"},
	{uint32(MQFlagSplFreqWeightZ), 0, "spl_freq_weight_z", "SPL frequency weighting Z"},
	{uint32(MQFlagSplFreqWeightFlat), 0, "spl_freq_weight_flat", "SPL frequency weighting flat"},
	{uint32(MQFlagSplTimeWeightS), 0, "spl_time_weight_s", "SPL time weighting S"},
	{uint32(MQFlagSplTimeWeightF), 0, "spl_time_weight_f", "SPL time weighting F"},
	{uint32(MQFlagSplLAT), 0, "spl_time_average", "SPL time-averaged (LAT)"},
	{uint32(MQFlagSplPctOverAlarm), 0, "spl_pct_over_alarm", "SPL percentage over alarm"},
	{uint32(MQFlagDuration), 0, "duration", "Duration"},
	{uint32(MQFlagAvg), 0, "average", "Average"},
	{uint32(MQFlagReference), 0, "reference", "Reference"},
	{uint32(MQFlagUnstable), 0, "unstable", "Unstable"},
	{uint32(MQFlagFourWire), 0, "four_wire", "4-wire"},
}

func keyTable(keytype KeyType) []KeyInfo {
	switch keytype {
	case KeyConfig:
		return keyInfoConfig
	case KeyMQ:
		return keyInfoMQ
	case KeyMQFlags:
		return keyInfoMQFlag
	}
	return nil
}

// KeyInfoGet looks a key up in one of the static tables. Capability
// bits on config keys are masked off before the lookup.
func KeyInfoGet(keytype KeyType, key uint32) *KeyInfo {
	table := keyTable(keytype)
	if keytype == KeyConfig {
		key &= uint32(ConfMask)
	}
	for i := range table {
		if table[i].Key == key {
			return &table[i]
		}
	}
	return nil
}

// KeyInfoIDGet looks a key up by its short id slug.
func KeyInfoIDGet(keytype KeyType, id string) *KeyInfo {
	if id == "" {
		return nil
	}
	table := keyTable(keytype)
	for i := range table {
		if table[i].ID == id {
			return &table[i]
		}
	}
	return nil
}
