package otc

// Error is one of the closed set of status codes used throughout the
// library. Codes are stable: new kinds may be added, existing ones are
// never renumbered.
type Error int

const (
	ErrGeneric      Error = -1  // generic/unspecified error
	ErrMalloc       Error = -2  // allocation failure
	ErrArg          Error = -3  // function argument error
	ErrBug          Error = -4  // internal bug in a caller or the library
	ErrSamplerate   Error = -5  // incorrect samplerate
	ErrNA           Error = -6  // not applicable
	ErrDevClosed    Error = -7  // device is closed, but must be open
	ErrTimeout      Error = -8  // a timeout occurred
	ErrChannelGroup Error = -9  // a channel group must be specified
	ErrData         Error = -10 // data is invalid
	ErrIO           Error = -11 // input/output error
)

var errNames = map[Error]string{
	ErrGeneric:      "err",
	ErrMalloc:       "malloc",
	ErrArg:          "arg",
	ErrBug:          "bug",
	ErrSamplerate:   "samplerate",
	ErrNA:           "na",
	ErrDevClosed:    "dev_closed",
	ErrTimeout:      "timeout",
	ErrChannelGroup: "channel_group",
	ErrData:         "data",
	ErrIO:           "io",
}

var errStrings = map[Error]string{
	ErrGeneric:      "generic/unspecified error",
	ErrMalloc:       "memory allocation error",
	ErrArg:          "invalid argument",
	ErrBug:          "internal error",
	ErrSamplerate:   "invalid samplerate",
	ErrNA:           "not applicable",
	ErrDevClosed:    "device closed but should be open",
	ErrTimeout:      "timeout occurred",
	ErrChannelGroup: "no channel group specified",
	ErrData:         "data is invalid",
	ErrIO:           "input/output error",
}

func (e Error) Error() string {
	if s, ok := errStrings[e]; ok {
		return s
	}
	return "unknown error"
}

// Code returns the stable integer code of the error.
func (e Error) Code() int {
	return int(e)
}

// Name returns the stable short name of the error.
func (e Error) Name() string {
	if s, ok := errNames[e]; ok {
		return s
	}
	return "unknown"
}
