package scpi

import (
	"math"
	"strconv"
	"strings"
	"time"

	otc "github.com/opentracelab/opentracecapture"
)

// GetString runs one request/response exchange and returns the trimmed
// response. All composite helpers serialize on the per-device mutex so
// that at most one exchange is in flight per device.
func (d *Dev) GetString(format string, args ...interface{}) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.send(format, args...); err != nil {
		return "", err
	}
	resp, err := d.readResponse()
	if err != nil {
		return "", err
	}
	return trimResponse(resp), nil
}

// GetBool queries and parses a boolean response.
func (d *Dev) GetBool(format string, args ...interface{}) (bool, error) {
	resp, err := d.GetString(format, args...)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(resp) {
	case "1", "on", "true", "yes":
		return true, nil
	case "0", "off", "false", "no":
		return false, nil
	}
	logErr(d, "invalid boolean response: %q", resp)
	return false, otc.ErrData
}

// GetInt queries and parses an integer response.
func (d *Dev) GetInt(format string, args ...interface{}) (int, error) {
	resp, err := d.GetString(format, args...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(resp)
	if err != nil {
		logErr(d, "invalid integer response: %q", resp)
		return 0, otc.ErrData
	}
	return n, nil
}

// parseFloat accepts INF/NAN spellings and applies the device's
// infinity limit.
func (d *Dev) parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, otc.ErrData
	}
	if d.InfinityLimit > 0 && math.Abs(v) >= d.InfinityLimit {
		return math.Inf(int(math.Copysign(1, v))), nil
	}
	return v, nil
}

// GetFloat queries and parses a single-precision float response.
func (d *Dev) GetFloat(format string, args ...interface{}) (float32, error) {
	v, err := d.GetDouble(format, args...)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

// GetDouble queries and parses a double-precision float response.
func (d *Dev) GetDouble(format string, args ...interface{}) (float64, error) {
	resp, err := d.GetString(format, args...)
	if err != nil {
		return 0, err
	}
	v, err := d.parseFloat(resp)
	if err != nil {
		logErr(d, "invalid float response: %q", resp)
		return 0, otc.ErrData
	}
	return v, nil
}

// GetFloatV queries and parses a comma-separated decimal array.
func (d *Dev) GetFloatV(format string, args ...interface{}) ([]float64, error) {
	resp, err := d.GetString(format, args...)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(resp, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := d.parseFloat(strings.TrimSpace(p))
		if err != nil {
			logErr(d, "invalid float in array: %q", p)
			return nil, otc.ErrData
		}
		out = append(out, v)
	}
	return out, nil
}

// GetUint8V queries and parses a comma-separated byte array.
func (d *Dev) GetUint8V(format string, args ...interface{}) ([]uint8, error) {
	resp, err := d.GetString(format, args...)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(resp, ",")
	out := make([]uint8, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			logErr(d, "invalid byte in array: %q", p)
			return nil, otc.ErrData
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

// GetData runs one exchange and returns the raw, untrimmed response.
func (d *Dev) GetData(format string, args ...interface{}) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.send(format, args...); err != nil {
		return nil, err
	}
	resp, err := d.readResponse()
	if err != nil {
		return nil, err
	}
	return []byte(resp), nil
}

// GetBlock queries and parses an IEEE-488.2 definite-length block:
// '#', one digit d, d decimal digits giving the byte count N, N bytes
// of payload, one trailing terminator byte. Partial headers across
// read calls are buffered.
func (d *Dev) GetBlock(format string, args ...interface{}) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.send(format, args...); err != nil {
		return nil, err
	}
	if err := d.t.ReadBegin(); err != nil {
		return nil, err
	}
	r := blockReader{d: d}
	return r.read()
}

// blockReader drives the definite-length block state machine over the
// transport's ReadData.
type blockReader struct {
	d   *Dev
	buf []byte
}

func (r *blockReader) fill() error {
	tmp := make([]byte, 1024)
	n, err := r.d.t.ReadData(tmp)
	if err != nil {
		return err
	}
	r.buf = append(r.buf, tmp[:n]...)
	return nil
}

// next returns the next n bytes, reading more as needed.
func (r *blockReader) next(n int) ([]byte, error) {
	deadline := time.Now().Add(r.d.ReadTimeout)
	for len(r.buf) < n {
		if time.Now().After(deadline) {
			return nil, otc.ErrTimeout
		}
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out, nil
}

func (r *blockReader) read() ([]byte, error) {
	// Skip anything before the '#' marker.
	for {
		b, err := r.next(1)
		if err != nil {
			return nil, err
		}
		if b[0] == '#' {
			break
		}
	}
	dig, err := r.next(1)
	if err != nil {
		return nil, err
	}
	if dig[0] < '1' || dig[0] > '9' {
		logErr(r.d, "invalid block length digit %q", dig[0])
		return nil, otc.ErrData
	}
	nd := int(dig[0] - '0')
	lenDigits, err := r.next(nd)
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(string(lenDigits))
	if err != nil {
		logErr(r.d, "invalid block length %q", lenDigits)
		return nil, otc.ErrData
	}
	payload, err := r.next(count)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), payload...)
	// Consume the trailing terminator byte.
	if _, err := r.next(1); err != nil && err != otc.ErrTimeout {
		return nil, err
	}
	return out, nil
}
