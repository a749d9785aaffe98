package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnixSeconds is a post creation time in seconds since the epoch. Reddit
// reports it as a float, so fractional and quoted values are accepted.
type UnixSeconds int64

// UnmarshalJSON truncates fractional seconds; values that are not numbers
// yield zero instead of rejecting the record.
func (u *UnixSeconds) UnmarshalJSON(data []byte) error {
	*u = 0
	if f, ok := lenientFloat(data); ok {
		*u = UnixSeconds(math.Trunc(f))
	}
	return nil
}

// Confidence is the oracle's certainty in percent, always within 0..100.
type Confidence int

// UnmarshalJSON rounds fractional values and clamps them into range.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	*c = 0
	if f, ok := lenientFloat(data); ok {
		*c = Confidence(math.Max(0, math.Min(100, math.Round(f))))
	}
	return nil
}

func lenientFloat(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}

	var n json.Number
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false
		}
		n = json.Number(strings.TrimSpace(s))
	} else {
		n = json.Number(data)
	}

	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
