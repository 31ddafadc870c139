package lektrico

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Firmware versions differ in how they encode scalars: some report numbers as
// JSON strings ("238.5"), some report flags as 0/1. The flex types below accept
// every encoding seen in the field and normalise it.

var jsonNull = []byte("null")

// flexFloat accepts a JSON number, a numeric string or null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexInt accepts an integral JSON number, a numeric string or null. Integers
// are parsed exactly; a float spelling such as "16.0" is accepted only while it
// is exactly representable.
type flexInt int

// maxExactFloat is the largest magnitude up to which every integer has an
// exact float64 representation.
const maxExactFloat = 1 << 53

func (i *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*i = 0
		return nil
	}

	var n json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*i = 0
			return nil
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	v, err := strconv.ParseInt(n.String(), 10, 64)
	switch {
	case err == nil:
		if int64(int(v)) != v {
			return fmt.Errorf("integer out of range: %s", n)
		}
		*i = flexInt(v)
		return nil
	case errors.Is(err, strconv.ErrRange):
		return fmt.Errorf("integer out of range: %s", n)
	}

	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", n.String())
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("not an integer: %v", f)
	}
	if math.Abs(f) > maxExactFloat {
		return fmt.Errorf("integer out of range: %s", n)
	}
	*i = flexInt(f)
	return nil
}

// flexBool accepts a JSON boolean, 0/1 (number or string), "true"/"false" or null.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*b = false
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("not a boolean: %s", data)
	}
	*b = flexBool(parsed)
	return nil
}

// flexFloats accepts an array of flexible numbers or a single scalar, which
// single-phase firmware reports instead of a one-element array.
type flexFloats []float64

func (fs *flexFloats) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*fs = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []flexFloat
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]float64, len(items))
		for i, v := range items {
			out[i] = float64(v)
		}
		*fs = out
		return nil
	}
	var single flexFloat
	if err := single.UnmarshalJSON(data); err != nil {
		return err
	}
	*fs = []float64{float64(single)}
	return nil
}

// flexString accepts a JSON string or a number, which some firmware uses for
// board revisions and version fields.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("not a string: %s", data)
	}
	*s = flexString(n.String())
	return nil
}
