package foundry

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Num decodes Foundry numeric fields that may arrive as JSON numbers,
// numeric strings, booleans or null.
type Num float64

func (n *Num) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == "false" {
		*n = 0
		return nil
	}
	if string(data) == "true" {
		*n = 1
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Num(parsed)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Num(f)
	return nil
}

func (n Num) Float() float64 { return float64(n) }

func (n Num) Int() int { return int(n) }

// Flag decodes Foundry boolean fields that may arrive as bools, 0/1 or null.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true":
		*f = true
	case "false", "null", "0", `""`:
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			var s string
			if err := json.Unmarshal(data, &s); err != nil {
				return err
			}
			*f = Flag(s != "" && s != "0" && !strings.EqualFold(s, "false"))
			return nil
		}
		*f = Flag(n != 0)
	}
	return nil
}

func (f Flag) Bool() bool { return bool(f) }

// Str decodes fields that may arrive as strings, numbers or null.
type Str string

func (s *Str) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Str(v)
		return nil
	}
	*s = Str(string(data))
	return nil
}

func (s Str) String() string { return string(s) }

// StringList decodes fields that may be a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var values []Str
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, v.String())
		}
		*l = out
		return nil
	}
	var v Str
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = []string{v.String()}
	return nil
}
