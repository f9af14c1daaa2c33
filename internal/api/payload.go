package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// amount accepts a JSON number or a numeric string, since the admin UI
// sends form values as text. set is false when the field was absent, null or blank.
type amount struct {
	value int64
	set   bool
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = amount{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = amount{}
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("amount %q is not a whole number", s)
		}
		*a = amount{value: n, set: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("amount %v is not a whole number", f)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("amount %v is out of range", f)
	}
	*a = amount{value: int64(f), set: true}
	return nil
}
