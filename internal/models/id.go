package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// ID references another record from a request body. Form selects post their
// values as strings, so a JSON number, a numeric string and "" are all
// accepted; "" decodes to zero and Normalize turns that into absent.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}

	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*id = 0
			return nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: strconv.Quote(s), Type: reflect.TypeOf(ID(0))}
	}
	*id = ID(n)
	return nil
}

// Value implements driver.Valuer.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

func (id ID) Int64() int64 {
	return int64(id)
}

// IDPtr converts an optional entity id into a request id.
func IDPtr(v *int64) *ID {
	if v == nil {
		return nil
	}
	id := ID(*v)
	return &id
}

func zeroIDToNil(id *ID) *ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
