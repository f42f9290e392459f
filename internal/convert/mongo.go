// Package convert maps backend wire shapes to domain models and back.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

var null = []byte("null")

// ObjectID is an identifier that arrives as "X", {"$oid":"X"} or a bare number.
type ObjectID struct {
	Value   string
	Wrapped bool // marshal as {"$oid": Value}
}

// Oid returns an id that marshals in the Mongo extended form.
func Oid(v string) *ObjectID { return &ObjectID{Value: v, Wrapped: true} }

// PlainID returns an id that marshals as a bare string.
func PlainID(v string) *ObjectID { return &ObjectID{Value: v} }

type oidWire struct {
	Oid string `json:"$oid"`
}

// UnmarshalJSON accepts every encoding the backends emit.
func (o *ObjectID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, null) {
		*o = ObjectID{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = ObjectID{Value: s}
	case '{':
		var w oidWire
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*o = ObjectID{Value: w.Oid, Wrapped: true}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("object id: %w", err)
		}
		*o = ObjectID{Value: n.String()}
	}
	return nil
}

// MarshalJSON writes the id in the form it was built with.
func (o ObjectID) MarshalJSON() ([]byte, error) {
	if o.Wrapped {
		return json.Marshal(oidWire{Oid: o.Value})
	}
	return json.Marshal(o.Value)
}

// ID returns the first non-empty value, "" when none.
func ID(ids ...*ObjectID) string {
	for _, id := range ids {
		if id != nil && id.Value != "" {
			return id.Value
		}
	}
	return ""
}

// MongoDate is a timestamp that arrives as an ISO string or {"$date": ...}.
type MongoDate struct {
	Time    time.Time
	Wrapped bool // marshal as {"$date": iso}
}

// Date returns a date that marshals in the Mongo extended form.
func Date(t time.Time) *MongoDate { return &MongoDate{Time: t, Wrapped: true} }

// PlainDate returns a date that marshals as an ISO string.
func PlainDate(t time.Time) *MongoDate { return &MongoDate{Time: t} }

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) time.Time {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// UnmarshalJSON never fails on an unrecognised value; it yields the zero time.
func (d *MongoDate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*d = MongoDate{}
	if len(b) == 0 || bytes.Equal(b, null) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d.Time = parseDate(s)
	case '{':
		var w struct {
			Date json.RawMessage `json:"$date"`
		}
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		d.Wrapped = true
		d.Time = parseDateValue(w.Date)
	default:
		d.Time = parseDateValue(b)
	}
	return nil
}

// parseDateValue handles the inner $date value: iso string, millis, or {"$numberLong": "..."}.
func parseDateValue(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return time.Time{}
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return time.Time{}
		}
		return parseDate(s)
	case '{':
		var nl struct {
			NumberLong string `json:"$numberLong"`
		}
		if json.Unmarshal(raw, &nl) != nil {
			return time.Time{}
		}
		ms, err := strconv.ParseInt(nl.NumberLong, 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	default:
		var ms json.Number
		if json.Unmarshal(raw, &ms) != nil {
			return time.Time{}
		}
		n, err := ms.Int64()
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(n).UTC()
	}
}

// MarshalJSON writes the date in the form it was built with.
func (d MongoDate) MarshalJSON() ([]byte, error) {
	iso := d.Time.UTC().Format(time.RFC3339)
	if d.Wrapped {
		return json.Marshal(map[string]string{"$date": iso})
	}
	return json.Marshal(iso)
}

// Time returns the first non-zero date, the zero time when none.
func Time(dates ...*MongoDate) time.Time {
	for _, d := range dates {
		if d != nil && !d.Time.IsZero() {
			return d.Time
		}
	}
	return time.Time{}
}
