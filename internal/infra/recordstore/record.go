package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"restaurant-ordering/internal/pkg/money"
)

// System fields present on every record.
const (
	FieldID      = "id"
	FieldCreated = "created"
	FieldUpdated = "updated"
)

// Record is a loosely typed document as returned by the store. Numbers
// arrive as json.Number and relations as either a scalar id or an array.
type Record map[string]any

func (r Record) ID() string {
	return r.String(FieldID)
}

func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the field as minor units, or 0 when it is missing or not numeric.
func (r Record) Int(field string) int64 {
	n, _ := money.ToMinor(r[field])
	return n
}

// IntPtr returns nil for a missing, null or non-numeric field.
func (r Record) IntPtr(field string) *int64 {
	n, ok := money.ToMinor(r[field])
	if !ok {
		return nil
	}
	return &n
}

func (r Record) Bool(field string) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// BoolOr returns def when the field is absent.
func (r Record) BoolOr(field string, def bool) bool {
	if !r.Has(field) {
		return def
	}
	return r.Bool(field)
}

// StampLayout is the fixed-width layout of the created and updated fields,
// so they sort as strings.
const StampLayout = "2006-01-02 15:04:05.000Z"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	dateLayout,
}

const dateLayout = "2006-01-02"

// Time parses a timestamp field. Empty strings and unparseable values are nil.
func (r Record) Time(field string) *time.Time {
	switch v := r[field].(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

// Until parses an inclusive upper bound. A date-only value covers that whole
// UTC day, so it resolves to the last nanosecond of the day.
func (r Record) Until(field string) *time.Time {
	t := r.Time(field)
	if t == nil {
		return nil
	}
	if s, ok := r[field].(string); ok {
		if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			return &end
		}
	}
	return t
}

// RelationID normalises a relation field: the first element of an array,
// otherwise the scalar value.
func (r Record) RelationID(field string) string {
	return relationID(r[field])
}

func relationID(v any) string {
	switch rel := v.(type) {
	case nil:
		return ""
	case string:
		return rel
	case []string:
		if len(rel) == 0 {
			return ""
		}
		return rel[0]
	case []any:
		if len(rel) == 0 {
			return ""
		}
		return relationID(rel[0])
	default:
		return fmt.Sprint(rel)
	}
}

// Decode unmarshals a nested field (an object or array) into out.
func (r Record) Decode(field string, out any) error {
	v, ok := r[field]
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), out)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with fields applied on top.
func (r Record) Merge(fields Record) Record {
	out := r.Clone()
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Normalize round-trips fields through JSON so that every store hands back
// the same shapes: json.Number, string, bool, []any and map[string]any.
func Normalize(fields Record) (Record, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, nil
}
