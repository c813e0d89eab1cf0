// Package docschema whitelists, coerces and merges the loosely typed JSON
// bodies clients send for house-scoped documents.
//
// A Schema lists the fields an entity may carry and the Kind of each. Clean
// drops unknown fields and any field whose incoming value is empty (absent,
// null or ""), so the result can be laid over a stored document with Merge:
// empty incoming values keep what is stored, everything else replaces it.
package docschema

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/validate"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/microcosm-cc/bluemonday"
)

// DateLayout is the stored form of calendar dates (startDate, dueDate).
const DateLayout = "2006-01-02"

// Kind describes how a field is coerced and validated.
type Kind int

const (
	// String is trimmed and stored as-is.
	String Kind = iota
	// Text is free text with markup stripped.
	Text
	// Email is a trimmed, lowercased, syntactically valid address.
	Email
	// StringList is an array of strings.
	StringList
	// IntList is an array of integers.
	IntList
	// Bool accepts JSON booleans and "true"/"false" strings.
	Bool
	// Number accepts JSON numbers and numeric strings.
	Number
	// Date is a YYYY-MM-DD calendar date. RFC 3339 timestamps are truncated.
	Date
	// Timestamp is an RFC 3339 instant stored as time.Time.
	Timestamp
	// Any is stored verbatim.
	Any
)

// Schema maps field names to their kinds.
type Schema map[string]Kind

// FieldError reports a field whose value could not be coerced to its kind.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// IsFieldError reports whether err is (or wraps) a *FieldError.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

var strict = bluemonday.StrictPolicy()

// IsEmpty reports whether an incoming value counts as "not provided".
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// Clean returns the known, non-empty fields of in, coerced to their kinds.
// An invalid field is reported as a *FieldError.
func (s Schema) Clean(in map[string]any) (docstore.Doc, error) {
	out := docstore.Doc{}
	for field, kind := range s {
		v, ok := in[field]
		if !ok || IsEmpty(v) {
			continue
		}
		cv, keep, err := coerce(kind, v)
		if err != nil {
			return nil, &FieldError{Field: field, Message: err.Error()}
		}
		if keep {
			out[field] = cv
		}
	}
	return out, nil
}

// Defaults returns the zero document for the schema: "" for string kinds,
// empty arrays for lists, false and 0 for booleans and numbers.
// Timestamp and Any fields are left out.
func (s Schema) Defaults() docstore.Doc {
	out := docstore.Doc{}
	for field, kind := range s {
		switch kind {
		case String, Text, Email, Date:
			out[field] = ""
		case StringList:
			out[field] = []string{}
		case IntList:
			out[field] = []int{}
		case Bool:
			out[field] = false
		case Number:
			out[field] = 0.0
		}
	}
	return out
}

// Merge lays cleaned over existing. When existing is nil the schema defaults
// are used as the base, so a new document always carries every field.
// Stored fields the schema does not know about are preserved.
func (s Schema) Merge(existing, cleaned docstore.Doc) docstore.Doc {
	base := existing.Clone()
	if base == nil {
		base = s.Defaults()
	}
	for k, v := range cleaned {
		base[k] = v
	}
	return base
}

// coerce converts v to kind. keep is false when the value reduces to empty
// (e.g. text that was nothing but markup).
func coerce(kind Kind, v any) (out any, keep bool, err error) {
	switch kind {
	case String:
		str, ok := v.(string)
		if !ok {
			return nil, false, errors.New("must be a string")
		}
		return strings.TrimSpace(str), true, nil

	case Text:
		str, ok := v.(string)
		if !ok {
			return nil, false, errors.New("must be a string")
		}
		// StrictPolicy entity-escapes what it keeps; store plain text.
		clean := strings.TrimSpace(html.UnescapeString(strict.Sanitize(str)))
		return clean, clean != "", nil

	case Email:
		str, ok := v.(string)
		if !ok {
			return nil, false, errors.New("must be a string")
		}
		email := strings.ToLower(strings.TrimSpace(str))
		if !validate.SimpleEmailValid(email) {
			return nil, false, errors.New("must be a valid email address")
		}
		return email, true, nil

	case StringList:
		items, ok := v.([]any)
		if !ok {
			if ss, isStrings := v.([]string); isStrings {
				return append([]string{}, ss...), true, nil
			}
			return nil, false, errors.New("must be an array of strings")
		}
		list := make([]string, 0, len(items))
		for _, it := range items {
			str, ok := it.(string)
			if !ok {
				return nil, false, errors.New("must be an array of strings")
			}
			list = append(list, str)
		}
		return list, true, nil

	case IntList:
		items, ok := v.([]any)
		if !ok {
			if ints, isInts := v.([]int); isInts {
				return append([]int{}, ints...), true, nil
			}
			return nil, false, errors.New("must be an array of integers")
		}
		list := make([]int, 0, len(items))
		for _, it := range items {
			n, err := toNumber(it)
			if err != nil || n != math.Trunc(n) || math.Abs(n) > maxExactInt {
				return nil, false, errors.New("must be an array of integers")
			}
			list = append(list, int(n))
		}
		return list, true, nil

	case Bool:
		switch b := v.(type) {
		case bool:
			return b, true, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, false, errors.New("must be true or false")
			}
			return parsed, true, nil
		}
		return nil, false, errors.New("must be true or false")

	case Number:
		n, err := toNumber(v)
		if err != nil {
			return nil, false, err
		}
		return n, true, nil

	case Date:
		str, ok := v.(string)
		if !ok {
			return nil, false, errors.New("must be a date (YYYY-MM-DD)")
		}
		d, err := ParseDate(str)
		if err != nil {
			return nil, false, err
		}
		return d.Format(DateLayout), true, nil

	case Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), true, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
			if err != nil {
				return nil, false, errors.New("must be an RFC 3339 timestamp")
			}
			return parsed.UTC(), true, nil
		}
		return nil, false, errors.New("must be an RFC 3339 timestamp")

	case Any:
		return v, true, nil
	}
	return nil, false, fmt.Errorf("unknown field kind %d", kind)
}

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

// toNumber accepts JSON numbers and numeric strings. NaN and the
// infinities are rejected; they cannot be encoded back to JSON.
func toNumber(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errors.New("must be a number")
		}
		f = parsed
	default:
		return 0, errors.New("must be a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be a finite number")
	}
	return f, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errors.New("must be a date (YYYY-MM-DD)")
}
