package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	dErrors "healthfund/pkg/domain-errors"
)

// Condition is one diagnosed condition on a certification.
type Condition struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

// UnmarshalJSON accepts either a {name, severity} object or a plain string,
// which the doctor form sends as "Diabetes (Severe)". A string becomes the
// condition name verbatim.
func (c *Condition) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*c = Condition{Name: strings.TrimSpace(name)}
		return nil
	}
	type plain Condition
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*c = Condition(p)
	return nil
}

// Certification is a doctor's attestation for an application code. There is
// at most one per code and it is never overwritten.
type Certification struct {
	ApplicationCode   string
	DoctorName        string
	MCJRegNo          string
	OfficeAddress     string
	Parish            string
	OfficePhone       string
	Conditions        []Condition
	Notes             string
	CertificationDate time.Time
}

// ConditionsJSON is the serialized form of Conditions, always a JSON array.
func (c *Certification) ConditionsJSON() string {
	return EncodeConditions(c.Conditions)
}

// EncodeConditions serializes conditions as a JSON array; nil encodes as [].
func EncodeConditions(conditions []Condition) string {
	if conditions == nil {
		conditions = []Condition{}
	}
	b, err := json.Marshal(conditions)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// ParseConditions decodes a conditions_json string. Blank input is an empty list.
func ParseConditions(raw string) ([]Condition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []Condition{}, nil
	}
	var out []Condition
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "conditions_json must be a JSON array of {name, severity}")
	}
	if out == nil {
		out = []Condition{}
	}
	return out, nil
}

// dateLayouts are accepted for an explicit certification_date.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseCertificationDate parses raw, falling back to now when blank. The
// result is in UTC.
func ParseCertificationDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, "certification_date must be an RFC 3339 timestamp or a date")
}
