package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoConditions is returned when a rule without conditions is saved.
var ErrNoConditions = errors.New("rule must have at least one condition")

// Rule fields.
const (
	FieldGenre  = "genre"
	FieldStudio = "studio"
	FieldScore  = "score"
	FieldTitle  = "title"
)

// Rule operators.
const (
	OpContains = "contains"
	OpEquals   = "equals"
	OpGreater  = "greater"
	OpLess     = "less"
	OpMatches  = "matches"
)

// AutoRule auto-selects every record for which all of its conditions hold.
type AutoRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Enabled    bool            `json:"enabled"`
	Conditions []RuleCondition `json:"conditions"`
}

// Validate checks the rule can be stored.
func (r *AutoRule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("rule id cannot be empty")
	}
	if len(r.Conditions) == 0 {
		return ErrNoConditions
	}
	return nil
}

// RuleCondition compares one field of a record against a value.
type RuleCondition struct {
	Field    string         `json:"field"`
	Operator string         `json:"operator"`
	Value    ConditionValue `json:"value"`
}

// ConditionValue accepts either a JSON string or a JSON number. The value is
// kept in its textual form and converted when a numeric compare needs it.
type ConditionValue struct {
	raw      string
	isNumber bool
}

// StringValue builds a string condition value.
func StringValue(s string) ConditionValue { return ConditionValue{raw: s} }

// NumberValue builds a numeric condition value.
func NumberValue(f float64) ConditionValue {
	return ConditionValue{raw: strconv.FormatFloat(f, 'f', -1, 64), isNumber: true}
}

// String returns the textual form of the value.
func (v ConditionValue) String() string { return v.raw }

// Float parses the value as a number. ok is false when it is not numeric.
func (v ConditionValue) Float() (f float64, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if v.isNumber {
		if _, ok := v.Float(); ok {
			return []byte(v.raw), nil
		}
	}
	return json.Marshal(v.raw)
}

func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var anyValue interface{}
	if err := dec.Decode(&anyValue); err != nil {
		return err
	}
	switch val := anyValue.(type) {
	case string:
		*v = ConditionValue{raw: val}
	case json.Number:
		*v = ConditionValue{raw: val.String(), isNumber: true}
	case nil:
		*v = ConditionValue{}
	default:
		return fmt.Errorf("condition value must be a string or a number")
	}
	return nil
}
