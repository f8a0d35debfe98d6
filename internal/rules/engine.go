// Package rules evaluates the user's auto-selection rules against anime
// records.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vrsandeep/anisync/internal/models"
)

// InvalidPatternError is returned when a "matches" condition holds a pattern
// that does not compile. It is a defect in the stored rule, not in the data.
type InvalidPatternError struct {
	RuleID  string
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("rule %s: invalid pattern %q: %v", e.RuleID, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// RuleSource supplies the current rule list.
type RuleSource interface {
	Rules(ctx context.Context) []models.AutoRule
}

// Engine applies the rules held by its source.
type Engine struct {
	source RuleSource
}

// NewEngine creates an engine reading rules from source on every call.
func NewEngine(source RuleSource) *Engine {
	return &Engine{source: source}
}

// ApplyRules reads the current rule list and applies it to records.
func (e *Engine) ApplyRules(ctx context.Context, records []models.Anime) ([]models.Anime, error) {
	return Apply(e.source.Rules(ctx), records)
}

// Apply returns a copy of records where every record matched by an enabled
// rule has Selected forced to true. Rules are tried in order and the first
// rule whose conditions all hold wins. Records matching no rule are returned
// unchanged, so an existing selection is never cleared.
func Apply(rules []models.AutoRule, records []models.Anime) ([]models.Anime, error) {
	out := make([]models.Anime, len(records))
	copy(out, records)

	enabled := make([]models.AutoRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		return out, nil
	}

	m := &matcher{patterns: make(map[string]*regexp.Regexp)}
	for i := range out {
		for _, rule := range enabled {
			ok, err := m.ruleMatches(rule, &out[i])
			if err != nil {
				return nil, err
			}
			if ok {
				out[i].Selected = true
				break
			}
		}
	}
	return out, nil
}

// matcher caches compiled patterns for the duration of one Apply call.
type matcher struct {
	patterns map[string]*regexp.Regexp
}

func (m *matcher) ruleMatches(rule models.AutoRule, a *models.Anime) (bool, error) {
	if len(rule.Conditions) == 0 {
		return false, nil
	}
	for _, c := range rule.Conditions {
		ok, err := m.conditionMatches(rule.ID, c, a)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *matcher) conditionMatches(ruleID string, c models.RuleCondition, a *models.Anime) (bool, error) {
	switch c.Field {
	case models.FieldGenre:
		return anyMatches(a.Genres, c.Operator, c.Value.String()), nil
	case models.FieldStudio:
		return anyMatches(a.Studios, c.Operator, c.Value.String()), nil
	case models.FieldScore:
		return scoreMatches(a.Score, c), nil
	case models.FieldTitle:
		if c.Operator == models.OpMatches {
			re, err := m.compile(ruleID, c.Value.String())
			if err != nil {
				return false, err
			}
			return re.MatchString(a.Title), nil
		}
		return textMatches(a.Title, c.Operator, c.Value.String()), nil
	}
	return false, nil
}

func (m *matcher) compile(ruleID, pattern string) (*regexp.Regexp, error) {
	if re, ok := m.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, &InvalidPatternError{RuleID: ruleID, Pattern: pattern, Err: err}
	}
	m.patterns[pattern] = re
	return re, nil
}

// anyMatches is false for a missing or empty list.
func anyMatches(values []string, op, want string) bool {
	for _, v := range values {
		if textMatches(v, op, want) {
			return true
		}
	}
	return false
}

func textMatches(have, op, want string) bool {
	switch op {
	case models.OpContains:
		return strings.Contains(strings.ToLower(have), strings.ToLower(want))
	case models.OpEquals:
		return strings.EqualFold(have, want)
	}
	return false
}

// scoreMatches treats a zero score as unscored.
func scoreMatches(score *float64, c models.RuleCondition) bool {
	if score == nil || *score == 0 {
		return false
	}
	want, ok := c.Value.Float()
	if !ok {
		return false
	}
	switch c.Operator {
	case models.OpGreater:
		return *score > want
	case models.OpLess:
		return *score < want
	case models.OpEquals:
		return *score == want
	}
	return false
}
