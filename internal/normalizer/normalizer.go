// Package normalizer turns raw model output into a validated monument record.
package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/SunnyMondal53778/pastport-history/pkg/models"

	"github.com/arbovm/levenshtein"
	"github.com/samber/lo"
)

const (
	fence = "```"

	// maxHintDistance bounds how far an unknown key may be from a required one
	maxHintDistance = 3
)

const (
	FieldName         = "name"
	FieldLocation     = "location"
	FieldEra          = "era"
	FieldFacts        = "facts"
	FieldDangerRating = "dangerRating"
	FieldDangerNotes  = "dangerNotes"
	FieldFunFact      = "funFact"
)

// RequiredFields lists the record keys in their serialized order
var RequiredFields = []string{
	FieldName,
	FieldLocation,
	FieldEra,
	FieldFacts,
	FieldDangerRating,
	FieldDangerNotes,
	FieldFunFact,
}

// ValidationIssue describes one problem found in the model output
type ValidationIssue struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
	Hint    string `json:"hint,omitempty"`
}

func (i ValidationIssue) String() string {
	if i.Field == "" {
		return i.Problem
	}
	s := i.Field + ": " + i.Problem
	if i.Hint != "" {
		s += " (" + i.Hint + ")"
	}
	return s
}

// NormalizeError is returned when content cannot become a MonumentRecord.
// Raw keeps the untouched model output for diagnostics.
type NormalizeError struct {
	Issues []ValidationIssue
	Raw    string
	Cause  error
}

func (e *NormalizeError) Error() string {
	parts := lo.Map(e.Issues, func(issue ValidationIssue, _ int) string {
		return issue.String()
	})
	return "invalid monument payload: " + strings.Join(parts, "; ")
}

func (e *NormalizeError) Unwrap() error {
	return e.Cause
}

// StripFences removes surrounding whitespace and a markdown code fence,
// including an optional language tag after the opening fence.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		s = strings.TrimLeft(s, " \t")
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
		})
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSuffix(s, fence)
	}
	return strings.TrimSpace(s)
}

// Normalize parses and validates model output. It returns either a complete
// record or a *NormalizeError listing every issue found.
func Normalize(content string) (*models.MonumentRecord, error) {
	obj, err := parseObject(StripFences(content))
	if err != nil {
		return nil, &NormalizeError{
			Issues: []ValidationIssue{{Problem: err.Error()}},
			Raw:    content,
			Cause:  err,
		}
	}

	v := &recordValidator{obj: obj, unknown: unknownKeys(obj)}
	record := &models.MonumentRecord{
		Name:         v.requiredString(FieldName, false),
		Location:     v.requiredString(FieldLocation, false),
		Era:          v.requiredString(FieldEra, true),
		Facts:        v.facts(),
		DangerRating: v.dangerRating(),
		DangerNotes:  v.requiredString(FieldDangerNotes, true),
		FunFact:      v.requiredString(FieldFunFact, false),
	}

	if len(v.issues) > 0 {
		return nil, &NormalizeError{Issues: v.issues, Raw: content}
	}
	return record, nil
}

func parseObject(s string) (map[string]any, error) {
	if s == "" {
		return nil, fmt.Errorf("content is empty")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("content is not valid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("content has trailing data after the JSON value")
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("content is not a JSON object")
	}
	return obj, nil
}

type recordValidator struct {
	obj     map[string]any
	unknown []string
	issues  []ValidationIssue
}

func (v *recordValidator) add(field, problem string) {
	v.issues = append(v.issues, ValidationIssue{Field: field, Problem: problem})
}

func (v *recordValidator) lookup(field string) (any, bool) {
	value, ok := v.obj[field]
	if !ok {
		issue := ValidationIssue{Field: field, Problem: "missing"}
		if near := nearestKey(field, v.unknown); near != "" {
			issue.Hint = fmt.Sprintf("found %q, did you mean %q?", near, field)
		}
		v.issues = append(v.issues, issue)
	}
	return value, ok
}

func (v *recordValidator) requiredString(field string, allowEmpty bool) string {
	value, ok := v.lookup(field)
	if !ok {
		return ""
	}
	s, isString := value.(string)
	if !isString {
		v.add(field, "must be a string")
		return ""
	}
	if !allowEmpty && strings.TrimSpace(s) == "" {
		v.add(field, "must not be empty")
	}
	return s
}

func (v *recordValidator) facts() []string {
	value, ok := v.lookup(FieldFacts)
	if !ok {
		return nil
	}
	items, isArray := value.([]any)
	if !isArray {
		v.add(FieldFacts, "must be an array of strings")
		return nil
	}
	if len(items) == 0 {
		v.add(FieldFacts, "must contain at least one fact")
		return nil
	}

	facts := make([]string, 0, len(items))
	for i, item := range items {
		s, isString := item.(string)
		if !isString || strings.TrimSpace(s) == "" {
			v.add(fmt.Sprintf("%s[%d]", FieldFacts, i), "must be a non-empty string")
			continue
		}
		facts = append(facts, s)
	}
	return facts
}

func (v *recordValidator) dangerRating() int {
	value, ok := v.lookup(FieldDangerRating)
	if !ok {
		return 0
	}
	num, isNumber := value.(json.Number)
	if !isNumber {
		v.add(FieldDangerRating, "must be a number")
		return 0
	}
	f, err := num.Float64()
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		v.add(FieldDangerRating, "must be a whole number")
		return 0
	}
	if f < models.MinDangerRating || f > models.MaxDangerRating {
		v.add(FieldDangerRating, fmt.Sprintf("must be between %d and %d, got %s", models.MinDangerRating, models.MaxDangerRating, num.String()))
		return 0
	}
	return int(f)
}

func unknownKeys(obj map[string]any) []string {
	keys := lo.Filter(lo.Keys(obj), func(k string, _ int) bool {
		return !lo.Contains(RequiredFields, k)
	})
	sort.Strings(keys)
	return keys
}

// nearestKey finds the unknown key closest to field, ignoring case and
// separators. Returns "" when nothing is within maxHintDistance.
func nearestKey(field string, candidates []string) string {
	target := foldKey(field)
	best, bestDistance := "", maxHintDistance+1
	for _, candidate := range candidates {
		d := levenshtein.Distance(target, foldKey(candidate))
		if d < bestDistance && d < len(target) {
			best, bestDistance = candidate, d
		}
	}
	return best
}

func foldKey(k string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, k)
}
