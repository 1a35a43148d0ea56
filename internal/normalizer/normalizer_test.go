package normalizer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eiffelJSON = `{"name":"Eiffel Tower","location":"Paris, France","era":"Belle Époque • 1887-1889","facts":["It was meant to be temporary.","It grows in summer.","Painted every seven years."],"dangerRating":2,"dangerNotes":"Crowds and pickpockets.","funFact":"Eiffel had a private apartment at the top."}`

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	var nerr *NormalizeError
	require.True(t, errors.As(err, &nerr), "expected *NormalizeError, got %T", err)
	fields := make([]string, 0, len(nerr.Issues))
	for _, issue := range nerr.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func TestNormalizeValidRecord(t *testing.T) {
	record, err := Normalize(eiffelJSON)
	require.NoError(t, err)

	assert.Equal(t, "Eiffel Tower", record.Name)
	assert.Equal(t, "Paris, France", record.Location)
	assert.Equal(t, "Belle Époque • 1887-1889", record.Era)
	assert.Len(t, record.Facts, 3)
	assert.Equal(t, 2, record.DangerRating)
	assert.Equal(t, "Crowds and pickpockets.", record.DangerNotes)
	assert.Equal(t, "Eiffel had a private apartment at the top.", record.FunFact)
}

func TestNormalizeFencedRoundTrip(t *testing.T) {
	plain, err := Normalize(eiffelJSON)
	require.NoError(t, err)

	for _, wrapped := range []string{
		"```json\n" + eiffelJSON + "\n```",
		"```JSON\n" + eiffelJSON + "\n```",
		"```\n" + eiffelJSON + "\n```",
		"``` json\n" + eiffelJSON + "\n```",
		"  \n```json" + eiffelJSON + "```\n\n",
		eiffelJSON + "\n```",
	} {
		record, err := Normalize(wrapped)
		require.NoError(t, err, wrapped)
		assert.Equal(t, plain, record)
	}
}

func TestNormalizeDropsExtraKeys(t *testing.T) {
	withExtra := strings.Replace(eiffelJSON, `"name"`, `"confidence":0.9,"name"`, 1)

	record, err := Normalize(withExtra)
	require.NoError(t, err)

	out, err := json.Marshal(record)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "confidence")
}

func TestNormalizeInvalidJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prose", "I think this is the Colosseum."},
		{"empty", ""},
		{"fence only", "```json\n```"},
		{"array", `["Eiffel Tower"]`},
		{"truncated", `{"name":"Eiffel Tower","location":`},
		{"trailing data", eiffelJSON + ` {"extra":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := Normalize(tt.content)
			assert.Nil(t, record)

			var nerr *NormalizeError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, tt.content, nerr.Raw)
			require.Len(t, nerr.Issues, 1)
			assert.Empty(t, nerr.Issues[0].Field)
		})
	}
}

func TestNormalizeCollectsAllIssues(t *testing.T) {
	record, err := Normalize(`{"name":"","location":42,"facts":[],"dangerRating":9}`)
	assert.Nil(t, record)

	fields := issueFields(t, err)
	assert.ElementsMatch(t, []string{
		FieldName, FieldLocation, FieldEra, FieldFacts, FieldDangerRating, FieldDangerNotes, FieldFunFact,
	}, fields)
}

func TestNormalizeDangerRating(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  int
	}{
		{`1`, true, 1},
		{`5`, true, 5},
		{`2.0`, true, 2},
		{`0`, false, 0},
		{`6`, false, 0},
		{`-1`, false, 0},
		{`2.5`, false, 0},
		{`"2"`, false, 0},
		{`null`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			content := strings.Replace(eiffelJSON, `"dangerRating":2`, `"dangerRating":`+tt.raw, 1)
			record, err := Normalize(content)
			if !tt.valid {
				assert.Nil(t, record)
				assert.Equal(t, []string{FieldDangerRating}, issueFields(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.DangerRating)
		})
	}
}

func TestNormalizeFactsElements(t *testing.T) {
	content := strings.Replace(eiffelJSON, `"It grows in summer."`, `""`, 1)
	content = strings.Replace(content, `"Painted every seven years."`, `7`, 1)

	_, err := Normalize(content)
	assert.Equal(t, []string{"facts[1]", "facts[2]"}, issueFields(t, err))
}

func TestNormalizeAllowsEmptyEraAndNotes(t *testing.T) {
	content := strings.Replace(eiffelJSON, `"Belle Époque • 1887-1889"`, `""`, 1)
	content = strings.Replace(content, `"Crowds and pickpockets."`, `""`, 1)

	record, err := Normalize(content)
	require.NoError(t, err)
	assert.Empty(t, record.Era)
	assert.Empty(t, record.DangerNotes)
}

func TestNormalizeNearMissHints(t *testing.T) {
	content := strings.Replace(eiffelJSON, `"dangerRating"`, `"danger_rating"`, 1)
	content = strings.Replace(content, `"funFact"`, `"FunFacts"`, 1)

	_, err := Normalize(content)

	var nerr *NormalizeError
	require.True(t, errors.As(err, &nerr))
	require.Len(t, nerr.Issues, 2)

	assert.Equal(t, FieldDangerRating, nerr.Issues[0].Field)
	assert.Equal(t, "missing", nerr.Issues[0].Problem)
	assert.Contains(t, nerr.Issues[0].Hint, `"danger_rating"`)

	assert.Equal(t, FieldFunFact, nerr.Issues[1].Field)
	assert.Contains(t, nerr.Issues[1].Hint, `"FunFacts"`)
}

func TestNormalizeNoHintForDistantKeys(t *testing.T) {
	content := strings.Replace(eiffelJSON, `"location"`, `"coordinates"`, 1)

	_, err := Normalize(content)

	var nerr *NormalizeError
	require.True(t, errors.As(err, &nerr))
	require.Len(t, nerr.Issues, 1)
	assert.Empty(t, nerr.Issues[0].Hint)
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```":  "{}",
		"```\n{}\n```":      "{}",
		"  {}  ":            "{}",
		"```js {}```":       "{}",
		"``` json\n{}\n```": "{}",
		"```\tjson {}```":   "{}",
		"{}":                "{}",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in), in)
	}
}

func TestNormalizeErrorMessage(t *testing.T) {
	err := &NormalizeError{Issues: []ValidationIssue{
		{Field: "name", Problem: "missing"},
		{Field: "dangerRating", Problem: "missing", Hint: "found \"rating\""},
	}}
	assert.Equal(t, `invalid monument payload: name: missing; dangerRating: missing (found "rating")`, err.Error())
}
