package models

// MonumentRecord is the validated identification returned to the client.
// Field order and JSON names are part of the client contract.
type MonumentRecord struct {
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Era          string   `json:"era"`
	Facts        []string `json:"facts"`
	DangerRating int      `json:"dangerRating"`
	DangerNotes  string   `json:"dangerNotes"`
	FunFact      string   `json:"funFact"`
}

const (
	MinDangerRating = 1
	MaxDangerRating = 5

	// SafetyNoteThreshold is the rating above which dangerNotes are shown.
	SafetyNoteThreshold = 2
)

// DangerLevel buckets the rating the same way the result card does
func (m *MonumentRecord) DangerLevel() string {
	switch {
	case m.DangerRating <= 2:
		return "Safe"
	case m.DangerRating <= 4:
		return "Moderate"
	default:
		return "Caution"
	}
}

// ShowsSafetyNote reports whether the client surfaces dangerNotes
func (m *MonumentRecord) ShowsSafetyNote() bool {
	return m.DangerRating > SafetyNoteThreshold
}
