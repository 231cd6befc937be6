package models

import "time"

// Axes holds one score per aesthetic axis in canonical order:
// Content Enjoyment, Content Usefulness, Production Complexity,
// Production Quality. The field order is load-bearing: JSON output
// and CLI tables follow it.
type Axes struct {
	CE float64 `json:"CE"` // Content Enjoyment
	CU float64 `json:"CU"` // Content Usefulness
	PC float64 `json:"PC"` // Production Complexity
	PQ float64 `json:"PQ"` // Production Quality
}

// AxisNames returns the axis identifiers in canonical order.
func AxisNames() []string {
	return []string{"CE", "CU", "PC", "PQ"}
}

// Values returns the four scores in canonical axis order.
func (a Axes) Values() []float64 {
	return []float64{a.CE, a.CU, a.PC, a.PQ}
}

// ClipScore is a cached scoring result for one audio clip.
type ClipScore struct {
	ClipID     string    // Database ID (UUID)
	Source     string    // Original file path or URL
	DurationMs int       // Clip duration in milliseconds
	SampleRate int       // Sample rate the clip was scored at
	Scores     Axes      // Aggregated per-axis scores
	CreatedAt  time.Time // When the clip was first scored
}
