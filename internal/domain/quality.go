package domain

// Level is a three-tier classification used for data quality and risk.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// String returns the string representation of Level.
func (l Level) String() string {
	return string(l)
}

// IsValid checks if the level is one of the three tiers.
func (l Level) IsValid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}
