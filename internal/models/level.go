package models

type PlagiarismLevel string

const (
	LevelLow      PlagiarismLevel = "low"
	LevelModerate PlagiarismLevel = "moderate"
	LevelHigh     PlagiarismLevel = "high"
)

func (l PlagiarismLevel) String() string {
	return string(l)
}

// LevelFor: Low [0,30), Moderate [30,60), High [60,100].
func LevelFor(percentage float64) PlagiarismLevel {
	switch {
	case percentage >= 60:
		return LevelHigh
	case percentage >= 30:
		return LevelModerate
	default:
		return LevelLow
	}
}

func (l PlagiarismLevel) Label() string {
	switch l {
	case LevelHigh:
		return "High"
	case LevelModerate:
		return "Moderate"
	default:
		return "Low"
	}
}

func (l PlagiarismLevel) Range() string {
	switch l {
	case LevelHigh:
		return "60-100%"
	case LevelModerate:
		return "30-60%"
	default:
		return "0-30%"
	}
}

func (l PlagiarismLevel) Description() string {
	switch l {
	case LevelHigh:
		return "Significant overlap indicating potential plagiarism"
	case LevelModerate:
		return "Notable similarities that may need review"
	default:
		return "Minimal similarity, content appears original"
	}
}

func AllLevels() []PlagiarismLevel {
	return []PlagiarismLevel{LevelLow, LevelModerate, LevelHigh}
}
