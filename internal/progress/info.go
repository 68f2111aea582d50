package progress

// Info is the progress extracted from one notification's action records.
// Progress and Max are only meaningful when HasProgressBar is set.
type Info struct {
	HasProgressBar bool `json:"hasProgressBar"`
	Progress       int  `json:"progress"`
	Max            int  `json:"max"`
}

// Fraction returns Progress/Max, or 0 when Max is not positive. The result is
// not clamped: malformed input may report progress beyond max.
func (i Info) Fraction() float64 {
	if i.Max <= 0 {
		return 0
	}
	return float64(i.Progress) / float64(i.Max)
}

// Percent returns the fraction as a whole percentage clamped to [0, 100].
func (i Info) Percent() int {
	p := int(i.Fraction() * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
