package ai

// Correction is a proposed canonical spelling for a city query.
type Correction struct {
	// City is the corrected name, empty when no city was identified.
	City string

	// Confidence is a score from 1-10 for how sure the model is.
	Confidence int
}

// IsZero reports whether no correction was proposed.
func (c Correction) IsZero() bool {
	return c.City == ""
}
