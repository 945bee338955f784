package record

// quality thresholds. Quality starts at QualMax and is reduced by multiplying with a factor per finding:
// three similar records with QualLow factor drop below QualBad, (75/100)^3 = 0.42;
// two nearly identical records with QualBad factor drop below QualSpam, (50/100)^2 = 0.25.
const (
	QualMax  = 100
	QualLow  = 75
	QualBad  = 50
	QualSpam = 26
)

// Quality returns current quality score
func (r *Record) Quality() int { return r.quality }

// SetQuality overrides quality, no bounds applied
func (r *Record) SetQuality(q int) *Record {
	r.quality = q
	return r
}

// MultiplyQuality multiplies quality by factor, the result is truncated toward zero
func (r *Record) MultiplyQuality(factor float64) *Record {
	r.quality = int(float64(r.quality) * factor)
	return r
}

// IsSpam returns true for quality in [0, QualSpam). Negative quality is not spam.
func (r *Record) IsSpam() bool {
	return r.quality < QualSpam && r.quality >= 0
}

// AddQualAction appends the reason to the debug trail and counts the reduction.
// Reasons are concatenated as is, the caller adds separators.
func (r *Record) AddQualAction(reason string) {
	r.qualDebug += reason
	r.qualReductions++
}

// QualDebug returns concatenated quality reasons
func (r *Record) QualDebug() string { return r.qualDebug }

// QualReductions returns the number of AddQualAction calls
func (r *Record) QualReductions() int { return r.qualReductions }
