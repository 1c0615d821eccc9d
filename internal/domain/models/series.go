package models

// Point is one entry of a derived sequence. Valid is false where the value is
// undefined (leading window, or no signal), never a silent zero.
type Point struct {
	Value float64
	Valid bool
}

// Series is a derived sequence aligned index-for-index with its PriceSeries.
type Series []Point

// Last returns the final entry and whether it is defined.
func (s Series) Last() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	p := s[len(s)-1]
	return p.Value, p.Valid
}

// Values returns only the defined entries, in order.
func (s Series) Values() []float64 {
	out := make([]float64, 0, len(s))
	for _, p := range s {
		if p.Valid {
			out = append(out, p.Value)
		}
	}
	return out
}

// IndicatorSet holds the technical indicators derived from one PriceSeries.
type IndicatorSet struct {
	Returns Series
	SMA20   Series
	SMA50   Series
	RSI14   Series
}
