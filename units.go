package pvcarbon

import "math"

// Emissions in kgCO2e
type Emissions float64

func (e Emissions) KgCO2e() float64 {
	return float64(e)
}

func (e Emissions) TCO2e() float64 {
	return e.KgCO2e() / 1000
}

// Energy in kWh
type Energy float64

func (e Energy) KWh() float64 {
	return float64(e)
}

func (e Energy) MWh() float64 {
	return e.KWh() / 1000
}

// Round rounds v to the given number of decimal places. Values are only rounded
// when presented, never between stages.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func percent(n float64) float64 {
	return n / 100.0
}

// Percent returns value × pct / 100.
func Percent(value, pct float64) float64 {
	return value * percent(pct)
}
