package pvcarbon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	pvcarbon "github.com/superdango/pv-carbon"
)

func TestEmissionsConversions(t *testing.T) {
	e := pvcarbon.Emissions(2524)
	assert.Equal(t, 2524.0, e.KgCO2e())
	assert.Equal(t, 2.524, e.TCO2e())

	assert.Equal(t, 0.0, pvcarbon.Emissions(0).TCO2e())
	assert.Equal(t, 1.5, pvcarbon.Energy(1500).MWh())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.52, pvcarbon.Round(2.5249, 2))
	assert.Equal(t, 2.525, pvcarbon.Round(2.52499, 3))
	assert.Equal(t, 23556.0, pvcarbon.Round(23555.95, 0))
	assert.Equal(t, -1.2, pvcarbon.Round(-1.23, 1))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 500.0, pvcarbon.Percent(10000, 5))
	assert.Equal(t, 0.0, pvcarbon.Percent(10000, 0))
}
