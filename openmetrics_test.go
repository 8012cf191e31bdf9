package pvcarbon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeLabels(t *testing.T) {
	m := Metric{
		Name: "foo",
		Labels: map[string]string{
			"stage:a1-a3":       "embodied",
			"factor.source":     "ICE",
			"material/database": "",
		},
		Value: 1.0,
	}

	assert.Equal(t, map[string]string{
		"stage_a1_a3":       "embodied",
		"factor_source":     "ICE",
		"material_database": "",
	}, m.SanitizeLabels().Labels)
}

func TestSetMetricLabel(t *testing.T) {
	m := new(Metric)

	m.AddLabel("foo", "bar")
	assert.Equal(t, "bar", m.Labels["foo"])

	m.AddLabel("foo", "baz")
	assert.Equal(t, "baz", m.Labels["foo"])

	m.AddLabel("zoo", "zaz")
	assert.Equal(t, "baz", m.Labels["foo"])
	assert.Equal(t, "zaz", m.Labels["zoo"])

	assert.Len(t, m.Labels, 2)
}

func TestWriteOpenMetrics(t *testing.T) {
	buf := new(bytes.Buffer)
	err := WriteOpenMetrics(buf, []*Metric{
		{Name: "lifecycle_emissions_kgCO2e", Labels: map[string]string{"stage": "A4", "method": "tonne_km"}, Value: 2524},
		nil,
		{Name: "operational_generation_kwh", Value: 1000.5},
	})
	require.NoError(t, err)

	assert.Equal(t, `lifecycle_emissions_kgCO2e{method="tonne_km",stage="A4"} 2524.000000
operational_generation_kwh{} 1000.500000
# EOF
`, buf.String())
}
