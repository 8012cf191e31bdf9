package embodied

import (
	"fmt"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
)

type Material string

const (
	Aluminium Material = "aluminium"
	Steel     Material = "steel"
	Concrete  Material = "concrete"
	Glass     Material = "glass"
	SiliconPV Material = "silicon_pv"
	Copper    Material = "copper"
)

// Materials lists every supported material in breakdown order.
var Materials = []Material{Aluminium, Steel, Concrete, Glass, SiliconPV, Copper}

// ParseMaterial accepts material keys case insensitively.
func ParseMaterial(s string) (Material, error) {
	key := Material(strings.ToLower(strings.TrimSpace(s)))
	for _, material := range Materials {
		if material == key {
			return material, nil
		}
	}

	candidates := make([]string, len(Materials))
	for i, material := range Materials {
		candidates[i] = string(material)
	}
	hint := ""
	if matches := pvcarbon.Suggest(s, candidates); len(matches) > 0 {
		hint = fmt.Sprintf(" (did you mean %s?)", strings.Join(matches, ", "))
	}
	return "", fmt.Errorf("%w: unknown material %q%s", pvcarbon.ErrInvalidInput, s, hint)
}

// Quantities are material masses in kilograms.
type Quantities map[Material]float64
