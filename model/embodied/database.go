package embodied

import (
	"fmt"
	"slices"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
)

const (
	ICESimplified = "ice-v4.1-simplified"
	GenericV3     = "generic-v3"

	DefaultDatabase = ICESimplified
)

func kgFactor(value float64, source string, year int, notes string) pvcarbon.EmissionFactor {
	return pvcarbon.EmissionFactor{
		Value:  value,
		Unit:   pvcarbon.KgCO2ePerKg,
		Source: source,
		Year:   year,
		Region: pvcarbon.GenericRegion,
		Notes:  notes,
	}
}

// iceSimplified holds early stage mean values interpreted from the ICE
// database v4.1. Glass, silicon and copper are not populated yet and must be
// overridden.
var iceSimplified = pvcarbon.FactorTable{
	Name: ICESimplified,
	Factors: map[string]pvcarbon.EmissionFactor{
		string(Aluminium): kgFactor(13.1, "ICE Database v4.1 (mean of aluminium profiles)", 2025,
			"Generic primary aluminium, recycled content can significantly reduce this value"),
		string(Steel): kgFactor(1.64, "ICE Database v4.1 (mean structural steel)", 2025,
			"Generic hot-rolled engineering steel, EAF steel may be lower"),
		string(Concrete): kgFactor(0.134, "ICE Database v4.1 (mean ready-mix concrete)", 2025,
			"Highly mix-dependent, foundations often dominate A1-A3 for ground-mounted systems"),
		string(Glass):     kgFactor(0, "ICE Database v4.1 (mean flat glass)", 2025, "Not yet populated"),
		string(SiliconPV): kgFactor(0, "ICE Database v4.1 / literature (mono-Si PV cells)", 2025, "Not yet populated"),
		string(Copper):    kgFactor(0, "ICE Database v4.1 (mean copper)", 2025, "Not yet populated"),
	},
	Labels: map[string]string{
		string(Aluminium): "Aluminium, General worldwide (PV module frames / rails)",
		string(Steel):     "Steel (PV mounting structures)",
		string(Concrete):  "Concrete 32/40 MPa (PV foundations / ballast)",
		string(Glass):     "Glass (PV module frontsheet)",
		string(SiliconPV): "Silicon (PV cells)",
		string(Copper):    "Copper (PV cabling and electrical components)",
	},
}

// genericV3 is the literature average table from ICE v3.
var genericV3 = pvcarbon.FactorTable{
	Name: GenericV3,
	Factors: map[string]pvcarbon.EmissionFactor{
		string(Aluminium): kgFactor(9.5, "ICE Database v3 / literature average", 2019, ""),
		string(Steel):     kgFactor(1.7, "ICE Database v3 / World Steel averages", 2019, ""),
		string(Glass):     kgFactor(1.0, "ICE Database v3 / EPD averages", 2019, ""),
		string(SiliconPV): kgFactor(45.0, "Literature (mono-Si PV cell manufacturing)", 2019, "Very energy intensive"),
		string(Copper):    kgFactor(4.0, "ICE Database v3 / ecoinvent literature", 2019, ""),
		string(Concrete):  kgFactor(0.13, "ICE Database v3 / UK generic concrete", 2019, "About 130 kgCO2e/m3 at 2400 kg/m3"),
	},
	Labels: map[string]string{
		string(Aluminium): "Aluminium",
		string(Steel):     "Steel",
		string(Glass):     "Glass",
		string(SiliconPV): "Silicon (PV cells)",
		string(Copper):    "Copper",
		string(Concrete):  "Concrete",
	},
}

var databases = map[string]pvcarbon.FactorTable{
	ICESimplified: iceSimplified,
	GenericV3:     genericV3,
}

// Database returns the named material database. An empty name selects the
// default database.
func Database(name string) (pvcarbon.FactorTable, error) {
	if name == "" {
		name = DefaultDatabase
	}
	table, found := databases[name]
	if !found {
		return pvcarbon.FactorTable{}, fmt.Errorf("%w: unknown material database %q (available: %s)",
			pvcarbon.ErrInvalidInput, name, strings.Join(DatabaseNames(), ", "))
	}
	return table, nil
}

func DatabaseNames() []string {
	names := make([]string, 0, len(databases))
	for name := range databases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
