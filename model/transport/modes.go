package transport

import pvcarbon "github.com/superdango/pv-carbon"

const desnz2024 = "UK Government GHG Conversion Factors 2024 (DESNZ)"

func tkmFactor(value float64, notes string) pvcarbon.EmissionFactor {
	return pvcarbon.EmissionFactor{
		Value:  value,
		Unit:   pvcarbon.KgCO2ePerTkm,
		Source: desnz2024,
		Year:   2024,
		Region: pvcarbon.GenericRegion,
		Notes:  notes,
	}
}

// Modes is the freight transport factor table, well-to-wheel, per tonne-km.
var Modes = pvcarbon.FactorTable{
	Name: "DESNZ 2024 freight factors",
	Factors: map[string]pvcarbon.EmissionFactor{
		"truck_hgv":         tkmFactor(0.11072, "Average laden HGV (all diesel), typical for UK/EU road freight"),
		"truck_rigid":       tkmFactor(0.26587, "Rigid trucks, average weight class"),
		"truck_articulated": tkmFactor(0.06294, "Articulated trucks, more efficient for long-haul"),
		"ship_container":    tkmFactor(0.00631, "Large container ship"),
		"ship_bulk":         tkmFactor(0.00494, "Bulk cargo ships (steel, materials)"),
		"rail_freight":      tkmFactor(0.02678, "UK rail freight average"),
		"air_freight":       tkmFactor(1.13, "Avoid for bulk materials"),
	},
	Labels: map[string]string{
		"truck_hgv":         "Heavy Goods Vehicle (HGV) - Average",
		"truck_rigid":       "Rigid HGV (average)",
		"truck_articulated": "Articulated HGV (average)",
		"ship_container":    "Container ship",
		"ship_bulk":         "Bulk carrier",
		"rail_freight":      "Rail freight",
		"air_freight":       "Air freight",
	},
}
