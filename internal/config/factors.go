package config

import (
	"fmt"
	"io"
	"os"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/embodied"
	"github.com/superdango/pv-carbon/model/transport"
	"gopkg.in/yaml.v3"
)

// FactorEntry is a user supplied emission factor of the overlay file.
type FactorEntry struct {
	Value  float64 `yaml:"value"`
	Source string  `yaml:"source"`
	Year   int     `yaml:"year"`
	Region string  `yaml:"region"`
	Label  string  `yaml:"label"`
	Notes  string  `yaml:"notes"`
}

// Factors is an overlay adding or replacing entries of the built-in tables.
//
//	materials:
//	  name: site-epd
//	  base: generic-v3
//	  factors:
//	    glass: {value: 1.2, source: Manufacturer EPD, year: 2024}
//	transport:
//	  factors:
//	    electric_truck: {value: 0.03, source: Fleet data, label: Electric HGV}
type Factors struct {
	Materials struct {
		Name    string                 `yaml:"name"`
		Base    string                 `yaml:"base"`
		Factors map[string]FactorEntry `yaml:"factors"`
	} `yaml:"materials"`
	Transport struct {
		Factors map[string]FactorEntry `yaml:"factors"`
	} `yaml:"transport"`
}

func LoadFactors(path string) (*Factors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open factors file: %w", err)
	}
	defer f.Close()

	return ParseFactors(f)
}

func ParseFactors(r io.Reader) (*Factors, error) {
	factors := new(Factors)
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(factors); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode factors file: %w", err)
	}

	for key, entry := range factors.Materials.Factors {
		if _, err := embodied.ParseMaterial(key); err != nil {
			return nil, err
		}
		if entry.Value < 0 {
			return nil, fmt.Errorf("%w: negative factor for material %s", pvcarbon.ErrInvalidInput, key)
		}
	}
	for key, entry := range factors.Transport.Factors {
		if entry.Value < 0 {
			return nil, fmt.Errorf("%w: negative factor for transport mode %s", pvcarbon.ErrInvalidInput, key)
		}
	}

	return factors, nil
}

func (entry FactorEntry) factor(unit pvcarbon.Unit) pvcarbon.EmissionFactor {
	region := entry.Region
	if region == "" {
		region = pvcarbon.GenericRegion
	}
	return pvcarbon.EmissionFactor{
		Value:  entry.Value,
		Unit:   unit,
		Source: entry.Source,
		Year:   entry.Year,
		Region: region,
		Notes:  entry.Notes,
	}
}

// MaterialDatabase returns the overlay material table and its name. ok is
// false when the overlay defines no material.
func (factors *Factors) MaterialDatabase() (table pvcarbon.FactorTable, ok bool, err error) {
	if factors == nil || len(factors.Materials.Factors) == 0 {
		return pvcarbon.FactorTable{}, false, nil
	}

	base, err := embodied.Database(factors.Materials.Base)
	if err != nil {
		return pvcarbon.FactorTable{}, false, err
	}

	name := factors.Materials.Name
	if name == "" {
		name = "custom"
	}

	entries := make(map[string]pvcarbon.EmissionFactor, len(factors.Materials.Factors))
	labels := make(map[string]string)
	for key, entry := range factors.Materials.Factors {
		material, _ := embodied.ParseMaterial(key)
		entries[string(material)] = entry.factor(pvcarbon.KgCO2ePerKg)
		if entry.Label != "" {
			labels[string(material)] = entry.Label
		}
	}

	return base.With(name, entries, labels), true, nil
}

// TransportModes returns the built-in transport table extended by the overlay.
func (factors *Factors) TransportModes() pvcarbon.FactorTable {
	if factors == nil || len(factors.Transport.Factors) == 0 {
		return transport.Modes
	}

	entries := make(map[string]pvcarbon.EmissionFactor, len(factors.Transport.Factors))
	labels := make(map[string]string)
	for key, entry := range factors.Transport.Factors {
		mode := transport.NormalizeMode(key)
		entries[mode] = entry.factor(pvcarbon.KgCO2ePerTkm)
		if entry.Label != "" {
			labels[mode] = entry.Label
		}
	}

	return transport.Modes.With(transport.Modes.Name+" + overlay", entries, labels)
}
