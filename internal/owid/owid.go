package owid

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/cache"
	"github.com/superdango/pv-carbon/internal/fetch"
	"github.com/superdango/pv-carbon/model/carbon"
)

const (
	DefaultURL = "https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv"

	Source = "Our World in Data – electricity carbon intensity"
	Notes  = "Annual average grid electricity carbon intensity"

	cacheKey = "owid-energy-data"
)

// Client implements pvcarbon.GridIntensitySource with the Our World in Data
// energy dataset. The dataset is downloaded once and kept for the process
// lifetime.
type Client struct {
	url     string
	fetcher *fetch.Client
	cache   *cache.Memory
}

type Option func(c *Client)

func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

func WithFetcher(fetcher *fetch.Client) Option {
	return func(c *Client) {
		c.fetcher = fetcher
	}
}

func WithCache(cache *cache.Memory) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		url:     DefaultURL,
		fetcher: fetch.NewClient(),
		cache:   cache.NewMemory(cache.NoExpiration),
	}

	for _, option := range opts {
		option(c)
	}

	return c
}

// Table returns the intensity table, downloading it on first use. Concurrent
// first calls share a single download.
func (c *Client) Table(ctx context.Context) (*carbon.IntensityMap, error) {
	v, err := c.cache.GetOrSet(ctx, cacheKey, func(ctx context.Context) (any, error) {
		slog.Info("downloading grid carbon intensity dataset", "url", c.url)
		body, err := c.fetcher.Get(ctx, c.url)
		if err != nil {
			return nil, fmt.Errorf("failed to download owid dataset: %w", err)
		}
		table, err := Parse(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		slog.Info("grid carbon intensity dataset loaded", "countries", table.Len())
		return table, nil
	}, cache.NoExpiration)
	if err != nil {
		return nil, err
	}

	return v.(*carbon.IntensityMap), nil
}

func (c *Client) GridFactor(ctx context.Context, country string, year int) (pvcarbon.EmissionFactor, error) {
	table, err := c.Table(ctx)
	if err != nil {
		return pvcarbon.EmissionFactor{}, err
	}
	return table.LookupFunc(year)(country)
}

var requiredColumns = []string{"country", "iso_code", "year", "carbon_intensity_elec"}

// Parse reads the OWID energy CSV. Intensities are published in gCO2e/kWh and
// converted to kgCO2e/kWh. Rows without intensity are skipped.
func Parse(r io.Reader) (*carbon.IntensityMap, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read owid header: %w", err)
	}

	columns := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, found := columns[name]; !found {
			return nil, fmt.Errorf("%w: owid dataset has no %s column", pvcarbon.ErrMissingData, name)
		}
	}

	records := make([]carbon.Record, 0)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read owid line %d: %w", line, err)
		}

		intensity := strings.TrimSpace(row[columns["carbon_intensity_elec"]])
		if intensity == "" {
			continue
		}
		grams, err := strconv.ParseFloat(intensity, 64)
		if err != nil {
			slog.Debug("skipping owid row with invalid intensity", "line", line, "value", intensity)
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[columns["year"]]))
		if err != nil {
			slog.Debug("skipping owid row with invalid year", "line", line, "value", row[columns["year"]])
			continue
		}

		country := strings.TrimSpace(row[columns["country"]])
		isoCode := strings.TrimSpace(row[columns["iso_code"]])
		if country == "" && isoCode == "" {
			continue
		}

		records = append(records, carbon.Record{
			Country:      country,
			ISOCode:      isoCode,
			Year:         year,
			KgCO2ePerKWh: grams / 1000,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: owid dataset has no carbon intensity value", pvcarbon.ErrMissingData)
	}

	return carbon.NewIntensityMap(Source, Notes, records), nil
}
