package pvgis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/mapstructure"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/fetch"
)

const (
	DefaultURL      = "https://re.jrc.ec.europa.eu/api/v5_2/seriescalc"
	DefaultDatabase = "PVGIS-ERA5"
	DefaultCacheTTL = 24 * time.Hour

	cacheCapacity = 256

	timeLayout = "20060102:1504"
)

// Client implements pvcarbon.IrradianceProvider with the PVGIS hourly
// radiation service of the European Commission Joint Research Centre.
type Client struct {
	url      string
	database string
	fetcher  *fetch.Client
	cacheTTL time.Duration
	cache    *ttlcache.Cache[string, pvcarbon.IrradianceSeries]
}

type Option func(c *Client)

func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithDatabase selects the PVGIS radiation database (PVGIS-ERA5, PVGIS-SARAH2...).
func WithDatabase(database string) Option {
	return func(c *Client) {
		c.database = database
	}
}

func WithFetcher(fetcher *fetch.Client) Option {
	return func(c *Client) {
		c.fetcher = fetcher
	}
}

// WithCacheTTL sets how long a downloaded series is reused for the same query.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		url:      DefaultURL,
		database: DefaultDatabase,
		fetcher:  fetch.NewClient(),
		cacheTTL: DefaultCacheTTL,
	}

	for _, option := range opts {
		option(c)
	}

	c.cache = ttlcache.New(
		ttlcache.WithTTL[string, pvcarbon.IrradianceSeries](c.cacheTTL),
		ttlcache.WithCapacity[string, pvcarbon.IrradianceSeries](cacheCapacity),
	)

	go c.cache.Start() // starts automatic expired item deletion

	return c
}

// Close stops the cache expiration loop.
func (c *Client) Close() error {
	c.cache.Stop()
	return nil
}

type seriesResponse struct {
	Outputs struct {
		Hourly []map[string]any `json:"hourly"`
	} `json:"outputs"`
}

type errorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// hourlyRecord holds the plane of array irradiance components in W/m², each
// record covering one hour.
type hourlyRecord struct {
	Time   string   `mapstructure:"time"`
	Global *float64 `mapstructure:"G(i)"`
	Beam   *float64 `mapstructure:"Gb(i)"`
	Sky    *float64 `mapstructure:"Gd(i)"`
	Ground *float64 `mapstructure:"Gr(i)"`
}

func (c *Client) queryURL(query pvcarbon.IrradianceQuery) string {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(query.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(query.Longitude, 'f', -1, 64))
	params.Set("startyear", strconv.Itoa(query.Year))
	params.Set("endyear", strconv.Itoa(query.Year))
	params.Set("angle", strconv.FormatFloat(query.Tilt, 'f', -1, 64))
	// PVGIS aspect is 0 for south, -90 for east
	params.Set("aspect", strconv.FormatFloat(query.Azimuth-180, 'f', -1, 64))
	params.Set("raddatabase", c.database)
	params.Set("components", "1")
	params.Set("outputformat", "json")
	return c.url + "?" + params.Encode()
}

func (c *Client) Irradiance(ctx context.Context, query pvcarbon.IrradianceQuery) (pvcarbon.IrradianceSeries, error) {
	u := c.queryURL(query)
	if item := c.cache.Get(u); item != nil {
		slog.Debug("pvgis hourly series served from cache", "url", u)
		return item.Value(), nil
	}

	slog.Debug("requesting pvgis hourly series", "url", u)

	body, err := c.fetcher.Get(ctx, u)
	if err != nil {
		statusErr := new(fetch.StatusError)
		if errors.As(err, &statusErr) && statusErr.StatusCode >= http.StatusBadRequest && statusErr.StatusCode < http.StatusInternalServerError {
			message := statusErr.Body
			response := new(errorResponse)
			if json.Unmarshal([]byte(statusErr.Body), response) == nil && response.Message != "" {
				message = response.Message
			}
			return pvcarbon.IrradianceSeries{}, fmt.Errorf("%w: pvgis rejected %g, %g: %s", pvcarbon.ErrInvalidLocation, query.Latitude, query.Longitude, message)
		}
		return pvcarbon.IrradianceSeries{}, fmt.Errorf("failed to fetch pvgis series: %w", err)
	}

	series, err := Decode(body)
	if err != nil {
		return pvcarbon.IrradianceSeries{}, err
	}

	c.cache.Set(u, series, ttlcache.DefaultTTL)
	return series, nil
}

// Decode converts a PVGIS seriescalc JSON document into an irradiance series.
// Hourly W/m² values are read as Wh/m² over the hour.
func Decode(body []byte) (pvcarbon.IrradianceSeries, error) {
	response := new(seriesResponse)
	if err := json.Unmarshal(body, response); err != nil {
		return pvcarbon.IrradianceSeries{}, fmt.Errorf("failed to decode pvgis response: %w", err)
	}

	hourly := response.Outputs.Hourly
	if len(hourly) == 0 {
		return pvcarbon.IrradianceSeries{}, fmt.Errorf("%w: pvgis response has no hourly records", pvcarbon.ErrMissingData)
	}

	records := make([]hourlyRecord, len(hourly))
	if err := mapstructure.Decode(hourly, &records); err != nil {
		return pvcarbon.IrradianceSeries{}, fmt.Errorf("failed to decode pvgis hourly records: %w", err)
	}

	series := pvcarbon.IrradianceSeries{
		Index:   make([]time.Time, len(records)),
		Columns: make(map[string][]float64),
	}

	columns := map[string]func(r hourlyRecord) *float64{
		pvcarbon.ColumnPOAGlobal:        func(r hourlyRecord) *float64 { return r.Global },
		pvcarbon.ColumnPOADirect:        func(r hourlyRecord) *float64 { return r.Beam },
		pvcarbon.ColumnPOASkyDiffuse:    func(r hourlyRecord) *float64 { return r.Sky },
		pvcarbon.ColumnPOAGroundDiffuse: func(r hourlyRecord) *float64 { return r.Ground },
	}

	for name, value := range columns {
		// a column is only exposed when every record carries it
		complete := true
		for _, record := range records {
			if value(record) == nil {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}

		column := make([]float64, len(records))
		for i, record := range records {
			column[i] = *value(record)
		}
		series.Columns[name] = column
	}

	for i, record := range records {
		instant, err := time.ParseInLocation(timeLayout, record.Time, time.UTC)
		if err != nil {
			return pvcarbon.IrradianceSeries{}, fmt.Errorf("failed to parse pvgis timestamp %q: %w", record.Time, err)
		}
		series.Index[i] = instant
	}

	return series, nil
}
