package postcodes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/fetch"
)

const DefaultURL = "https://api.postcodes.io/postcodes"

// Client implements pvcarbon.CoordinateResolver with postcodes.io, which covers
// the United Kingdom.
type Client struct {
	url     string
	fetcher *fetch.Client
}

type Option func(c *Client)

func WithURL(url string) Option {
	return func(c *Client) {
		c.url = strings.TrimSuffix(url, "/")
	}
}

func WithFetcher(fetcher *fetch.Client) Option {
	return func(c *Client) {
		c.fetcher = fetcher
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		url:     DefaultURL,
		fetcher: fetch.NewClient(),
	}

	for _, option := range opts {
		option(c)
	}

	return c
}

type lookupResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode  string   `json:"postcode"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
	Error string `json:"error"`
}

func (c *Client) Resolve(ctx context.Context, postcode string) (pvcarbon.Location, error) {
	postcode = strings.TrimSpace(postcode)
	if postcode == "" {
		return pvcarbon.Location{}, fmt.Errorf("%w: empty postcode", pvcarbon.ErrInvalidLocation)
	}

	body, err := c.fetcher.Get(ctx, c.url+"/"+url.PathEscape(postcode))
	if err != nil {
		statusErr := new(fetch.StatusError)
		if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusBadRequest) {
			return pvcarbon.Location{}, fmt.Errorf("%w: invalid postcode %q", pvcarbon.ErrInvalidLocation, postcode)
		}
		return pvcarbon.Location{}, fmt.Errorf("failed to resolve postcode %q: %w", postcode, err)
	}

	response := new(lookupResponse)
	if err := json.Unmarshal(body, response); err != nil {
		return pvcarbon.Location{}, fmt.Errorf("failed to decode postcodes.io response: %w", err)
	}

	if response.Status != http.StatusOK || response.Result == nil {
		return pvcarbon.Location{}, fmt.Errorf("%w: invalid postcode %q", pvcarbon.ErrInvalidLocation, postcode)
	}
	// some postcodes (crown dependencies, new builds) have no coordinates
	if response.Result.Latitude == nil || response.Result.Longitude == nil {
		return pvcarbon.Location{}, fmt.Errorf("%w: postcode %q has no coordinates", pvcarbon.ErrInvalidLocation, postcode)
	}

	return pvcarbon.Location{
		Latitude:  *response.Result.Latitude,
		Longitude: *response.Result.Longitude,
		Postcode:  response.Result.Postcode,
	}, nil
}
