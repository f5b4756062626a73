// Package nominatim talks to an OpenStreetMap Nominatim server for forward
// and reverse geocoding.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

const (
	defaultBaseURL              = "https://nominatim.openstreetmap.org"
	searchLimit                 = 5
	requestBodyReadLimit  int64 = 1024
)

var errUserAgentRequired = errors.New("nominatim requires an identifying user agent")

// Client wraps the Nominatim search and reverse endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a self-hosted Nominatim.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout sets the HTTP timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client; the public server rejects anonymous traffic so a
// user agent is mandatory.
func NewClient(userAgent string, opts ...Option) (*Client, error) {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return nil, errUserAgentRequired
	}

	client := &Client{
		userAgent:  ua,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Address is the subset of Nominatim's addressdetails the marketplace uses.
type Address struct {
	Road        string `json:"road,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	City        string `json:"city,omitempty"`
	District    string `json:"district,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Place is a normalized geocoding result.
type Place struct {
	PlaceID     int64   `json:"placeId"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     Address `json:"address"`
}

type apiPlace struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Search resolves free text into at most five places.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocoder not configured")
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(searchLimit))
	params.Set("addressdetails", "1")

	var raw []apiPlace
	if err := c.get(ctx, "search", params, &raw); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(raw))
	for _, item := range raw {
		place, err := item.normalize()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode search result")
		}
		places = append(places, place)
	}
	return places, nil
}

// Reverse resolves a coordinate into the nearest addressable place.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocoder not configured")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("addressdetails", "1")

	var raw apiPlace
	if err := c.get(ctx, "reverse", params, &raw); err != nil {
		return nil, err
	}
	if raw.Error != "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no place found at coordinates")
	}
	place, err := raw.normalize()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode reverse result")
	}
	return &place, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+path+" request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+path+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), path+" request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+path+" response")
	}
	return nil
}

func (p apiPlace) normalize() (Place, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return Place{}, fmt.Errorf("lat %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return Place{}, fmt.Errorf("lon %q: %w", p.Lon, err)
	}
	return Place{
		PlaceID:     p.PlaceID,
		DisplayName: p.DisplayName,
		Lat:         lat,
		Lng:         lng,
		Address:     addressFrom(p.Address),
	}, nil
}

func addressFrom(raw map[string]string) Address {
	return Address{
		Road:        raw["road"],
		HouseNumber: raw["house_number"],
		City:        firstNonEmpty(raw["city"], raw["town"], raw["municipality"], raw["village"]),
		District:    firstNonEmpty(raw["state_district"], raw["county"], raw["district"]),
		State:       firstNonEmpty(raw["state"], raw["region"]),
		Postcode:    raw["postcode"],
		Country:     raw["country"],
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
