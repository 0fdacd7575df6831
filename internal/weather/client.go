package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
)

// apiError carries the HTTP status of a failed upstream call so the
// service layer can map it to a domain error code.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("openweathermap: HTTP %d", e.Status)
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Lugar is one geocoding result.
type Lugar struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// currentConditions mirrors the subset of the /weather response the
// server uses.
type currentConditions struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64  `json:"speed"`
		Deg   int      `json:"deg"`
		Gust  *float64 `json:"gust,omitempty"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility *float64 `json:"visibility,omitempty"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

// Client calls the OpenWeatherMap REST APIs.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client with the configured timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Geocode resolves a search query to locations via the geocoding API.
// An empty slice means no match, not an error.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]Lugar, error) {
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
		"appid": {c.cfg.APIKey},
	}

	var lugares []Lugar
	if err := c.getJSON(ctx, c.cfg.GeoURL+"/direct", params, &lugares); err != nil {
		return nil, err
	}
	return lugares, nil
}

// Current fetches current conditions for the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64, unidades, idioma string) (*currentConditions, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.cfg.APIKey},
		"units": {unidades},
		"lang":  {idioma},
	}

	var data currentConditions
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/weather", params, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Probe performs the connectivity check used by validar_configuracion:
// a current-conditions request for a known city against the configured
// base URL. It returns the HTTP status code.
func (c *Client) Probe(ctx context.Context) (int, error) {
	params := url.Values{
		"q":     {"London,UK"},
		"appid": {c.cfg.APIKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{Status: resp.StatusCode, Body: string(body)}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
