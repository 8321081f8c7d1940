package geonames

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoUsername is returned when a search is made without an account.
var ErrNoUsername = errors.New("geonames username is not configured")

// DefaultFuzzy is the default fuzziness, 1 being an exact match.
const DefaultFuzzy = 0.8

// Client queries the geonames.org search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Query is one place-name search.
type Query struct {
	Term      string
	Fuzzy     float64
	Username  string
	Countries []string
	MaxRows   int
}

// Place is a single search hit.
type Place struct {
	GeonameID   int64  `json:"geonameId"`
	Name        string `json:"name"`
	ToponymName string `json:"toponymName,omitempty"`
	CountryName string `json:"countryName,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	AdminName1  string `json:"adminName1,omitempty"`
	FCodeName   string `json:"fcodeName,omitempty"`
	Lat         string `json:"lat,omitempty"`
	Lng         string `json:"lng,omitempty"`
}

// Response is the decoded search result.
type Response struct {
	TotalResultsCount int     `json:"totalResultsCount"`
	Geonames          []Place `json:"geonames"`
}

// apiStatus is how geonames reports errors, usually with a 200.
type apiStatus struct {
	Status *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
}

// Search runs a place-name query.
func (c *Client) Search(ctx context.Context, q Query) (*Response, error) {
	if q.Username == "" {
		return nil, ErrNoUsername
	}
	if q.Fuzzy <= 0 || q.Fuzzy > 1 {
		q.Fuzzy = DefaultFuzzy
	}
	if q.MaxRows <= 0 {
		q.MaxRows = 20
	}

	params := url.Values{}
	params.Set("q", q.Term)
	params.Set("fuzzy", strconv.FormatFloat(q.Fuzzy, 'f', -1, 64))
	params.Set("username", q.Username)
	params.Set("maxRows", strconv.Itoa(q.MaxRows))
	params.Set("type", "json")
	for _, cc := range q.Countries {
		params.Add("country", cc)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("geonames search: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geonames search: status %d: %s", resp.StatusCode, truncate(body, 1024))
	}

	var st apiStatus
	if err := json.Unmarshal(body, &st); err == nil && st.Status != nil {
		return nil, fmt.Errorf("geonames search: %s (%d)", st.Status.Message, st.Status.Value)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
