package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL   = "https://www.doctolib.de"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// ErrNotFound is returned when a resolve call succeeds but matches nothing.
var ErrNotFound = errors.New("directory: not found")

// Client is an HTTP client for the healthcare directory API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Config holds configuration for the directory client.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration // Per-call timeout, default 10s
	HTTPClient *http.Client  // Optional shared client
}

// NewClient creates a new directory client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// BaseURL returns the directory base URL, used to build booking links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveSpecialty maps free text (a specialty name or symptom keyword)
// to the directory's first matching specialty. Returns ErrNotFound when
// the autocomplete has no specialty suggestions.
func (c *Client) ResolveSpecialty(ctx context.Context, query string) (*Specialty, error) {
	u := fmt.Sprintf("%s/api/searchbar/autocomplete.json?search=%s", c.baseURL, url.QueryEscape(query))

	var resp struct {
		Specialities []Specialty `json:"specialities"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	if len(resp.Specialities) == 0 {
		return nil, fmt.Errorf("no specialties for %q: %w", query, ErrNotFound)
	}
	return &resp.Specialities[0], nil
}

// ResolveLocation maps free text to the directory's first place
// suggestion. Returns ErrNotFound when nothing matches.
func (c *Client) ResolveLocation(ctx context.Context, query string) (*PlaceSuggestion, error) {
	u := fmt.Sprintf("%s/patient_app/place_autocomplete.json?query=%s", c.baseURL, url.QueryEscape(query))

	var resp []PlaceSuggestion
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	if len(resp) == 0 {
		return nil, fmt.Errorf("no places for %q: %w", query, ErrNotFound)
	}
	return &resp[0], nil
}

// SearchQuery describes one provider search.
type SearchQuery struct {
	Place           Place
	Specialty       string // specialty slug, used as the search keyword
	Languages       []string
	InsuranceSector string // e.g., "public"
}

// searchRequest is the search endpoint's payload shape.
type searchRequest struct {
	Keyword  string `json:"keyword"`
	Location struct {
		Place Place `json:"place"`
	} `json:"location"`
	Filters struct {
		InsuranceSector string `json:"insuranceSector"`
	} `json:"filters"`
	Languages []string `json:"languages"`
}

// rawProvider is a provider record as the search endpoint returns it.
// The coordinate shape inside location varies per record.
type rawProvider struct {
	ID                 json.Number `json:"id"`
	Name               string      `json:"name"`
	Link               string      `json:"link"`
	CloudinaryPublicID string      `json:"cloudinaryPublicId"`
	Languages          []string    `json:"languages"`
	Location           Location    `json:"location"`
	OnlineBooking      struct {
		Telehealth bool `json:"telehealth"`
	} `json:"onlineBooking"`
}

// Search runs a provider search. Results come back in the directory's
// ranking order, unfiltered; see PrepareCandidates for the ingestion
// pipeline.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Provider, error) {
	u := c.baseURL + "/phs_proxy/raw?page=0"

	req := searchRequest{
		Keyword:   q.Specialty,
		Languages: q.Languages,
	}
	req.Location.Place = q.Place
	req.Filters.InsuranceSector = q.InsuranceSector
	if req.Filters.InsuranceSector == "" {
		req.Filters.InsuranceSector = "public"
	}
	if req.Languages == nil {
		req.Languages = []string{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("directory API error: %s - %s", resp.Status, string(respBody))
	}

	var searchResp struct {
		HealthcareProviders []rawProvider `json:"healthcareProviders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	providers := make([]Provider, 0, len(searchResp.HealthcareProviders))
	for _, raw := range searchResp.HealthcareProviders {
		providers = append(providers, Provider{
			ID:              raw.ID.String(),
			Name:            raw.Name,
			Specialty:       q.Specialty,
			Link:            raw.Link,
			ProfileImageURL: profileImageURL(raw.CloudinaryPublicID),
			Languages:       raw.Languages,
			Telehealth:      raw.OnlineBooking.Telehealth,
			Location:        raw.Location,
		})
	}
	return providers, nil
}

// profileImageURL derives a face-cropped thumbnail URL from a cloudinary
// public ID. Empty in, empty out.
func profileImageURL(publicID string) string {
	if publicID == "" {
		return ""
	}
	return "https://media.doctolib.com/image/upload/q_auto:eco,f_auto,dpr_2/w_62,h_62,c_fill,g_face/" + publicID
}

// getJSON performs a GET with the browser User-Agent and decodes the body.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("directory API error: %s - %s", resp.Status, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
