// Package graphstore provides a client for the knowledge-graph lookup API.
package graphstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the knowledge-graph operations used by the pipeline.
type Client interface {
	// LookupEntities resolves entities mentioned in the query and expands
	// their relationships up to the given depth.
	LookupEntities(ctx context.Context, query string, depth int) (*LookupResponse, error)
}

// LookupRequest is the request body for POST /v1/entities/lookup.
type LookupRequest struct {
	Query string `json:"query"`
	Depth int    `json:"depth"`
}

// LookupResponse is the parsed lookup response.
type LookupResponse struct {
	Entities []Entity `json:"entities"`
}

// Entity is a resolved graph node with its expanded relationships.
type Entity struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Score         float64        `json:"score"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// Relationship is one edge from an entity.
type Relationship struct {
	Predicate string `json:"predicate"`
	Target    string `json:"target"`
}

// FactText renders the entity and its relationships as a short prose
// passage usable as evidence text.
func (e Entity) FactText() string {
	text := e.Name
	if e.Description != "" {
		text += ": " + e.Description
	}
	for _, rel := range e.Relationships {
		text += ". " + e.Name + " " + rel.Predicate + " " + rel.Target
	}
	return text
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a graph lookup client for the given endpoint.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) LookupEntities(ctx context.Context, query string, depth int) (*LookupResponse, error) {
	body, err := json.Marshal(LookupRequest{Query: query, Depth: depth})
	if err != nil {
		return nil, eris.Wrap(err, "graphstore: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/entities/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "graphstore: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "graphstore: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "graphstore: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("graphstore: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result LookupResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "graphstore: unmarshal response")
	}

	return &result, nil
}
