// Package simbad implements the catalog port against the SIMBAD service:
// TAP for spectral types, the sim-id HTML page for cross-identifiers.
package simbad

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SpectraDL/internal/config"
	"SpectraDL/internal/ports"
)

// Client queries SIMBAD over HTTP.
type Client struct {
	tapURL     string
	simIDURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.CatalogClient = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.CatalogConfig, logger *slog.Logger) *Client {
	return &Client{
		tapURL:   cfg.TAPURL,
		simIDURL: cfg.SimIDURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
}

// SpectralType runs an ADQL query for the object's sp_type field and returns
// it untrimmed. An object SIMBAD does not know is a fatal error.
func (c *Client) SpectralType(ctx context.Context, name string) (string, error) {
	adql := fmt.Sprintf(
		"SELECT sp_type FROM basic JOIN ident ON oid = oidref WHERE id = '%s'",
		strings.ReplaceAll(name, "'", "''"),
	)

	params := url.Values{}
	params.Set("REQUEST", "doQuery")
	params.Set("LANG", "ADQL")
	params.Set("FORMAT", "json")
	params.Set("QUERY", adql)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tapURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query tap service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("simbad returned %s", resp.Status)
	}

	var payload struct {
		Data [][]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode tap response: %w", err)
	}

	if len(payload.Data) == 0 || len(payload.Data[0]) == 0 {
		return "", fmt.Errorf("object %q was not found in SIMBAD", name)
	}

	spType, ok := payload.Data[0][0].(string)
	if !ok || spType == "" {
		return "", fmt.Errorf("object %q has no spectral type in SIMBAD", name)
	}
	return spType, nil
}

// ObjectIDs scrapes the identifiers table of the sim-id page for the object.
func (c *Client) ObjectIDs(ctx context.Context, name string) ([]string, error) {
	params := url.Values{}
	params.Set("Ident", name)
	params.Set("output.format", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.simIDURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query sim-id page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simbad returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse sim-id page: %w", err)
	}

	var ids []string
	seen := map[string]struct{}{}
	doc.Find("table.ident td a").Each(func(i int, sel *goquery.Selection) {
		id := strings.Join(strings.Fields(sel.Text()), " ")
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})

	if len(ids) == 0 {
		return nil, fmt.Errorf("object %q was not found in SIMBAD", name)
	}
	return ids, nil
}
