// Package dace implements the archive ports against the DACE HTTP API.
package dace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SpectraDL/internal/config"
	"SpectraDL/internal/domain"
	"SpectraDL/internal/ports"
)

const apiKeyHeader = "Authorization"

// Client talks to the DACE spectroscopy endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	rcPath     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ArchiveClient = (*Client)(nil)

// NewClient builds a client from configuration. Metadata calls are quick but
// bundle retrievals are not, hence the generous timeout.
func NewClient(cfg config.ArchiveConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		rcPath:  cfg.RCPath,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		logger: logger,
	}
}

// SwitchProfile swaps the active API key to the one stored under the named
// profile in the rc file.
func (c *Client) SwitchProfile(profile string) error {
	profiles, err := loadProfiles(c.rcPath)
	if err != nil {
		return err
	}

	key, ok := profiles[profile]
	if !ok {
		return fmt.Errorf("profile %q is not defined in %s", profile, c.rcPath)
	}

	c.apiKey = key
	if c.logger != nil {
		c.logger.Info("switched archive credentials", "profile", profile)
	}
	return nil
}

// Timeseries fetches the nested instrument → pipeline → mode → metrics tree
// for a target.
func (c *Client) Timeseries(ctx context.Context, target string) (domain.TimeSeries, error) {
	params := url.Values{}
	params.Set("target", target)
	params.Set("sortedByInstrument", "true")
	endpoint := fmt.Sprintf("%s/spectroscopy/timeseries?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query timeseries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("target %q is unknown to the archive", target)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive returned %s", resp.Status)
	}

	var tree domain.TimeSeries
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode timeseries: %w", err)
	}

	return tree, nil
}

// DownloadFiles asks the archive to bundle the given files and streams the
// resulting tar.gz to outputDir/outputName.
func (c *Client) DownloadFiles(ctx context.Context, files []string, outputDir, fileType, outputName string) error {
	body, err := json.Marshal(map[string]any{
		"fileType": fileType,
		"files":    files,
	})
	if err != nil {
		return fmt.Errorf("marshal download request: %w", err)
	}

	endpoint := c.baseURL + "/spectroscopy/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request bundle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive returned %s", resp.Status)
	}

	target := filepath.Join(outputDir, outputName)
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, "Bearer "+c.apiKey)
	}
}
