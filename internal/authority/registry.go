package authority

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fidelis/internal/config"
	"fidelis/internal/domain"
)

// maxBodyBytes bounds how much of a registry page is read.
const maxBodyBytes = 4 << 20

// RegistryClient looks up access keys on one registry endpoint.
type RegistryClient struct {
	name        string
	urlTemplate string
	proxyURL    string
	client      *http.Client
}

// NewRegistryClient creates a client for one provider. When proxyURL is set, the
// provider URL is query-escaped and appended to it.
func NewRegistryClient(cfg config.RegistryProviderConfig, proxyURL string, timeout time.Duration) *RegistryClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &RegistryClient{
		name:        cfg.Name,
		urlTemplate: cfg.URLTemplate,
		proxyURL:    proxyURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name used in logs, metrics and results.
func (c *RegistryClient) Name() string {
	return c.name
}

// RequestURL returns the URL requested for key.
func (c *RegistryClient) RequestURL(key string) string {
	target := strings.ReplaceAll(c.urlTemplate, "{key}", url.QueryEscape(key))
	if c.proxyURL == "" {
		return target
	}
	return c.proxyURL + url.QueryEscape(target)
}

// Lookup fetches and parses the registry record for key.
func (c *RegistryClient) Lookup(ctx context.Context, key string) (*domain.AuthorityRecord, error) {
	body, err := fetch(ctx, c.client, c.name, c.RequestURL(key))
	if err != nil {
		return nil, err
	}
	rec, err := ParseRecord(body)
	if err != nil {
		return nil, NewProviderError(c.name, 0, err)
	}
	rec.Provider = c.name
	rec.AccessKey = key
	return rec, nil
}

func fetch(ctx context.Context, client *http.Client, provider, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, NewProviderError(provider, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewProviderError(provider, 0, fmt.Errorf("calling registry: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, NewProviderError(provider, 0, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewProviderError(provider, resp.StatusCode, fmt.Errorf("unexpected response: %s", truncate(string(body), 200)))
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
