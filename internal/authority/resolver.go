package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fidelis/internal/config"
	"fidelis/internal/domain"
	"fidelis/internal/metrics"
	"fidelis/internal/nfe"
)

// TaxIDProvider is the provider name reported for business-registry lookups.
const TaxIDProvider = "tax-id-registry"

// Resolver queries the configured registries in order and stops at the first usable
// record. It implements port.AuthorityResolver.
type Resolver struct {
	providers []*RegistryClient
	fallback  *RegistryClient
	taxIDURL  string
	client    *http.Client
	metrics   *metrics.Metrics
}

// NewResolver creates a Resolver from configuration. m may be nil.
func NewResolver(cfg *config.ResolverConfig, m *metrics.Metrics) *Resolver {
	timeout := cfg.Timeout()
	r := &Resolver{
		taxIDURL: cfg.TaxIDURL,
		client:   &http.Client{Timeout: timeout},
		metrics:  m,
	}
	for _, p := range cfg.Providers() {
		r.providers = append(r.providers, NewRegistryClient(p, cfg.ProxyURL, timeout))
	}
	if cfg.FallbackURL != "" {
		r.fallback = NewRegistryClient(config.RegistryProviderConfig{
			Name:        "fallback",
			URLTemplate: cfg.FallbackURL,
		}, "", timeout)
	}
	return r
}

// ResolveByKey returns the first usable registry record for key. Providers are tried
// sequentially and never retried; the simplified fallback lookup runs only after every
// provider has failed. The returned error wraps domain.ErrNoAuthorityRecord when
// nothing usable was found, and domain.ErrRegistryUnavailable when no endpoint answered.
func (r *Resolver) ResolveByKey(ctx context.Context, key string) (*domain.AuthorityRecord, error) {
	if len(key) != nfe.KeyLength || nfe.OnlyDigits(key) != key {
		return nil, domain.ErrInvalidKey
	}

	var (
		lastErr  error
		answered bool
	)
	for _, p := range r.providers {
		rec, err := r.lookup(ctx, p, key)
		if err == nil {
			return rec, nil
		}
		log.Printf("authority.Resolver: %s failed for key %s: %v", p.Name(), key, err)
		lastErr = err
		answered = answered || registryAnswered(err)
		if ctx.Err() != nil {
			return nil, r.missError(answered, ctx.Err())
		}
	}

	if r.fallback != nil {
		log.Printf("authority.Resolver: trying fallback lookup for key %s", key)
		rec, err := r.lookup(ctx, r.fallback, key)
		if err == nil {
			return rec, nil
		}
		log.Printf("authority.Resolver: fallback failed for key %s: %v", key, err)
		lastErr = err
		answered = answered || registryAnswered(err)
	}

	if lastErr == nil {
		return nil, domain.ErrNoAuthorityRecord
	}
	return nil, r.missError(answered, lastErr)
}

// missError wraps the last lookup failure. When no endpoint answered at all, the
// error also wraps domain.ErrRegistryUnavailable.
func (r *Resolver) missError(answered bool, err error) error {
	if answered {
		return fmt.Errorf("%w: %w", domain.ErrNoAuthorityRecord, err)
	}
	return fmt.Errorf("%w: %w: %w", domain.ErrNoAuthorityRecord, domain.ErrRegistryUnavailable, err)
}

// registryAnswered reports whether err came from a registry that responded: a 4xx
// status or a page without usable fields.
func registryAnswered(err error) bool {
	if errors.Is(err, errUnusable) {
		return true
	}
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode >= 400 && pe.StatusCode < 500
}

func (r *Resolver) lookup(ctx context.Context, p *RegistryClient, key string) (*domain.AuthorityRecord, error) {
	start := time.Now()
	rec, err := p.Lookup(ctx, key)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.metrics.ObserveProvider(p.Name(), outcome, time.Since(start))
	return rec, err
}

type companyResponse struct {
	CNPJ         string `json:"cnpj"`
	RazaoSocial  string `json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia"`
	Situacao     string `json:"descricao_situacao_cadastral"`
}

// ResolveByTaxID checks an issuer tax ID against the public business registry. The
// record carries no invoice value; it only confirms that an active company exists.
func (r *Resolver) ResolveByTaxID(ctx context.Context, taxID string) (*domain.AuthorityRecord, error) {
	digits := nfe.OnlyDigits(taxID)
	if !nfe.ValidCNPJ(digits) {
		return nil, domain.ErrInvalidTaxID
	}
	if r.taxIDURL == "" {
		return nil, domain.ErrNoAuthorityRecord
	}

	start := time.Now()
	rec, err := r.lookupTaxID(ctx, digits)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		log.Printf("authority.Resolver: tax id lookup failed for %s: %v", digits, err)
	}
	r.metrics.ObserveProvider(TaxIDProvider, outcome, time.Since(start))
	return rec, err
}

func (r *Resolver) lookupTaxID(ctx context.Context, digits string) (*domain.AuthorityRecord, error) {
	target := strings.ReplaceAll(r.taxIDURL, "{taxid}", url.PathEscape(digits))
	body, err := fetch(ctx, r.client, TaxIDProvider, target)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", domain.ErrNoAuthorityRecord, err)
		}
		return nil, err
	}

	var company companyResponse
	if err := json.Unmarshal(body, &company); err != nil {
		return nil, NewProviderError(TaxIDProvider, 0, fmt.Errorf("unmarshaling response: %w", err))
	}
	name := strings.TrimSpace(company.RazaoSocial)
	if name == "" {
		name = strings.TrimSpace(company.NomeFantasia)
	}
	if name == "" {
		return nil, NewProviderError(TaxIDProvider, 0, errors.New("response carries no company name"))
	}
	status := strings.TrimSpace(company.Situacao)
	if status != "" && !strings.EqualFold(status, "ativa") {
		return nil, fmt.Errorf("%w: company %s is %s", domain.ErrNoAuthorityRecord, digits, status)
	}

	return &domain.AuthorityRecord{
		IssuerTaxID: digits,
		IssuerName:  name,
		Status:      status,
		Provider:    TaxIDProvider,
	}, nil
}
