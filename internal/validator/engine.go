package validator

import (
	"context"
	"errors"
	"log"
	"time"

	"fidelis/internal/domain"
	"fidelis/internal/heuristic"
	"fidelis/internal/metrics"
	"fidelis/internal/nfe"
	"fidelis/internal/port"
)

const (
	warningTaxIDOnly  = "issuer confirmed by tax id only; invoice total comes from OCR"
	warningOCROnly    = "no authority record available; OCR data accepted for restricted processing"
	warningDiscrepant = "authority data differs from OCR data"

	// DefaultProbeBudget bounds the generated-key probing phase.
	DefaultProbeBudget = 20 * time.Second
)

// Engine runs the full invoice validation pipeline: key extraction, authority
// resolution, tax-ID confirmation and heuristic fallback.
type Engine struct {
	extractor   *nfe.Extractor
	resolver    port.AuthorityResolver
	heuristics  *heuristic.Engine
	metrics     *metrics.Metrics
	maxProbes   int
	probeBudget time.Duration
	now         func() time.Time
}

// NewEngine creates a validation engine. maxProbes bounds how many generated keys are
// looked up after the extracted key is not found; zero disables probing. m may be nil.
func NewEngine(
	extractor *nfe.Extractor,
	resolver port.AuthorityResolver,
	heuristics *heuristic.Engine,
	m *metrics.Metrics,
	maxProbes int,
) *Engine {
	return &Engine{
		extractor:   extractor,
		resolver:    resolver,
		heuristics:  heuristics,
		metrics:     m,
		maxProbes:   maxProbes,
		probeBudget: DefaultProbeBudget,
		now:         time.Now,
	}
}

// SetProbeBudget replaces the deadline shared by all generated-key lookups of one
// validation. A non-positive d keeps the default.
func (e *Engine) SetProbeBudget(d time.Duration) {
	if d > 0 {
		e.probeBudget = d
	}
}

// ValidateInvoice decides which data to trust for one invoice. It always returns a
// result; registry failures only move the pipeline to its next stage.
func (e *Engine) ValidateInvoice(ctx context.Context, rawText string, extracted *domain.ExtractedInvoiceData) *domain.ValidationResult {
	start := time.Now()
	if extracted == nil {
		extracted = &domain.ExtractedInvoiceData{}
	}

	result := e.validate(ctx, rawText, extracted)

	e.metrics.IncrementOutcome(string(result.ValidationType), result.Success)
	e.metrics.ObserveValidationLatency(time.Since(start))
	log.Printf("validator.Engine: order %q finished as %s (success=%t, strategy=%q)",
		extracted.OrderNumber, result.ValidationType, result.Success, result.Strategy)
	return result
}

func (e *Engine) validate(ctx context.Context, rawText string, extracted *domain.ExtractedInvoiceData) *domain.ValidationResult {
	ext := e.extractor.Extract(rawText)
	e.metrics.IncrementStrategy(string(ext.Strategy))

	registryDown := false
	if ext.Found() {
		rec, err := e.resolver.ResolveByKey(ctx, ext.Key)
		if err == nil {
			validationType := domain.ValidationAuthorityKey
			if ext.Strategy == domain.StrategyBarcode {
				validationType = domain.ValidationAuthorityBarcodeKey
			}
			return e.authorityResult(extracted, rec, validationType, ext.Strategy, ext.Key)
		}
		log.Printf("validator.Engine: no authority record for %s key %s: %v", ext.Strategy, ext.Key, err)
		registryDown = errors.Is(err, domain.ErrRegistryUnavailable)
	} else {
		log.Printf("validator.Engine: no structurally valid key among %d candidates", len(ext.Attempted))
	}

	if registryDown {
		log.Printf("validator.Engine: registries unavailable, skipping generated keys")
	} else if res := e.probeGeneratedKeys(ctx, rawText, extracted, ext); res != nil {
		return res
	}

	if res := e.resolveTaxID(ctx, rawText, extracted, ext); res != nil {
		return res
	}

	return e.heuristicResult(rawText, extracted, ext)
}

// probeGeneratedKeys looks up keys derived from the extracted key (next invoice numbers)
// or, without one, keys completed from 43-digit runs. The lookups are capped by maxProbes
// and share one probeBudget deadline; probing stops once the registries stop answering.
func (e *Engine) probeGeneratedKeys(ctx context.Context, rawText string, extracted *domain.ExtractedInvoiceData, ext *nfe.Extraction) *domain.ValidationResult {
	if e.maxProbes <= 0 {
		return nil
	}
	var keys []string
	if ext.Found() {
		keys = nfe.NextSequenceKeys(ext.Key, e.maxProbes)
	} else {
		keys = nfe.CompleteKeys(rawText, e.maxProbes, e.now())
	}
	if len(keys) == 0 {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, e.probeBudget)
	defer cancel()
	for _, key := range keys {
		if probeCtx.Err() != nil {
			log.Printf("validator.Engine: probing stopped: %v", probeCtx.Err())
			return nil
		}
		rec, err := e.resolver.ResolveByKey(probeCtx, key)
		if errors.Is(err, domain.ErrRegistryUnavailable) {
			log.Printf("validator.Engine: registries unavailable while probing %s", key)
			return nil
		}
		if err != nil {
			continue
		}
		log.Printf("validator.Engine: generated key %s found by %s", key, rec.Provider)
		return e.authorityResult(extracted, rec, domain.ValidationAuthorityGeneratedKey, domain.StrategyGenerated, key)
	}
	return nil
}

func (e *Engine) authorityResult(
	extracted *domain.ExtractedInvoiceData,
	rec *domain.AuthorityRecord,
	validationType domain.ValidationType,
	strategy domain.ExtractionStrategy,
	key string,
) *domain.ValidationResult {
	comparison := e.heuristics.Compare(extracted, rec)

	data := &domain.TrustedInvoiceData{
		TotalValue:  extracted.TotalValue,
		IssueDate:   extracted.OrderDate,
		OrderNumber: extracted.OrderNumber,
		IssuerTaxID: rec.IssuerTaxID,
		IssuerName:  rec.IssuerName,
		Status:      rec.Status,
		AccessKey:   key,
		Source:      domain.SourceAuthority,
	}
	if rec.HasTotalValue {
		data.TotalValue = rec.TotalValue
	}
	if rec.IssueDate != "" {
		data.IssueDate = rec.IssueDate
	}

	res := &domain.ValidationResult{
		Success:        true,
		ValidationType: validationType,
		Data:           data,
		Strategy:       strategy,
		AccessKey:      key,
		Provider:       rec.Provider,
		Comparison:     comparison,
	}
	if len(comparison.Discrepancies) > 0 {
		res.Warning = warningDiscrepant
	}
	return res
}

// resolveTaxID tries the tax IDs found in the text, then the one embedded in the key.
func (e *Engine) resolveTaxID(ctx context.Context, rawText string, extracted *domain.ExtractedInvoiceData, ext *nfe.Extraction) *domain.ValidationResult {
	taxIDs := nfe.FindTaxIDs(rawText)
	if len(taxIDs) == 0 && ext.Found() && nfe.ValidCNPJ(ext.Structure.IssuerTaxID) {
		taxIDs = append(taxIDs, ext.Structure.IssuerTaxID)
	}
	for _, taxID := range taxIDs {
		rec, err := e.resolver.ResolveByTaxID(ctx, taxID)
		if err != nil {
			log.Printf("validator.Engine: tax id %s not confirmed: %v", taxID, err)
			continue
		}
		res := &domain.ValidationResult{
			Success:        true,
			ValidationType: domain.ValidationTaxIDValidated,
			Data: &domain.TrustedInvoiceData{
				TotalValue:  extracted.TotalValue,
				IssueDate:   extracted.OrderDate,
				OrderNumber: extracted.OrderNumber,
				IssuerTaxID: rec.IssuerTaxID,
				IssuerName:  rec.IssuerName,
				Status:      rec.Status,
				AccessKey:   ext.Key,
				Source:      domain.SourceTaxID,
			},
			Strategy:  ext.Strategy,
			AccessKey: ext.Key,
			Provider:  rec.Provider,
			Warning:   warningTaxIDOnly,
		}
		if !ext.Found() {
			res.AttemptedCandidates = ext.Attempted
		}
		return res
	}
	return nil
}

func (e *Engine) heuristicResult(rawText string, extracted *domain.ExtractedInvoiceData, ext *nfe.Extraction) *domain.ValidationResult {
	assessment := e.heuristics.AssessPlausibility(extracted, rawText)
	decision := e.heuristics.Decide(assessment)

	res := &domain.ValidationResult{
		Strategy:           ext.Strategy,
		AccessKey:          ext.Key,
		SuspiciousPatterns: assessment.SuspiciousPatterns,
	}
	if !ext.Found() {
		res.AttemptedCandidates = ext.Attempted
	}

	if decision.Rejected {
		res.ValidationType = domain.ValidationRejected
		res.Reason = decision.Reason
		return res
	}

	res.Success = true
	res.ValidationType = domain.ValidationOCRRestricted
	res.RestrictedProcessing = true
	res.Warning = warningOCROnly
	res.Reason = decision.Reason
	res.Data = &domain.TrustedInvoiceData{
		TotalValue:  extracted.TotalValue,
		IssueDate:   extracted.OrderDate,
		OrderNumber: extracted.OrderNumber,
		AccessKey:   ext.Key,
		Source:      domain.SourceOCR,
	}
	return res
}
