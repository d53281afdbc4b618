package heuristic

import (
	"fmt"
	"strings"

	"fidelis/internal/domain"
)

// Decision is the outcome of judging an OCR-only document.
type Decision struct {
	Rejected bool
	Reason   string
}

// Decide rejects a document with more findings than the policy allows or with an
// unreasonable total. Anything else is accepted for restricted processing.
func (e *Engine) Decide(a *Assessment) Decision {
	tooMany := len(a.SuspiciousPatterns) > e.policy.RejectAbove
	if !tooMany && a.HasReasonableValues {
		return Decision{Reason: joinFindings(a.SuspiciousPatterns)}
	}
	reason := joinFindings(a.SuspiciousPatterns)
	if !a.HasReasonableValues {
		reason = strings.TrimPrefix(reason+"; total value outside the accepted range", "; ")
	}
	if tooMany {
		reason = fmt.Sprintf("%d suspicious patterns: %s", len(a.SuspiciousPatterns), reason)
	}
	return Decision{Rejected: true, Reason: reason}
}

func joinFindings(patterns []domain.SuspiciousPattern) string {
	msgs := make([]string, 0, len(patterns))
	for _, p := range patterns {
		msgs = append(msgs, p.Message)
	}
	return strings.Join(msgs, "; ")
}
