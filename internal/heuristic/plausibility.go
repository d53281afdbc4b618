package heuristic

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"fidelis/internal/domain"
	"fidelis/internal/nfe"
)

// Finding codes raised by the plausibility checks.
const (
	CodeFewItemLines       = "few-item-lines"
	CodeRoundLowValue      = "round-low-value"
	CodeValueTooLow        = "value-too-low"
	CodeHighValueShortText = "high-value-short-text"
	CodeLowIntegerValue    = "low-integer-value"
	CodeTextTooShort       = "text-too-short"
	CodeMissingMarkers     = "missing-invoice-markers"
	CodeMalformedText      = "malformed-text"
	CodeShortTokens        = "short-tokens"
	CodeRepeatedWords      = "repeated-words"
)

const (
	minItemLines            = 2
	minMarkers              = 3
	shortTokenLen           = 3
	repeatedWordsMinTokens  = 10
	repeatedWordsMaxRatio   = 0.7
	roundValueCeiling       = 100
	roundValueMultiple      = 10
	shortTokenMaxProportion = 0.5
)

var (
	moneyPattern = regexp.MustCompile(`(?:r\$\s*)?[0-9]+(?:[.,][0-9]{3})*[.,][0-9]{2}\b`)
	digitsRun    = regexp.MustCompile(`[0-9]+`)
)

// Invoice-content markers, matched on normalized text.
var markerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bcnpj\b|\bcpf\b|inscricao\s+estadual`),
	regexp.MustCompile(`razao\s+social|\bnome\b|\bltda\b|\beireli\b|\bempresa\b|\bloja\b|\bmercado\b|\bcomercio\b|\bs/?a\b`),
	regexp.MustCompile(`\brua\b|\bavenida\b|\bav\.|endereco|\bbairro\b|\bcep\b|\bcidade\b`),
	regexp.MustCompile(`[0-9]{2}/[0-9]{2}/[0-9]{2,4}|\bdata\b|emissao`),
	regexp.MustCompile(`\btotal\b|\bvalor\b|r\$`),
}

// Assessment is the result of the plausibility battery.
type Assessment struct {
	HasReasonableValues     bool
	HasConsistentFormatting bool
	SuspiciousPatterns      []domain.SuspiciousPattern
}

type textFacts struct {
	normalized string
	length     int
	lines      []string
	tokens     []string
	hasDigit   bool
	hasLetter  bool
}

func newTextFacts(raw string) *textFacts {
	normalized := nfe.Normalize(raw)
	f := &textFacts{
		normalized: normalized,
		length:     utf8.RuneCountInString(strings.TrimSpace(raw)),
		lines:      strings.Split(normalized, "\n"),
		tokens:     strings.Fields(normalized),
	}
	for _, r := range normalized {
		if unicode.IsDigit(r) {
			f.hasDigit = true
		} else if unicode.IsLetter(r) {
			f.hasLetter = true
		}
	}
	return f
}

type plausibilityCheck struct {
	code    string
	message func(v float64, f *textFacts, p Policy) string
	fires   func(v float64, f *textFacts, p Policy) bool
}

func staticMessage(msg string) func(float64, *textFacts, Policy) string {
	return func(float64, *textFacts, Policy) string { return msg }
}

var plausibilityChecks = []plausibilityCheck{
	{
		code:    CodeFewItemLines,
		message: staticMessage("fewer than 2 lines look like priced product lines"),
		fires: func(_ float64, f *textFacts, _ Policy) bool {
			return countItemLines(f.lines) < minItemLines
		},
	},
	{
		code: CodeRoundLowValue,
		message: func(v float64, _ *textFacts, _ Policy) string {
			return fmt.Sprintf("total %.2f is a round amount under %d", v, roundValueCeiling)
		},
		fires: func(v float64, _ *textFacts, _ Policy) bool {
			return v > 0 && v < roundValueCeiling && math.Mod(v, roundValueMultiple) == 0
		},
	},
	{
		code: CodeValueTooLow,
		message: func(v float64, _ *textFacts, p Policy) string {
			return fmt.Sprintf("total %.2f is below the minimum of %.2f", v, p.MinValue)
		},
		fires: func(v float64, _ *textFacts, p Policy) bool {
			return v < p.MinValue
		},
	},
	{
		code: CodeHighValueShortText,
		message: func(v float64, f *textFacts, _ Policy) string {
			return fmt.Sprintf("total %.2f comes from only %d characters of text", v, f.length)
		},
		fires: func(v float64, f *textFacts, p Policy) bool {
			return v > p.HighValue && f.length < p.HighValueMinTextLen
		},
	},
	{
		code: CodeLowIntegerValue,
		message: func(v float64, _ *textFacts, _ Policy) string {
			return fmt.Sprintf("total %.0f is a low whole number", v)
		},
		fires: func(v float64, _ *textFacts, p Policy) bool {
			return v > 0 && v <= p.LowIntegerMax && v == math.Trunc(v)
		},
	},
	{
		code: CodeTextTooShort,
		message: func(_ float64, f *textFacts, p Policy) string {
			return fmt.Sprintf("text has %d characters, fewer than %d", f.length, p.MinTextLen)
		},
		fires: func(_ float64, f *textFacts, p Policy) bool {
			return f.length < p.MinTextLen
		},
	},
	{
		code: CodeMissingMarkers,
		message: func(_ float64, f *textFacts, _ Policy) string {
			return fmt.Sprintf("only %d of %d invoice markers present", countMarkers(f.normalized), len(markerPatterns))
		},
		fires: func(_ float64, f *textFacts, _ Policy) bool {
			return countMarkers(f.normalized) < minMarkers
		},
	},
	{
		code:    CodeMalformedText,
		message: staticMessage("text lacks digits or letters entirely"),
		fires: func(_ float64, f *textFacts, _ Policy) bool {
			return !f.hasDigit || !f.hasLetter
		},
	},
	{
		code:    CodeShortTokens,
		message: staticMessage("most words are shorter than 3 characters"),
		fires: func(_ float64, f *textFacts, _ Policy) bool {
			return shortTokenShare(f.tokens) > shortTokenMaxProportion
		},
	},
	{
		code: CodeRepeatedWords,
		message: func(_ float64, f *textFacts, _ Policy) string {
			return fmt.Sprintf("%.0f%% of words are repeats", duplicateRatio(f.tokens)*100)
		},
		fires: func(_ float64, f *textFacts, _ Policy) bool {
			return len(f.tokens) >= repeatedWordsMinTokens && duplicateRatio(f.tokens) > repeatedWordsMaxRatio
		},
	},
}

// AssessPlausibility runs every check against the OCR data and raw text. Checks are
// independent and several may fire.
func (e *Engine) AssessPlausibility(extracted *domain.ExtractedInvoiceData, rawText string) *Assessment {
	var value float64
	if extracted != nil {
		value = extracted.TotalValue
	}
	facts := newTextFacts(rawText)

	a := &Assessment{
		HasReasonableValues:     value >= e.policy.MinValue && value <= e.policy.MaxValue,
		HasConsistentFormatting: facts.hasDigit && facts.hasLetter && shortTokenShare(facts.tokens) <= shortTokenMaxProportion,
		SuspiciousPatterns:      []domain.SuspiciousPattern{},
	}
	for _, c := range plausibilityChecks {
		if c.fires(value, facts, e.policy) {
			a.SuspiciousPatterns = append(a.SuspiciousPatterns, domain.SuspiciousPattern{
				Code:    c.code,
				Message: c.message(value, facts, e.policy),
			})
		}
	}
	return a
}

// countItemLines counts lines carrying a price plus some other number (quantity or code).
func countItemLines(lines []string) int {
	n := 0
	for _, line := range lines {
		if !moneyPattern.MatchString(line) {
			continue
		}
		rest := moneyPattern.ReplaceAllString(line, " ")
		if digitsRun.MatchString(rest) {
			n++
		}
	}
	return n
}

func countMarkers(normalized string) int {
	n := 0
	for _, re := range markerPatterns {
		if re.MatchString(normalized) {
			n++
		}
	}
	return n
}

func shortTokenShare(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	short := 0
	for _, t := range tokens {
		if utf8.RuneCountInString(t) < shortTokenLen {
			short++
		}
	}
	return float64(short) / float64(len(tokens))
}

func duplicateRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	return 1 - float64(len(unique))/float64(len(tokens))
}
