package nfe

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"fidelis/internal/domain"
)

const (
	// DefaultMaxWindows caps the brute-force window scan.
	DefaultMaxWindows = 50

	// barcodeSlide is how far the 44-digit window moves along a barcode run.
	barcodeSlide = 10

	// barcodeProximity is how close (in bytes) a run must sit to a barcode token.
	barcodeProximity = 120

	// regionAnchorReach is how deep into a run a region code may start.
	regionAnchorReach = 5
)

// separator-tolerant key text after a label: digits optionally split by spaces, dots,
// hyphens or commas.
const labeledKeyText = `([0-9][0-9 .,\-]{42,100}[0-9])`

var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`chave\s*de\s*acesso\s*[:.\-]?\s*` + labeledKeyText),
	regexp.MustCompile(`chave\s*(?:da\s*)?nf-?c?e\s*[:.\-]?\s*` + labeledKeyText),
	regexp.MustCompile(`chave\s*[:.\-]?\s*` + labeledKeyText),
	regexp.MustCompile(`codigo\s*[:.\-]?\s*` + labeledKeyText),
	regexp.MustCompile(`https?://\S*?[?&](?:p|chnfe|chave|chavenfe|nfe)=([0-9]{44})`),
	regexp.MustCompile(`https?://\S*?([0-9]{44})`),
}

var (
	barcodeTokenPattern = regexp.MustCompile(`codigo\s*de\s*barras|barcode|\|{3,}`)
	longRunPattern      = regexp.MustCompile(`[0-9]{44,}`)
	splitRunPattern     = regexp.MustCompile(`[0-9][0-9 .\-]{18,}[0-9]`)
)

// Extraction is the outcome of running every candidate strategy over one text.
type Extraction struct {
	Key       string
	Strategy  domain.ExtractionStrategy
	Structure *KeyStructure
	Attempted []domain.KeyCandidate
}

// Found reports whether a structurally valid key was extracted.
func (e *Extraction) Found() bool {
	return e != nil && e.Structure != nil
}

type strategy struct {
	name       domain.ExtractionStrategy
	candidates func(text string) []string
}

// Extractor runs candidate strategies in order and keeps the first structurally valid key.
type Extractor struct {
	strategies []strategy
	now        func() time.Time
}

// NewExtractor creates an Extractor with the labeled, barcode, region-anchor and
// brute-force strategies, tried in that order.
func NewExtractor(maxWindows int) *Extractor {
	return NewExtractorWithClock(maxWindows, time.Now)
}

// NewExtractorWithClock creates an Extractor whose structural checks use now (for testing).
func NewExtractorWithClock(maxWindows int, now func() time.Time) *Extractor {
	if maxWindows <= 0 {
		maxWindows = DefaultMaxWindows
	}
	return &Extractor{
		now: now,
		strategies: []strategy{
			{name: domain.StrategyLabeled, candidates: ExtractLabeledCandidates},
			{name: domain.StrategyBarcode, candidates: func(text string) []string {
				return barcodeCandidates(text, maxWindows)
			}},
			{name: domain.StrategyRegionAnchor, candidates: regionAnchorCandidates},
			{name: domain.StrategyBruteForce, candidates: func(text string) []string {
				return bruteForceWindows(text, maxWindows)
			}},
		},
	}
}

// Extract returns the first candidate, across all strategies, that passes structural
// validation. When none passes, Found() is false and Attempted lists every candidate tried.
func (x *Extractor) Extract(text string) *Extraction {
	out := &Extraction{}
	normalized := Normalize(text)
	if OnlyDigits(normalized) == "" {
		return out
	}
	now := x.now()
	seen := make(map[string]bool)
	for _, s := range x.strategies {
		for _, c := range s.candidates(normalized) {
			if seen[c] {
				continue
			}
			seen[c] = true
			out.Attempted = append(out.Attempted, domain.KeyCandidate{Digits: c, Strategy: s.name})
			ks, err := ValidateStructureAt(c, now)
			if err != nil {
				continue
			}
			out.Key = c
			out.Strategy = s.name
			out.Structure = ks
			return out
		}
	}
	return out
}

// ExtractLabeledCandidates finds keys written next to a label ("chave de acesso",
// "chave nfe", "chave", "codigo") or inside a URL. Digit groups after the label are
// joined until they add up to exactly 44 digits; trailing groups (a time or date on the
// same line) are ignored.
func ExtractLabeledCandidates(text string) []string {
	normalized := Normalize(text)
	var out []string
	seen := make(map[string]bool)
	for _, re := range labelPatterns {
		for _, m := range re.FindAllStringSubmatch(normalized, -1) {
			key, ok := joinLabeledGroups(m[1])
			if !ok || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// joinLabeledGroups concatenates the separator-delimited digit groups of s, stopping
// as soon as exactly KeyLength digits are collected. A group that would overshoot
// the key length means the text is not a key.
func joinLabeledGroups(s string) (string, bool) {
	groups := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '.' || r == ',' || r == '-'
	})
	var b strings.Builder
	for _, g := range groups {
		if b.Len()+len(g) > KeyLength {
			return "", false
		}
		b.WriteString(g)
		if b.Len() == KeyLength {
			return b.String(), isAllDigits(b.String())
		}
	}
	return "", false
}

// ExtractFromBarcodeRegion looks at digit runs of 44 or more digits, preferring runs close
// to barcode markers and then the longest runs, and returns the first window that is a
// structurally valid key.
func ExtractFromBarcodeRegion(text string) (string, bool) {
	return firstValid(barcodeCandidates(Normalize(text), DefaultMaxWindows))
}

// ExtractByRegionAnchor looks for a known region code near the start of a long digit run
// and returns the first structurally valid 44-digit key starting there.
func ExtractByRegionAnchor(text string) (string, bool) {
	return firstValid(regionAnchorCandidates(Normalize(text)))
}

// ExtractByBruteForceWindow concatenates every digit of text and yields one 44-digit
// window per offset, up to maxWindows windows.
func ExtractByBruteForceWindow(text string, maxWindows int) []string {
	if maxWindows <= 0 {
		maxWindows = DefaultMaxWindows
	}
	return bruteForceWindows(text, maxWindows)
}

func firstValid(candidates []string) (string, bool) {
	now := time.Now()
	for _, c := range candidates {
		if _, err := ValidateStructureAt(c, now); err == nil {
			return c, true
		}
	}
	return "", false
}

type digitRun struct {
	digits string
	start  int
	near   bool
}

// barcodeCandidates yields the leading windows of every long run, then windows anchored
// on region codes. Anchored windows are capped at maxAnchors across all runs.
func barcodeCandidates(text string, maxAnchors int) []string {
	tokens := barcodeTokenPattern.FindAllStringIndex(text, -1)
	var runs []digitRun
	for _, loc := range longRunPattern.FindAllStringIndex(text, -1) {
		runs = append(runs, digitRun{
			digits: text[loc[0]:loc[1]],
			start:  loc[0],
			near:   nearAny(loc, tokens),
		})
	}
	// runs next to a barcode marker first, in reading order; the rest longest first
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].near != runs[j].near {
			return runs[i].near
		}
		if runs[i].near {
			return runs[i].start < runs[j].start
		}
		return len(runs[i].digits) > len(runs[j].digits)
	})

	var out []string
	anchors := 0
	for _, r := range runs {
		tried := make(map[int]bool)
		for off := 0; off <= barcodeSlide && off+KeyLength <= len(r.digits); off++ {
			tried[off] = true
			out = append(out, r.digits[off:off+KeyLength])
		}
		for _, code := range RegionCodes {
			for _, off := range indexAll(r.digits, code) {
				if anchors >= maxAnchors {
					break
				}
				if tried[off] || off+KeyLength > len(r.digits) {
					continue
				}
				tried[off] = true
				anchors++
				out = append(out, r.digits[off:off+KeyLength])
			}
		}
	}
	return out
}

func regionAnchorCandidates(text string) []string {
	var runs []string
	for _, m := range splitRunPattern.FindAllString(text, -1) {
		if d := OnlyDigits(m); len(d) >= 20 {
			runs = append(runs, d)
		}
	}
	var out []string
	for _, code := range RegionCodes {
		for _, run := range runs {
			head := run
			if len(head) > regionAnchorReach+len(code) {
				head = head[:regionAnchorReach+len(code)]
			}
			idx := strings.Index(head, code)
			if idx < 0 || len(run)-idx < KeyLength {
				continue
			}
			out = append(out, run[idx:idx+KeyLength])
		}
	}
	return out
}

func bruteForceWindows(text string, maxWindows int) []string {
	digits := OnlyDigits(text)
	var out []string
	for off := 0; off+KeyLength <= len(digits) && len(out) < maxWindows; off++ {
		out = append(out, digits[off:off+KeyLength])
	}
	return out
}

func nearAny(loc []int, tokens [][]int) bool {
	for _, t := range tokens {
		if t[1] <= loc[0] && loc[0]-t[1] <= barcodeProximity {
			return true
		}
		if t[0] >= loc[1] && t[0]-loc[1] <= barcodeProximity {
			return true
		}
	}
	return false
}

func indexAll(s, sub string) []int {
	var out []int
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			out = append(out, i)
		}
	}
	return out
}
