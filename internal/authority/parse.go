package authority

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"fidelis/internal/domain"
	"fidelis/internal/nfe"
)

var errUnusable = errors.New("response carries neither total value nor issuer tax id")

// Registry payloads have no schema, so each field is looked up under several names.
// Keys are compared lower-cased with "_", "-", "." and spaces removed.
var jsonAliases = struct {
	value, taxID, name, date, status []string
}{
	value:  []string{"valortotal", "vnf", "valornota", "valortotalnota", "totalvalue", "total", "valor"},
	taxID:  []string{"cnpjemitente", "emitentecnpj", "issuertaxid", "cnpj"},
	name:   []string{"razaosocial", "nomeemitente", "xnome", "issuername", "nome", "emitente"},
	date:   []string{"dataemissao", "dhemi", "demi", "issuedate", "emissao"},
	status: []string{"situacao", "situacaonfe", "status", "xmotivo"},
}

// rootOnlyKeys are too generic to trust below the top level: a nested "total" is
// often an item count or a tax subtotal.
var rootOnlyKeys = map[string]bool{"total": true, "valor": true}

const moneyText = `([0-9]{1,3}(?:\.[0-9]{3})+,[0-9]{2}|[0-9]+,[0-9]{2})`

var (
	valuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)valor\s+total\s*(?:da\s+nota(?:\s+fiscal)?|da\s+nf-?e|nf-?e)?\s*[:=]?\s*(?:R\$)?\s*` + moneyText),
		regexp.MustCompile(`(?i)vNF"?\s*[:=>]?\s*"?([0-9]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`(?i)total\s*[:=]?\s*R\$\s*` + moneyText),
	}
	taxIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)CNPJ\s*(?:do\s+)?(?:emitente)?\s*[:=]?\s*([0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2})`),
	}
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:nome\s*/\s*)?razao\s+social\s*[:=]?\s*([^\n]{3,120})`),
		regexp.MustCompile(`(?i)emitente\s*[:=]\s*([^\n]{3,120})`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)data\s+(?:de\s+)?emissao\s*[:=]?\s*([0-9]{2}/[0-9]{2}/[0-9]{4}|[0-9]{4}-[0-9]{2}-[0-9]{2})`),
		regexp.MustCompile(`(?i)dhEmi"?\s*[:=>]?\s*"?([0-9]{4}-[0-9]{2}-[0-9]{2})`),
		regexp.MustCompile(`(?i)emissao\s*[:=]?\s*([0-9]{2}/[0-9]{2}/[0-9]{4})`),
	}
	statusPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)situacao(?:\s+atual)?\s*[:=]?\s*([A-Za-z][A-Za-z ]{2,40})`),
		regexp.MustCompile(`(?i)status\s*[:=]\s*([A-Za-z][A-Za-z ]{2,40})`),
	}
)

// ParseRecord reads a registry response body. JSON is tried first; anything else (or JSON
// without usable fields) is reduced to text and scanned for field markers.
func ParseRecord(body []byte) (*domain.AuthorityRecord, error) {
	if rec, ok := parseJSON(body); ok && rec.Usable() {
		return rec, nil
	}
	rec := parseText(htmlText(body))
	if rec.Usable() {
		return rec, nil
	}
	return nil, errUnusable
}

func parseJSON(body []byte) (*domain.AuthorityRecord, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	fields := make(map[string]string)
	flattenJSON(v, fields, 0)
	if len(fields) == 0 {
		return nil, false
	}

	rec := &domain.AuthorityRecord{}
	applyValue(rec, lookup(fields, jsonAliases.value))
	applyTaxID(rec, lookup(fields, jsonAliases.taxID))
	rec.IssuerName = strings.TrimSpace(lookup(fields, jsonAliases.name))
	applyDate(rec, lookup(fields, jsonAliases.date))
	rec.Status = strings.TrimSpace(lookup(fields, jsonAliases.status))
	return rec, true
}

// flattenJSON collects scalar leaves by normalized key. Leaves closer to the root win,
// and siblings are visited in sorted order so the result does not depend on map order.
// Generic value keys are only taken from the top-level object.
func flattenJSON(v interface{}, out map[string]string, depth int) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var nested []interface{}
		for _, k := range keys {
			s, ok := scalar(t[k])
			if !ok {
				nested = append(nested, t[k])
				continue
			}
			nk := normalizeKey(k)
			if depth > 0 && rootOnlyKeys[nk] {
				continue
			}
			if _, exists := out[nk]; !exists && s != "" {
				out[nk] = s
			}
		}
		for _, n := range nested {
			flattenJSON(n, out, depth+1)
		}
	case []interface{}:
		// a top-level array of records counts as the top level
		for _, e := range t {
			flattenJSON(e, out, depth)
		}
	}
}

func scalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool, nil:
		return "", true
	default:
		return "", false
	}
}

var keyStripper = strings.NewReplacer("_", "", "-", "", ".", "", " ", "")

func normalizeKey(k string) string {
	return keyStripper.Replace(strings.ToLower(k))
}

func lookup(fields map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v, ok := fields[a]; ok {
			return v
		}
	}
	return ""
}

func parseText(text string) *domain.AuthorityRecord {
	text = nfe.FoldAccents(text)
	rec := &domain.AuthorityRecord{}
	applyValue(rec, firstMatch(text, valuePatterns))
	applyTaxID(rec, firstMatch(text, taxIDPatterns))
	rec.IssuerName = strings.TrimSpace(firstMatch(text, namePatterns))
	applyDate(rec, firstMatch(text, datePatterns))
	rec.Status = strings.TrimSpace(firstMatch(text, statusPatterns))
	return rec
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func applyValue(rec *domain.AuthorityRecord, raw string) {
	if raw == "" {
		return
	}
	if v, ok := nfe.ParseMoneyFloat(raw); ok && v > 0 {
		rec.TotalValue = v
		rec.HasTotalValue = true
	}
}

func applyTaxID(rec *domain.AuthorityRecord, raw string) {
	if d := nfe.OnlyDigits(raw); len(d) == 14 {
		rec.IssuerTaxID = d
	}
}

func applyDate(rec *domain.AuthorityRecord, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	if t, err := nfe.ParseDate(raw); err == nil {
		rec.IssueDate = t.Format("2006-01-02")
		return
	}
	rec.IssueDate = raw
}

// htmlText returns the visible text of an HTML page, one text node per line. Plain
// text passes through unchanged.
func htmlText(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if isHiddenTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isHiddenTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			t := strings.TrimSpace(string(z.Text()))
			if t == "" {
				continue
			}
			b.WriteString(t)
			b.WriteByte('\n')
		}
	}
}

func isHiddenTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}
