// Command keyscan runs the invoice validation pipeline over one OCR text and prints
// the result as JSON. It reads the text from -file or stdin.
// Usage: go run ./cmd/keyscan -file receipt.txt -total "R$ 153,87"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"fidelis/internal/authority"
	"fidelis/internal/config"
	"fidelis/internal/domain"
	"fidelis/internal/heuristic"
	"fidelis/internal/nfe"
	"fidelis/internal/validator"
)

type options struct {
	file        string
	total       string
	date        string
	order       string
	extractOnly bool
}

// extractionReport is printed in -extract-only mode.
type extractionReport struct {
	Key       string                    `json:"key,omitempty"`
	Strategy  domain.ExtractionStrategy `json:"strategy,omitempty"`
	Structure *nfe.KeyStructure         `json:"structure,omitempty"`
	Attempted []domain.KeyCandidate     `json:"attempted_candidates,omitempty"`
	TaxIDs    []string                  `json:"tax_ids,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "file holding the OCR text (default stdin)")
	flag.StringVar(&opts.total, "total", "", "extracted total value, e.g. \"R$ 1.234,56\"")
	flag.StringVar(&opts.date, "date", "", "extracted order date (DD/MM/YYYY or YYYY-MM-DD)")
	flag.StringVar(&opts.order, "order", "", "extracted order number")
	flag.BoolVar(&opts.extractOnly, "extract-only", false, "only run key extraction, no registry lookups")
	flag.Parse()

	if err := run(context.Background(), &opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts *options, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	text, err := readText(opts.file, stdin)
	if err != nil {
		return err
	}

	extractor := nfe.NewExtractor(cfg.Resolver.MaxWindows)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if opts.extractOnly {
		ext := extractor.Extract(text)
		return enc.Encode(extractionReport{
			Key:       ext.Key,
			Strategy:  ext.Strategy,
			Structure: ext.Structure,
			Attempted: ext.Attempted,
			TaxIDs:    nfe.FindTaxIDs(text),
		})
	}

	extracted := &domain.ExtractedInvoiceData{OrderDate: opts.date, OrderNumber: opts.order}
	if opts.total != "" {
		v, ok := nfe.ParseMoneyFloat(opts.total)
		if !ok {
			return fmt.Errorf("invalid -total %q", opts.total)
		}
		extracted.TotalValue = v
	}

	engine := validator.NewEngine(
		extractor,
		authority.NewResolver(&cfg.Resolver, nil),
		heuristic.NewEngine(heuristic.PolicyFromConfig(&cfg.Heuristics)),
		nil,
		cfg.Resolver.GeneratedKeyProbes,
	)
	engine.SetProbeBudget(cfg.Resolver.ProbeBudget())
	return enc.Encode(engine.ValidateInvoice(ctx, text, extracted))
}

func readText(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(b), nil
}
