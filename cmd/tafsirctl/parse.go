package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/tafsirgest/internal/doctree"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
	"github.com/dgallion1/tafsirgest/internal/parser"
)

// result is one input's outcome in command output.
type result struct {
	Source   string                   `json:"source"`
	Title    string                   `json:"title,omitempty"`
	Document *exegesis.ParsedDocument `json:"document,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

type parseOptions struct {
	intro       bool
	fontFamily  string
	fontSize    float64
	concurrency int
}

func (o *parseOptions) addFlags(cmd *cobra.Command) {
	def := exegesis.DefaultIntroConfig()
	cmd.Flags().BoolVar(&o.intro, "intro", false, "also read the introduction before the first verse")
	cmd.Flags().StringVar(&o.fontFamily, "intro-font", def.FontFamily, "font family of introduction section titles")
	cmd.Flags().Float64Var(&o.fontSize, "intro-size", def.FontSize, "font size of introduction section titles, in points")
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "c", 4, "documents parsed at once")
}

func (o *parseOptions) parser() *exegesis.Parser {
	if !o.intro {
		return exegesis.NewParser()
	}
	cfg := exegesis.DefaultIntroConfig()
	cfg.FontFamily = o.fontFamily
	cfg.FontSize = o.fontSize
	return exegesis.NewParser(exegesis.WithIntro(cfg))
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse .docx, .html or Docs API .json exports",
		Args:  cobra.MinimumNArgs(1),
	}
	opts := &parseOptions{}
	opts.addFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := opts.parser()
		results := runAll(cmd.Context(), args, opts.concurrency, func(_ context.Context, path string) result {
			doc, err := parseFile(p, path)
			if err != nil {
				return result{Source: path, Error: err.Error()}
			}
			return result{Source: path, Document: doc}
		})
		return emit(cmd.OutOrStdout(), results)
	}
	return cmd
}

func readBlocks(path string) (doctree.Blocks, error) {
	conv, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	blocks, err := conv.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return blocks, nil
}

func parseFile(p *exegesis.Parser, path string) (*exegesis.ParsedDocument, error) {
	blocks, err := readBlocks(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(blocks)
}

// runAll applies fn to every input with at most n running at once. Results
// keep input order.
func runAll(ctx context.Context, inputs []string, n int, fn func(context.Context, string) result) []result {
	if ctx == nil {
		ctx = context.Background()
	}
	if n <= 0 {
		n = 1
	}
	results := make([]result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = fn(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// emit writes results as JSON. A single input is written unwrapped.
func emit(w io.Writer, results []result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	var err error
	if len(results) == 1 {
		err = enc.Encode(results[0])
	} else {
		err = enc.Encode(results)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}
