package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/go-text/typesetting/di"
	"github.com/spf13/cobra"

	"github.com/urieli/jochre-sub004/analyse"
	"github.com/urieli/jochre-sub004/boundary"
	"github.com/urieli/jochre-sub004/config"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/lexicon"
	"github.com/urieli/jochre-sub004/observability"
	"github.com/urieli/jochre-sub004/sequence"
)

type decodeOptions struct {
	pages     []string
	letters   string
	splits    string
	tesseract []string
	lexicon   string
	format    string
}

func newDecodeCmd(a *app) *cobra.Command {
	var opts decodeOptions
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode segmented pages into text",
		Long: `Decode one or more segmented pages and print their text, one line per row.

Examples:
  jochre decode --page scan-7.json --letters letters.js
  jochre decode --page scan-7.json --letters letters.js --splits splits.js --lexicon yiddish.txt
  jochre decode --page scan-7.json --tesseract yid --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDecode(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVarP(&opts.pages, "page", "p", nil, "page description (JSON), may be repeated")
	cmd.Flags().StringVarP(&opts.letters, "letters", "l", "", "letter classifier script defining guess(ctx)")
	cmd.Flags().StringVarP(&opts.splits, "splits", "s", "", "split classifier script defining split(ctx)")
	cmd.Flags().StringSliceVar(&opts.tesseract, "tesseract", nil, "guess letters with Tesseract using these languages")
	cmd.Flags().StringVar(&opts.lexicon, "lexicon", "", "word frequency file (word<TAB>count), overrides the config")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

func runDecode(ctx context.Context, a *app, opts decodeOptions, out io.Writer) error {
	cfg := a.cfg
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	guesser, err := letterGuesser(ctx, opts.letters, opts.tesseract)
	if err != nil {
		return err
	}
	if closer, ok := guesser.(io.Closer); ok {
		defer closer.Close()
	}
	detector, err := buildDetector(ctx, cfg, opts.splits, a.logger)
	if err != nil {
		return err
	}

	strategy := cfg.Strategy()
	collector := newResultCollector()
	analyserOpts := []analyse.Option{
		analyse.WithScoring(cfg.Scoring()),
		analyse.WithLogger(a.logger),
		analyse.WithTracer(observability.NewLogTracer(a.logger)),
		analyse.WithStrategy(strategy),
		analyse.WithObserver(collector),
		analyse.WithProgress(func(done, total int) {
			a.logger.Debug("progress", observability.Int("shapes", done), observability.Int("total", total))
		}),
	}
	var lex *lexicon.TextLexicon
	if path := firstNonEmpty(opts.lexicon, cfg.Lexicon.Path); path != "" {
		lex, err = lexicon.LoadFile(path, lexicon.WithStripMarks(cfg.Lexicon.StripMarks))
		if err != nil {
			return err
		}
		chooser := lexicon.NewMostLikelyWordChooser(lex)
		chooser.UnknownWordFactor = cfg.Lexicon.UnknownWordFactor
		chooser.LogBase = cfg.Lexicon.LogBase
		analyserOpts = append(analyserOpts, analyse.WithWordChooser(chooser))
		a.logger.Debug("lexicon loaded", observability.String("path", path), observability.Int("words", lex.Len()))
	}
	analyser := analyse.NewBeamSearchAnalyser(detector, guesser, cfg.AnalyserConfig(), analyserOpts...)

	dir := readingDirection(cfg, lex)
	for _, path := range opts.pages {
		img, err := loadPage(path, dir)
		if err != nil {
			return err
		}
		if err := analyser.Analyse(ctx, img); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	analyser.Finish()

	stats := analyser.Stats()
	metrics := stats.Metrics()
	fields := []observability.Field{observability.Int("images", stats.Images)}
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		fields = append(fields, observability.Float64(name, metrics[name]))
	}
	a.logger.Info("decode finished", fields...)

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(collector.groups)
	}
	for _, row := range collector.text.Rows() {
		if _, err := fmt.Fprintln(out, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}

// buildDetector picks the boundary detector configured for the run.
func buildDetector(ctx context.Context, cfg config.Config, splitsPath string, logger observability.Logger) (boundary.Detector, error) {
	mode := cfg.Splitter.Mode
	if splitsPath != "" && mode == config.SegmentOriginal {
		mode = config.SegmentProbabilistic
	}
	if mode == config.SegmentOriginal {
		return boundary.OriginalBoundaryDetector{}, nil
	}
	if splitsPath == "" {
		return nil, fmt.Errorf("segmentation mode %s needs --splits", mode)
	}
	evaluator, err := splitEvaluator(ctx, splitsPath)
	if err != nil {
		return nil, err
	}
	finder := cfg.SplitFinder()
	if mode == config.SegmentDeterministic {
		return boundary.NewDeterministicBoundaryDetector(finder, evaluator, cfg.SplitterConfig(), cfg.Splitter.MinProbForDecision), nil
	}
	splitter := boundary.NewRecursiveShapeSplitter(finder, evaluator, cfg.SplitterConfig(),
		boundary.WithLogger(logger), boundary.WithStrategy(cfg.Strategy()))
	return boundary.NewProbabilisticBoundaryDetector(splitter, cfg.Splitter.BeamWidth), nil
}

// readingDirection returns the configured direction, or under LocaleAuto the
// direction of the lexicon's script.
func readingDirection(cfg config.Config, lex *lexicon.TextLexicon) di.Direction {
	if cfg.Locale != config.LocaleAuto || lex == nil {
		return cfg.Direction()
	}
	return graphics.ScriptDirection(lex.Script())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// groupResult is one committed group in JSON output.
type groupResult struct {
	Image    string  `json:"image"`
	Group    string  `json:"group"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Adjusted float64 `json:"adjusted"`
	Shapes   int     `json:"shapes"`
	// Words holds the lexicon frequency of every word in the group.
	Words []wordResult `json:"words,omitempty"`
}

type wordResult struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

// resultCollector gathers committed groups and the text of every row.
type resultCollector struct {
	analyse.BaseObserver
	text   *analyse.TextCollector
	groups []groupResult
}

func newResultCollector() *resultCollector {
	return &resultCollector{text: analyse.NewTextCollector()}
}

func (c *resultCollector) OnImageStart(img *graphics.Image) {
	c.text.OnImageStart(img)
}

func (c *resultCollector) OnGuessSequence(g *graphics.Group, seq *sequence.LetterSequence) {
	c.text.OnGuessSequence(g, seq)
	res := groupResult{
		Image:    g.Image().Name,
		Group:    g.Key(),
		Text:     seq.Text(),
		Score:    seq.Score(),
		Adjusted: seq.AdjustedScore(),
		Shapes:   seq.Len(),
	}
	for _, f := range seq.WordFrequencies() {
		res.Words = append(res.Words, wordResult{Word: f.Word, Frequency: f.Frequency})
	}
	c.groups = append(c.groups, res)
}

func (c *resultCollector) OnImageEnd(img *graphics.Image) {
	c.text.OnImageEnd(img)
}
