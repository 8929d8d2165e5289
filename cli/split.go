package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/urieli/jochre-sub004/boundary"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/recovery"
)

type splitOptions struct {
	page   string
	shape  int
	splits string
}

func newSplitCmd(a *app) *cobra.Command {
	var opts splitOptions
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Show the ranked segmentations of one shape",
		Long: `Run the recursive shape splitter on a single shape and print every
segmentation it keeps, best first, with its score and the pieces it cuts.

Shapes are numbered in page order starting at 0.

Example:
  jochre split --page scan-7.json --shape 12 --splits splits.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.page, "page", "p", "", "page description (JSON)")
	cmd.Flags().IntVar(&opts.shape, "shape", 0, "shape number")
	cmd.Flags().StringVarP(&opts.splits, "splits", "s", "", "split classifier script defining split(ctx)")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("splits")
	return cmd
}

func runSplit(ctx context.Context, a *app, opts splitOptions, out io.Writer) error {
	img, err := loadPage(opts.page, a.cfg.Direction())
	if err != nil {
		return err
	}
	group := findGroup(img, graphics.ShapeID(opts.shape))
	if group == nil {
		return recovery.Violation("page %s has no shape %d", opts.page, opts.shape)
	}
	evaluator, err := splitEvaluator(ctx, opts.splits)
	if err != nil {
		return err
	}
	splitter := boundary.NewRecursiveShapeSplitter(a.cfg.SplitFinder(), evaluator, a.cfg.SplitterConfig(),
		boundary.WithLogger(a.logger), boundary.WithStrategy(a.cfg.Strategy()))
	seqs, err := splitter.Split(group, graphics.ShapeID(opts.shape))
	if err != nil {
		return err
	}
	for i, seq := range seqs {
		pieces := make([]string, 0, seq.Len())
		for _, sis := range seq.Shapes() {
			pieces = append(pieces, img.Arena.Shape(sis.Shape).Rect.String())
		}
		if _, err := fmt.Fprintf(out, "%d\t%.4f\t%s\n", i, seq.Score(), strings.Join(pieces, " ")); err != nil {
			return err
		}
	}
	return nil
}

// findGroup returns the group holding an upstream shape.
func findGroup(img *graphics.Image, id graphics.ShapeID) *graphics.Group {
	for _, p := range img.Paragraphs {
		for _, r := range p.Rows {
			for _, g := range r.Groups {
				for _, s := range g.Shapes {
					if s == id {
						return g
					}
				}
			}
		}
	}
	return nil
}
