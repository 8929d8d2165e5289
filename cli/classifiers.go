package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urieli/jochre-sub004/boundary"
	"github.com/urieli/jochre-sub004/decision/script"
	"github.com/urieli/jochre-sub004/letter"
	"github.com/urieli/jochre-sub004/letter/tesseract"
)

// Script entry points.
const (
	letterFunction = "guess"
	splitFunction  = "split"
)

// letterGuesser returns a scripted guesser when scriptPath is set, and a
// Tesseract guesser for the given languages otherwise.
func letterGuesser(ctx context.Context, scriptPath string, languages []string) (letter.Guesser, error) {
	if scriptPath == "" {
		if len(languages) == 0 {
			return nil, fmt.Errorf("either --letters or --tesseract is required")
		}
		return tesseract.NewGuesser(languages...), nil
	}
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("read letter classifier: %w", err)
	}
	c, err := script.New[letter.Context](string(src), letterFunction, func(c letter.Context) any { return c.View() })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", scriptPath, err)
	}
	return c.WithContext(ctx), nil
}

// splitEvaluator loads a scripted split classifier.
func splitEvaluator(ctx context.Context, scriptPath string) (boundary.SplitEvaluator, error) {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("read split classifier: %w", err)
	}
	c, err := script.New[boundary.SplitContext](string(src), splitFunction, func(c boundary.SplitContext) any { return c.View() })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", scriptPath, err)
	}
	return c.WithContext(ctx), nil
}
