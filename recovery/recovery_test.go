package recovery_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-text/typesetting/di"

	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/recovery"
)

func TestContractViolationMatchesSentinel(t *testing.T) {
	img := graphics.NewImage("scan-7", di.DirectionRTL)
	row := img.AddParagraph().AddRow(0)
	row.AddGroup()
	g := row.AddGroup()

	err := fmt.Errorf("analyse: %w", recovery.Violation("letters %d > shapes %d", 3, 2).At(recovery.GroupLocation(g).WithShape(2)))
	if !errors.Is(err, recovery.ErrContractViolation) {
		t.Fatalf("wrapped violation should match sentinel")
	}
	var cv *recovery.ContractViolation
	if !errors.As(err, &cv) {
		t.Fatalf("errors.As failed")
	}
	if got := cv.Location.String(); got != "scan-7:p0r0g1s2" {
		t.Fatalf("unexpected location %q", got)
	}
	if !strings.Contains(err.Error(), "letters 3 > shapes 2") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestStrategies(t *testing.T) {
	w := &recovery.DecodeWarning{Kind: recovery.NoOutcomes, Location: recovery.Nowhere, Detail: "shape 4"}

	t.Run("StrictStrategy", func(t *testing.T) {
		if got := recovery.NewStrictStrategy().OnWarning(w); got != recovery.ActionFail {
			t.Fatalf("strict strategy returned %v", got)
		}
	})

	t.Run("LenientStrategy", func(t *testing.T) {
		rec := recovery.NewLenientStrategy()
		if got := rec.OnWarning(w); got != recovery.ActionWarn {
			t.Fatalf("lenient strategy returned %v", got)
		}
		rec.OnWarning(&recovery.DecodeWarning{Kind: recovery.EmptyGroup, Location: recovery.Nowhere})
		if len(rec.Warnings) != 2 || rec.Count(recovery.NoOutcomes) != 1 || rec.Count(recovery.EmptyGroup) != 1 {
			t.Fatalf("unexpected bookkeeping: %d warnings", len(rec.Warnings))
		}
	})

	t.Run("ZeroValueLenientStrategy", func(t *testing.T) {
		var rec recovery.LenientStrategy
		rec.OnWarning(w)
		if rec.Count(recovery.NoOutcomes) != 1 {
			t.Fatalf("zero value should be usable")
		}
	})
}

func TestWarningMessage(t *testing.T) {
	w := &recovery.DecodeWarning{Kind: recovery.NoFinalHypotheses, Location: recovery.Nowhere}
	if w.Error() != "no-final-hypotheses at -" {
		t.Fatalf("unexpected message %q", w.Error())
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{recovery.ActionFail.String(), "fail"},
		{recovery.ActionWarn.String(), "warn"},
		{recovery.Action(7).String(), "action(7)"},
		{recovery.ExtraOutcomes.String(), "extra-outcomes"},
		{recovery.WarningKind(9).String(), "warning(9)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
