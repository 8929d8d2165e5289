// Package recovery classifies the ways decoding can go wrong. Contract
// violations indicate an upstream bug and stop the decoder; decode warnings
// describe expected input variance (a classifier with no opinion, an empty
// group) and are handed to a Strategy that decides whether to continue.
package recovery

import (
	"errors"
	"fmt"

	"github.com/urieli/jochre-sub004/graphics"
)

// ErrContractViolation matches every *ContractViolation via errors.Is.
var ErrContractViolation = errors.New("contract violation")

// Location pins a problem to a place in the page hierarchy. Negative indexes
// mean "not applicable".
type Location struct {
	Image     string
	Paragraph int
	Row       int
	Group     int
	Shape     int
}

// Nowhere is the location of problems not tied to a page.
var Nowhere = Location{Paragraph: -1, Row: -1, Group: -1, Shape: -1}

// GroupLocation returns the location of g.
func GroupLocation(g *graphics.Group) Location {
	if g == nil {
		return Nowhere
	}
	return Location{
		Image:     g.Image().Name,
		Paragraph: g.Row.Paragraph.Index,
		Row:       g.Row.Index,
		Group:     g.Index,
		Shape:     -1,
	}
}

// WithShape returns a copy of l pointing at shape index i within the group.
func (l Location) WithShape(i int) Location {
	l.Shape = i
	return l
}

func (l Location) String() string {
	if l.Paragraph < 0 {
		return "-"
	}
	s := fmt.Sprintf("%s:p%dr%dg%d", l.Image, l.Paragraph, l.Row, l.Group)
	if l.Shape >= 0 {
		s += fmt.Sprintf("s%d", l.Shape)
	}
	return s
}

// ContractViolation reports a broken invariant of the decoder's data model.
type ContractViolation struct {
	Location Location
	Detail   string
}

// Violation builds a ContractViolation with no location.
func Violation(format string, args ...any) *ContractViolation {
	return &ContractViolation{Location: Nowhere, Detail: fmt.Sprintf(format, args...)}
}

// At returns a copy of the violation pinned to loc.
func (e *ContractViolation) At(loc Location) *ContractViolation {
	c := *e
	c.Location = loc
	return &c
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation at %s: %s", e.Location, e.Detail)
}

func (e *ContractViolation) Unwrap() error { return ErrContractViolation }

// WarningKind enumerates soft degenerate cases.
type WarningKind int

const (
	// NoOutcomes: the classifier kept no outcome above the probability
	// floor, so a hypothesis died.
	NoOutcomes WarningKind = iota
	// EmptyGroup: a group without shapes or without candidate segmentations.
	EmptyGroup
	// NoFinalHypotheses: every hypothesis died before covering the group.
	NoFinalHypotheses
	// ExtraOutcomes: a split classifier returned outcomes beyond
	// DO_SPLIT/DO_NOT_SPLIT; they were ignored.
	ExtraOutcomes
)

func (k WarningKind) String() string {
	switch k {
	case NoOutcomes:
		return "no-outcomes"
	case EmptyGroup:
		return "empty-group"
	case NoFinalHypotheses:
		return "no-final-hypotheses"
	case ExtraOutcomes:
		return "extra-outcomes"
	default:
		return fmt.Sprintf("warning(%d)", int(k))
	}
}

// DecodeWarning is a non-fatal problem observed while decoding.
type DecodeWarning struct {
	Kind     WarningKind
	Location Location
	Detail   string
}

func (w *DecodeWarning) Error() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s at %s", w.Kind, w.Location)
	}
	return fmt.Sprintf("%s at %s: %s", w.Kind, w.Location, w.Detail)
}

// Action tells the decoder how to proceed after a warning.
type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionWarn:
		return "warn"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Strategy decides what to do with a warning.
type Strategy interface {
	OnWarning(w *DecodeWarning) Action
}
