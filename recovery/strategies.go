package recovery

// StrictStrategy turns every warning into a failure.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnWarning(w *DecodeWarning) Action {
	return ActionFail
}

// LenientStrategy records warnings and lets decoding continue.
type LenientStrategy struct {
	Warnings []*DecodeWarning
	counts   map[WarningKind]int
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{counts: make(map[WarningKind]int)}
}

func (s *LenientStrategy) OnWarning(w *DecodeWarning) Action {
	if s.counts == nil {
		s.counts = make(map[WarningKind]int)
	}
	s.Warnings = append(s.Warnings, w)
	s.counts[w.Kind]++
	return ActionWarn
}

// Count returns how many warnings of kind were recorded.
func (s *LenientStrategy) Count(kind WarningKind) int {
	return s.counts[kind]
}

// QuietStrategy continues without recording, for callers that only watch
// the logs.
type QuietStrategy struct{}

func (QuietStrategy) OnWarning(*DecodeWarning) Action { return ActionSkip }
