package analyse

import (
	"time"

	"github.com/urieli/jochre-sub004/observability"
)

// Stats counts what an analyser has done. It belongs to one analyser and is
// not synchronised.
type Stats struct {
	Images    int
	Groups    int
	Letters   int
	Holdovers int
	Warnings  int
	// DeadHypotheses counts hypotheses dropped because no letter outcome
	// survived for their next shape.
	DeadHypotheses int
	Elapsed        time.Duration
}

// Metrics reports the counters under the standard metric names.
func (s Stats) Metrics() map[string]float64 {
	return map[string]float64{
		observability.MetricImageTime:      s.Elapsed.Seconds(),
		observability.MetricGroupCount:     float64(s.Groups),
		observability.MetricShapeCount:     float64(s.Letters),
		observability.MetricHoldoverCount:  float64(s.Holdovers),
		observability.MetricWarningCount:   float64(s.Warnings),
		observability.MetricDeadHypotheses: float64(s.DeadHypotheses),
	}
}

// ProgressFunc is told how many upstream shapes of the current image have
// been committed so far, out of total.
type ProgressFunc func(done, total int)

type progress struct {
	done, total int
	report      ProgressFunc
}

func (p *progress) reset(total int) {
	p.done, p.total = 0, total
}

func (p *progress) add(n int) {
	p.done += n
	if p.report != nil {
		p.report(p.done, p.total)
	}
}
