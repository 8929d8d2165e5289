// Package script evaluates classifiers written in JavaScript. A script
// defines a function that receives the decision context as a plain object and
// returns either an array of {outcome, probability} objects or an object
// mapping outcomes to probabilities.
package script

import (
	"context"
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/urieli/jochre-sub004/decision"
)

// Encoder converts a decision context into the value handed to the script.
// Maps, slices and scalars translate naturally; structs are exposed with
// their Go field names.
type Encoder[C any] func(c C) any

// Classifier calls a named JavaScript function for every context. A
// Classifier owns a single runtime and is not safe for concurrent use.
type Classifier[C any] struct {
	vm     *goja.Runtime
	fn     goja.Callable
	name   string
	encode Encoder[C]
	ctx    context.Context
}

// New compiles source and looks up the global function named fn.
func New[C any](source, fn string, encode Encoder[C]) (*Classifier[C], error) {
	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("compile classifier script: %w", err)
	}
	callable, ok := goja.AssertFunction(vm.Get(fn))
	if !ok {
		return nil, fmt.Errorf("classifier script does not define function %q", fn)
	}
	return &Classifier[C]{vm: vm, fn: callable, name: fn, encode: encode, ctx: context.Background()}, nil
}

// WithContext makes later evaluations abort once ctx is done.
func (c *Classifier[C]) WithContext(ctx context.Context) *Classifier[C] {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	return c
}

// Classify implements decision.Classifier.
func (c *Classifier[C]) Classify(in C) ([]decision.Decision, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer c.vm.ClearInterrupt()

	go func() {
		select {
		case <-c.ctx.Done():
			c.vm.Interrupt(c.ctx.Err())
		case <-done:
		}
	}()

	var arg any = in
	if c.encode != nil {
		arg = c.encode(in)
	}
	val, err := c.fn(goja.Undefined(), c.vm.ToValue(arg))
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	ds, err := toDecisions(val.Export())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	decision.Sort(ds)
	if err := decision.Validate(ds); err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return ds, nil
}

func toDecisions(v any) ([]decision.Decision, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]decision.Decision, 0, len(t))
		for i, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("result[%d]: expected object, got %T", i, item)
			}
			outcome, ok := obj["outcome"].(string)
			if !ok {
				return nil, fmt.Errorf("result[%d]: missing outcome", i)
			}
			p, err := toFloat(obj["probability"])
			if err != nil {
				return nil, fmt.Errorf("result[%d]: %w", i, err)
			}
			out = append(out, decision.Decision{Outcome: outcome, Probability: p})
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]decision.Decision, 0, len(t))
		for _, k := range keys {
			p, err := toFloat(t[k])
			if err != nil {
				return nil, fmt.Errorf("outcome %q: %w", k, err)
			}
			out = append(out, decision.Decision{Outcome: k, Probability: p})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected classifier result %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("probability must be a number, got %T", v)
	}
}
