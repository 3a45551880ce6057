package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ShapeTransition animates the globe shape parameter over wall-clock time.
// A full flat-to-sphere morph takes the configured duration; partial morphs
// take the proportional share of it.
type ShapeTransition struct {
	full   time.Duration
	easeFn ease.TweenFunc
	tween  *gween.Tween
	value  float32
	target float32
}

// NewShapeTransition returns a transition resting at initial. A nil easing
// function means linear.
func NewShapeTransition(initial float32, full time.Duration, fn ease.TweenFunc) *ShapeTransition {
	if fn == nil {
		fn = ease.Linear
	}
	initial = clampShape(initial)
	return &ShapeTransition{
		full:   full,
		easeFn: fn,
		value:  initial,
		target: initial,
	}
}

// SetTarget starts moving towards target from the current value.
func (t *ShapeTransition) SetTarget(target float32) {
	target = clampShape(target)
	t.target = target
	if target == t.value {
		t.tween = nil
		return
	}
	distance := float32(math.Abs(float64(target - t.value)))
	duration := float32(t.full.Seconds()) * distance
	if duration <= 0 {
		t.value = target
		t.tween = nil
		return
	}
	t.tween = gween.New(t.value, target, duration, t.easeFn)
}

// Update advances the transition by dt and reports whether the value moved.
func (t *ShapeTransition) Update(dt time.Duration) (value float32, changed bool) {
	if t.tween == nil {
		return t.value, false
	}
	prev := t.value
	current, finished := t.tween.Update(float32(dt.Seconds()))
	if finished {
		current = t.target
		t.tween = nil
	}
	t.value = clampShape(current)
	return t.value, t.value != prev
}

// Value returns the current shape parameter.
func (t *ShapeTransition) Value() float32 { return t.value }

// Target returns the shape the transition is moving towards.
func (t *ShapeTransition) Target() float32 { return t.target }

// Done reports whether the transition has reached its target.
func (t *ShapeTransition) Done() bool { return t.tween == nil }

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inoutquad":  ease.InOutQuad,
	"inoutcubic": ease.InOutCubic,
	"inoutsine":  ease.InOutSine,
}

// EaseByName maps a case-insensitive easing name to its function.
// An empty name selects linear.
func EaseByName(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}
