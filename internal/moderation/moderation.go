// Package moderation screens user-written text before it is stored. A
// check answers Safe, Unsafe or Unavailable; CheckSafety collapses that to
// a yes/no and fails closed.
package moderation

import (
	"context"
	"errors"
	"sync/atomic"
)

type Verdict int

const (
	Unavailable Verdict = iota
	Safe
	Unsafe
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	}
	return "unavailable"
}

// ErrUnavailable wraps every failure that yields the Unavailable verdict.
var ErrUnavailable = errors.New("moderation unavailable")

// Checker classifies text. When the verdict is Unavailable the error says
// why; for Safe and Unsafe it is nil.
type Checker interface {
	Check(ctx context.Context, text string) (Verdict, error)
}

// CheckSafety reports whether text may be stored. Only an explicit Safe
// verdict passes.
func CheckSafety(ctx context.Context, c Checker, text string) bool {
	v, _ := c.Check(ctx, text)
	return v == Safe
}

// Static always answers with the same verdict. MODERATION_MODE=allow and
// deny use it in development; tests use it to script outcomes.
type Static struct {
	Verdict Verdict
	calls   atomic.Int64
}

// Calls is how many checks were made.
func (s *Static) Calls() int { return int(s.calls.Load()) }

func (s *Static) Check(context.Context, string) (Verdict, error) {
	s.calls.Add(1)
	if s.Verdict == Unavailable {
		return Unavailable, ErrUnavailable
	}
	return s.Verdict, nil
}
