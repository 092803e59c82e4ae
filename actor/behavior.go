package actor

import "time"

// Clause matches one message shape inside a Behavior (spec §4.1's pattern
// list). Match reports whether the clause applies to m; Run executes it.
type Clause struct {
	Match func(m Message) bool
	Run   func(ctx *Context, m Message)
}

// On builds a Clause that matches messages whose slot 0 is a T, invoking fn
// with the typed value extracted from slot 0 (the common single-argument
// handler shape used throughout spec §8's scenarios).
func On[T any](fn func(ctx *Context, value T)) Clause {
	return Clause{
		Match: func(m Message) bool {
			_, ok := messageIs[T](m)
			return ok
		},
		Run: func(ctx *Context, m Message) {
			v, _ := messageIs[T](m)
			fn(ctx, v)
		},
	}
}

// TimeoutClause is the optional trailing "after(d) { ... }" arm of a
// Behavior (spec §4.8).
type TimeoutClause struct {
	After func() (d time.Duration, ok bool)
	Run   func(ctx *Context)
}

// Behavior is an ordered list of Clauses plus an optional timeout, the unit
// that a behavior stack holds (spec §4.1 "Behavior").
type Behavior struct {
	clauses []Clause
	timeout *TimeoutClause
}

// NewBehavior builds a Behavior from clauses in priority order: the first
// matching Clause wins (spec §4.1: "clauses are tried in order; the first
// match wins").
func NewBehavior(clauses ...Clause) Behavior {
	return Behavior{clauses: clauses}
}

// WithTimeout attaches or replaces the behavior's timeout arm.
func (b Behavior) WithTimeout(tc TimeoutClause) Behavior {
	b.timeout = &tc
	return b
}

// IsZero reports whether this Behavior has no clauses and no timeout. An
// actor whose current Behavior is zero is not exited by that; it simply
// matches no ordinary message.
func (b Behavior) IsZero() bool {
	return len(b.clauses) == 0 && b.timeout == nil
}

// find returns the first clause matching m, or ok=false if none does (spec
// §4.1 "clauses are tried in order; the first match wins"). An unmatched
// envelope is not dropped: spec §4.4 parks it in the receive cache instead,
// for both the Sequential and Nestable receive-policy modes — the caller
// is responsible for that parking when ok is false.
func (b Behavior) find(m Message) (Clause, bool) {
	for _, c := range b.clauses {
		if c.Match(m) {
			return c, true
		}
	}
	return Clause{}, false
}
