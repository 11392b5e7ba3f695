package chain

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Runnable is one stage of a chain.
type Runnable[I, O any] interface {
	Invoke(ctx context.Context, in I) (O, error)
}

// Func adapts a function to a Runnable.
type Func[I, O any] func(ctx context.Context, in I) (O, error)

func (f Func[I, O]) Invoke(ctx context.Context, in I) (O, error) {
	return f(ctx, in)
}

// Map adapts a function that cannot fail.
func Map[I, O any](fn func(I) O) Runnable[I, O] {
	return Func[I, O](func(_ context.Context, in I) (O, error) {
		return fn(in), nil
	})
}

// Vars are the named values flowing between prompt stages.
type Vars map[string]string

// Pipe feeds the output of first into second.
func Pipe[A, B, C any](first Runnable[A, B], second Runnable[B, C]) Runnable[A, C] {
	return Func[A, C](func(ctx context.Context, in A) (C, error) {
		mid, err := first.Invoke(ctx, in)
		if err != nil {
			var zero C
			return zero, err
		}
		return second.Invoke(ctx, mid)
	})
}

// Pipe3 is Pipe over three stages.
func Pipe3[A, B, C, D any](first Runnable[A, B], second Runnable[B, C], third Runnable[C, D]) Runnable[A, D] {
	return Pipe(Pipe(first, second), third)
}

// StrOutputParser trims the model reply.
func StrOutputParser() Runnable[string, string] {
	return Map(strings.TrimSpace)
}

// Parallel runs every branch on the same input concurrently and returns their
// outputs keyed by branch name. The first error cancels the others.
func Parallel[I any](branches map[string]Runnable[I, string]) Runnable[I, Vars] {
	return Func[I, Vars](func(ctx context.Context, in I) (Vars, error) {
		g, ctx := errgroup.WithContext(ctx)
		out := make([]string, 0, len(branches))
		names := make([]string, 0, len(branches))

		for name := range branches {
			names = append(names, name)
			out = append(out, "")
		}

		for i, name := range names {
			g.Go(func() error {
				v, err := branches[name].Invoke(ctx, in)
				if err != nil {
					return fmt.Errorf("branch %s: %w", name, err)
				}
				out[i] = v
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		res := make(Vars, len(names))
		for i, name := range names {
			res[name] = out[i]
		}
		return res, nil
	})
}

// Assign passes its input through and adds the outputs of computed, which
// run concurrently on that same input. Computed keys win over input keys.
func Assign(computed map[string]Runnable[Vars, string]) Runnable[Vars, Vars] {
	par := Parallel(computed)
	return Func[Vars, Vars](func(ctx context.Context, in Vars) (Vars, error) {
		extra, err := par.Invoke(ctx, in)
		if err != nil {
			return nil, err
		}

		out := maps.Clone(in)
		if out == nil {
			out = make(Vars, len(extra))
		}
		maps.Copy(out, extra)
		return out, nil
	})
}

// Case pairs a condition with the stage to run when it holds.
type Case[I, O any] struct {
	When func(I) bool
	Then Runnable[I, O]
}

// Branch runs the first case whose condition holds, or def.
func Branch[I, O any](def Runnable[I, O], cases ...Case[I, O]) Runnable[I, O] {
	return Func[I, O](func(ctx context.Context, in I) (O, error) {
		for _, c := range cases {
			if c.When(in) {
				return c.Then.Invoke(ctx, in)
			}
		}
		return def.Invoke(ctx, in)
	})
}
