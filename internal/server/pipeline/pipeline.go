package pipeline

import "context"

// Handler is the downstream continuation of a pipeline: the request handler
// itself, or the remainder of the stage list.
type Handler func(ctx context.Context, rc *RequestContext) error

// Stage is one cross-cutting concern in the pipeline. Implementations must
// either call next (possibly after enriching rc) or return a terminal error
// without calling it. Stages never retry.
type Stage interface {
	Name() string
	Handle(ctx context.Context, rc *RequestContext, next Handler) error
}

// Chain is a declarative, ordered stage list. Composition is static: adding
// a cross-cutting concern means inserting a Stage, not editing the others.
type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Then wraps h with the chain's stages. For a single request the stages run
// strictly in declared order; the first stage error short-circuits the rest.
func (c *Chain) Then(h Handler) Handler {
	wrapped := h
	for i := len(c.stages) - 1; i >= 0; i-- {
		stage := c.stages[i]
		next := wrapped
		wrapped = func(ctx context.Context, rc *RequestContext) error {
			return stage.Handle(ctx, rc, next)
		}
	}
	return wrapped
}

// Run executes the chain around h for one request context.
func (c *Chain) Run(ctx context.Context, rc *RequestContext, h Handler) error {
	return c.Then(h)(ctx, rc)
}
