package framework

import "context"

type requestContextKey struct{}

// RequestContext carries request metadata through contexts so telemetry and
// model clients can correlate their activity with one interpretation.
type RequestContext struct {
	ID     string
	Domain string
	Input  string
}

// WithRequestContext attaches request metadata to the context.
func WithRequestContext(ctx context.Context, req RequestContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestContextKey{}, req)
}

// RequestContextFrom extracts request metadata, if present.
func RequestContextFrom(ctx context.Context) (RequestContext, bool) {
	if ctx == nil {
		return RequestContext{}, false
	}
	val := ctx.Value(requestContextKey{})
	req, ok := val.(RequestContext)
	return req, ok
}
