package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/framework"
	"github.com/lexcodex/nlcommand/persistence"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// APIServer exposes the interpretation pipeline over HTTP.
type APIServer struct {
	Invoker   command.Invoker
	Telemetry framework.Telemetry
	// History is optional; without it /api/history answers 404.
	History         persistence.HistoryStore
	Logger          *zap.Logger
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// InterpretRequest is the body of POST /api/commands/{domain}.
type InterpretRequest struct {
	Input   string                `json:"input"`
	Context command.DomainContext `json:"context,omitempty"`
}

// CommandResponse is the envelope returned by the command endpoints.
type CommandResponse struct {
	RequestID string           `json:"request_id"`
	Domain    string           `json:"domain,omitempty"`
	Command   *command.Command `json:"command,omitempty"`
	Error     *APIError        `json:"error,omitempty"`
}

// APIError is the machine-readable failure body.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

// Error kinds produced by the HTTP layer itself.
const (
	KindBadRequest    = "bad_request"
	KindUnknownDomain = "unknown_domain"
	KindTimeout       = "timeout"
	KindInternal      = "internal_error"
	KindUnavailable   = "unavailable"
)

// Serve starts listening on the provided address.
func (s *APIServer) Serve(addr string) error {
	return s.ServeContext(context.Background(), addr)
}

// ServeContext allows the caller to control shutdown via context cancellation.
func (s *APIServer) ServeContext(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger().Info("API listening", zap.String("addr", addr))
	select {
	case <-ctx.Done():
		timeout := s.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler returns the routed HTTP handler.
func (s *APIServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/domains", s.handleDomains)
		r.Get("/domains/{domain}", s.handleDomain)
		r.Post("/commands/{domain}", s.handleInterpret)
		r.Post("/commands/{domain}/check", s.handleCheck)
		r.Get("/history", s.handleHistory)
	})
	return r
}

func (s *APIServer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleDomains(w http.ResponseWriter, _ *http.Request) {
	schemas := command.Schemas()
	out := make([]DomainInfo, 0, len(schemas))
	for _, schema := range schemas {
		out = append(out, Describe(schema))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *APIServer) handleDomain(w http.ResponseWriter, r *http.Request) {
	schema, ok := command.Lookup(chi.URLParam(r, "domain"))
	if !ok {
		writeErr(w, http.StatusNotFound, KindUnknownDomain, "unknown domain "+strconv.Quote(chi.URLParam(r, "domain")))
		return
	}
	writeJSON(w, http.StatusOK, Describe(schema))
}

func (s *APIServer) handleInterpret(w http.ResponseWriter, r *http.Request) {
	rc, _ := framework.RequestContextFrom(r.Context())
	resp := CommandResponse{RequestID: rc.ID}
	schema, ok := command.Lookup(chi.URLParam(r, "domain"))
	if !ok {
		resp.Error = &APIError{Kind: KindUnknownDomain, Message: "unknown domain " + strconv.Quote(chi.URLParam(r, "domain"))}
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	resp.Domain = string(schema.Domain)
	if s.Invoker == nil {
		resp.Error = &APIError{Kind: KindUnavailable, Message: "no language model configured"}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	var body InterpretRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		resp.Error = &APIError{Kind: KindBadRequest, Message: "invalid request body"}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	ctx := framework.WithRequestContext(r.Context(), framework.RequestContext{
		ID:     rc.ID,
		Domain: string(schema.Domain),
		Input:  body.Input,
	})
	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}
	interp := command.NewInterpreter(schema, s.Invoker, s.Telemetry)
	start := time.Now()
	cmd, err := interp.Interpret(ctx, command.Request{UserInput: body.Input, Context: body.Context})
	s.logOutcome(rc.ID, schema.Domain, cmd, err, time.Since(start))
	if err != nil {
		status, apiErr := classify(err)
		resp.Error = apiErr
		writeJSON(w, status, resp)
		return
	}
	resp.Command = cmd
	writeJSON(w, http.StatusOK, resp)
}

// handleCheck runs raw model text through decode, validate, and normalize
// without calling a model.
func (s *APIServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	rc, _ := framework.RequestContextFrom(r.Context())
	resp := CommandResponse{RequestID: rc.ID}
	schema, ok := command.Lookup(chi.URLParam(r, "domain"))
	if !ok {
		resp.Error = &APIError{Kind: KindUnknownDomain, Message: "unknown domain " + strconv.Quote(chi.URLParam(r, "domain"))}
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	resp.Domain = string(schema.Domain)
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		resp.Error = &APIError{Kind: KindBadRequest, Message: "unreadable request body"}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	start := time.Now()
	cmd, err := schema.Process(string(raw))
	s.logOutcome(rc.ID, schema.Domain, cmd, err, time.Since(start))
	if err != nil {
		status, apiErr := classify(err)
		if apiErr.Kind == string(command.KindDecode) {
			// Decode failures on caller-supplied text are client errors.
			status = http.StatusUnprocessableEntity
		}
		resp.Error = apiErr
		writeJSON(w, status, resp)
		return
	}
	resp.Command = cmd
	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeErr(w, http.StatusNotFound, KindUnavailable, "history is disabled")
		return
	}
	domain := r.URL.Query().Get("domain")
	if domain != "" {
		schema, ok := command.Lookup(domain)
		if !ok {
			writeErr(w, http.StatusNotFound, KindUnknownDomain, "unknown domain "+strconv.Quote(domain))
			return
		}
		domain = string(schema.Domain)
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, KindBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.History.Recent(r.Context(), domain, limit)
	if err != nil {
		s.logger().Error("history read failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, KindInternal, "history unavailable")
		return
	}
	if entries == nil {
		entries = []persistence.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *APIServer) logOutcome(requestID string, domain command.Domain, cmd *command.Command, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("domain", string(domain)),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		fields = append(fields, zap.String("kind", string(command.KindOf(err))), zap.Error(err))
		s.logger().Info("command rejected", fields...)
		return
	}
	fields = append(fields, zap.String("action", cmd.Action))
	s.logger().Info("command accepted", fields...)
}

// classify maps pipeline errors onto HTTP statuses and response bodies.
func classify(err error) (int, *APIError) {
	apiErr := &APIError{Kind: string(command.KindOf(err)), Message: err.Error()}
	var decodeErr *command.DecodeError
	if errors.As(err, &decodeErr) {
		apiErr.Raw = decodeErr.Raw
	}
	switch command.KindOf(err) {
	case command.KindDecode:
		return http.StatusBadGateway, apiErr
	case command.KindMissingField, command.KindInvalidAction, command.KindInvalidType, command.KindInvalidNumeric:
		return http.StatusUnprocessableEntity, apiErr
	case command.KindModel:
		if errors.Is(err, context.DeadlineExceeded) {
			apiErr.Kind = KindTimeout
			return http.StatusGatewayTimeout, apiErr
		}
		return http.StatusBadGateway, apiErr
	}
	if errors.Is(err, command.ErrEmptyInput) {
		apiErr.Kind = KindBadRequest
		return http.StatusBadRequest, apiErr
	}
	apiErr.Kind = KindInternal
	return http.StatusInternalServerError, apiErr
}

// requestID assigns a UUID unless the client supplied one, echoes it, and
// stores it in the request context.
func (s *APIServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := framework.WithRequestContext(r.Context(), framework.RequestContext{ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *APIServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		rc, _ := framework.RequestContextFrom(r.Context())
		s.logger().Debug("http request",
			zap.String("request_id", rc.ID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErr(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, map[string]*APIError{"error": {Kind: kind, Message: message}})
}
