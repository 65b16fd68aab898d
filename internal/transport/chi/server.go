// Package chi exposes the search pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/expression"
	"github.com/maktaba-labs/maktaba/internal/repository/catalog"
	healthuc "github.com/maktaba-labs/maktaba/internal/usecase/health"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorHandler maps a domain error to a status and code. ok is false when the
// error is not the handler's concern.
type errorHandler func(err error) (status int, code string, ok bool)

// Server serves the search API.
type Server struct {
	search        Searcher
	catalog       Catalog
	health        HealthReporter
	logger        *zap.Logger
	validate      *requestValidator
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. catalog may be nil, in which case
// /v1/facets answers 501.
func NewServer(search Searcher, catalog Catalog, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:   search,
		catalog:  catalog,
		health:   health,
		logger:   logger,
		validate: newRequestValidator(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownCollection, http.StatusNotFound, CodeUnknownCollection),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(expression.ErrMalformedExpression, http.StatusBadRequest, CodeMalformedExpression),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidFacetValue, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusBadGateway, CodeEngineUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search/{kind}", s.SearchGet)
		r.Post("/search/{kind}", s.SearchPost)
		r.Post("/search/{kind}/plan", s.ExplainPlan)
		r.Post("/expressions/parse", s.ParseExpression)
		r.Post("/expressions/serialize", s.SerializeExpression)
		r.Get("/facets/{facet}", s.ListFacetOptions)
	})
}

// Handler returns a router carrying only the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	s.Routes(r)
	return r
}

// SearchPost handles POST /v1/search/{kind}.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var dto SearchRequestDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		writeSearchError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error(), dto.Page)
		return
	}
	s.runSearch(w, r, dto)
}

// SearchGet handles GET /v1/search/{kind}. List parameters are comma separated.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchQuery(r)
	if err != nil {
		writeSearchError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), 1)
		return
	}
	s.runSearch(w, r, params.toDTO())
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, dto SearchRequestDTO) {
	if err := s.validate.Validate(dto); err != nil {
		writeSearchError(w, http.StatusBadRequest, CodeValidationFailed, err.Error(), dto.Page)
		return
	}
	params, err := paramsFromDTO(dto)
	if err != nil {
		writeSearchError(w, http.StatusBadRequest, CodeValidationFailed, err.Error(), dto.Page)
		return
	}

	kind := collection.Kind(chi.URLParam(r, "kind"))
	resp, err := s.search.Search(r.Context(), kind, params)
	if err != nil {
		s.handleDomainError(w, r, err, emptyResults(dto.Page))
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// ExplainPlan handles POST /v1/search/{kind}/plan: it compiles the request and
// returns the engine queries without running them.
func (s *Server) ExplainPlan(w http.ResponseWriter, r *http.Request) {
	var dto SearchRequestDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Validate(dto); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	params, err := paramsFromDTO(dto)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	req, plan, err := s.search.Plan(collection.Kind(chi.URLParam(r, "kind")), params)
	if err != nil {
		s.handleDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, NewPlanResponse(req, plan))
}

// ParseExpression handles POST /v1/expressions/parse.
func (s *Server) ParseExpression(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	g, err := expression.Parse(req.Query)
	if err != nil {
		s.handleDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, groupToDTO(g))
}

// SerializeExpression handles POST /v1/expressions/serialize.
func (s *Server) SerializeExpression(w http.ResponseWriter, r *http.Request) {
	var req SerializeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	g, err := groupFromDTO(req.Tree)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SerializeResponse{Query: expression.Serialize(g, true)})
}

// ListFacetOptions handles GET /v1/facets/{facet}?ids=a,b&limit=N.
func (s *Server) ListFacetOptions(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.handleDomainError(w, r, fmt.Errorf("facet catalog: %w", domain.ErrNotImplemented), nil)
		return
	}

	var (
		ids   *[]string
		limit *int
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", false, false, "ids", q, &ids); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid ids: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid limit: "+err.Error())
		return
	}

	facet := collection.Facet(chi.URLParam(r, "facet"))
	var (
		opts []catalog.Option
		err  error
	)
	if ids != nil {
		opts, err = s.catalog.Lookup(r.Context(), facet, *ids)
	} else {
		opts, err = s.catalog.List(r.Context(), facet, deref(limit))
	}
	if err != nil {
		s.handleDomainError(w, r, err, nil)
		return
	}
	resp := FacetOptionsResponse{Facet: string(facet), Options: optionsToDTO(opts)}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. A degraded service still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindSearchQuery(r *http.Request) (SearchQueryParams, error) {
	var p SearchQueryParams
	q := r.URL.Query()
	binds := []struct {
		name    string
		explode bool
		dest    any
	}{
		{"q", true, &p.Q},
		{"advanced", true, &p.Advanced},
		{"page", true, &p.Page},
		{"per_page", true, &p.PerPage},
		{"sort", true, &p.Sort},
		{"mode", true, &p.Mode},
		{"year_from", true, &p.YearFrom},
		{"year_to", true, &p.YearTo},
		{"genres", false, &p.Genres},
		{"authors", false, &p.Authors},
		{"regions", false, &p.Regions},
		{"geographies", false, &p.Geographies},
		{"ids", false, &p.IDs},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", b.explode, false, b.name, q, b.dest); err != nil {
			return SearchQueryParams{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	if (p.YearFrom == nil) != (p.YearTo == nil) {
		return SearchQueryParams{}, errors.New("year_from and year_to must be given together")
	}
	return p, nil
}

// decodeJSON decodes a bounded body and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeSearchError(w http.ResponseWriter, status int, code, message string, page int) {
	writeJSON(w, status, ErrorResponse{
		Error:   ErrorBody{Code: code, Message: message},
		Results: emptyResults(page),
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals. Validation errors carry their own detail.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrUnknownCollection) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		expression.ErrMalformedExpression,
		domain.ErrInvalidFacetValue,
		domain.ErrEngineUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(err error) (int, string, bool) {
		if !errors.Is(err, sentinel) {
			return 0, "", false
		}
		return status, code, true
	}
}

// handleDomainError maps err through the handler table. results, when set,
// is attached so search clients always receive a results block.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, results *ResultsDTO) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))

	status, code := http.StatusInternalServerError, CodeInternalError
	handled := false
	for _, h := range s.errorHandlers {
		if st, c, ok := h(err); ok {
			status, code, handled = st, c, true
			break
		}
	}
	if !handled {
		log.Error("internal error", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{
		Error:   ErrorBody{Code: code, Message: safeDomainMessage(err)},
		Results: results,
	})
}
