// Package typesense adapts the Typesense Go client to engine.Searcher.
package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tsclient "github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/engine"
	"github.com/maktaba-labs/maktaba/internal/metrics"
)

// Verify interface compliance
var _ engine.Searcher = (*Client)(nil)

// maxErrorBody bounds how much of an error response is kept in the error message.
const maxErrorBody = 512

// Config holds engine connection configuration.
type Config struct {
	// BaseURL is the engine endpoint (e.g., http://localhost:8108)
	BaseURL string
	APIKey  string
	// Timeout for HTTP requests
	Timeout time.Duration
}

// Client implements engine.Searcher.
type Client struct {
	client  *tsclient.Client
	timeout time.Duration
}

// New creates an engine client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		client: tsclient.NewClient(
			tsclient.WithServer(strings.TrimSuffix(cfg.BaseURL, "/")),
			tsclient.WithAPIKey(cfg.APIKey),
			tsclient.WithConnectionTimeout(timeout),
		),
		timeout: timeout,
	}
}

type hitDTO struct {
	Document  map[string]any `json:"document"`
	TextMatch int64          `json:"text_match"`
}

// searchResponse is decoded from the client's result types. Found is a
// pointer: a multi-search sub-result without it did not run.
type searchResponse struct {
	Found *int     `json:"found"`
	Page  int      `json:"page"`
	Hits  []hitDTO `json:"hits"`
	// Code and Error are set on failed multi-search sub-results.
	Code  int    `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type multiSearchRequest struct {
	Searches []Params `json:"searches"`
}

type multiSearchResponse struct {
	Results []searchResponse `json:"results"`
}

// Search runs a single query. Queries carrying a vector go through
// multi-search since the vector does not fit in a URL.
func (c *Client) Search(ctx context.Context, q multi.Query) (result.Raw, error) {
	if q.VectorQuery != "" {
		raws, err := c.MultiSearch(ctx, []multi.Query{q})
		if err != nil {
			return result.Raw{}, err
		}
		return raws[0], nil
	}

	var params api.SearchCollectionParams
	if err := convert(ToParams(q), &params); err != nil {
		return result.Raw{}, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("encode params: %w", err)}
	}

	var res *api.SearchResult
	err := c.observe(engine.OpSearch, func() (err error) {
		res, err = c.client.Collection(q.Collection).Documents().Search(ctx, &params)
		return err
	})
	if err != nil {
		return result.Raw{}, err
	}

	var resp searchResponse
	if err := convert(res, &resp); err != nil {
		return result.Raw{}, &engine.Error{Op: engine.OpSearch, Status: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	return toRaw(resp), nil
}

// MultiSearch runs queries in one multi-search call.
func (c *Client) MultiSearch(ctx context.Context, qs []multi.Query) ([]result.Raw, error) {
	if len(qs) == 0 {
		return nil, nil
	}
	req := multiSearchRequest{Searches: make([]Params, len(qs))}
	for i, q := range qs {
		req.Searches[i] = ToParams(q)
	}
	var searches api.MultiSearchSearchesParameter
	if err := convert(req, &searches); err != nil {
		return nil, &engine.Error{Op: engine.OpMultiSearch, Err: fmt.Errorf("encode searches: %w", err)}
	}

	var res *api.MultiSearchResult
	err := c.observe(engine.OpMultiSearch, func() (err error) {
		res, err = c.client.MultiSearch.Perform(ctx, &api.MultiSearchParams{}, searches)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp multiSearchResponse
	if err := convert(res, &resp); err != nil {
		return nil, &engine.Error{Op: engine.OpMultiSearch, Status: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(resp.Results) != len(qs) {
		return nil, &engine.Error{
			Op:  engine.OpMultiSearch,
			Err: fmt.Errorf("got %d results for %d searches", len(resp.Results), len(qs)),
		}
	}

	out := make([]result.Raw, len(resp.Results))
	for i, r := range resp.Results {
		if r.Error != "" || r.Found == nil {
			msg := r.Error
			if msg == "" {
				msg = "no result"
			}
			return nil, &engine.Error{
				Op:     engine.OpMultiSearch,
				Status: r.Code,
				Err:    fmt.Errorf("search %d on %q: %s", i, qs[i].Collection, msg),
			}
		}
		out[i] = toRaw(r)
	}
	return out, nil
}

// HealthCheck verifies the engine is available
func (c *Client) HealthCheck(ctx context.Context) error {
	var ok bool
	err := c.observe(engine.OpHealth, func() (err error) {
		ok, err = c.client.Health(ctx, c.timeout)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		return &engine.Error{Op: engine.OpHealth, Status: http.StatusOK, Err: errors.New("engine reports not ok")}
	}
	return nil
}

// observe times call, records engine metrics and converts its error into
// an engine.Error carrying the HTTP status when the engine answered.
func (c *Client) observe(op string, call func() error) error {
	start := time.Now()
	err := call()
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, strconv.Itoa(http.StatusOK)).Inc()
		return nil
	}

	var httpErr *tsclient.HTTPError
	if errors.As(err, &httpErr) {
		metrics.EngineRequestsTotal.WithLabelValues(op, strconv.Itoa(httpErr.Status)).Inc()
		body := httpErr.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &engine.Error{
			Op:     op,
			Status: httpErr.Status,
			Err:    errors.New(errorMessage(body, http.StatusText(httpErr.Status))),
		}
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
	return &engine.Error{Op: op, Err: err}
}

// convert copies src into dst through their JSON tags. Engine parameters and
// results cross the client boundary by wire name, not by Go field layout.
func convert(src, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// errorMessage extracts the "message" field of an engine error body.
func errorMessage(body []byte, status string) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}
	if len(body) > 0 {
		return strings.TrimSpace(string(body))
	}
	return status
}

func toRaw(r searchResponse) result.Raw {
	hits := make([]result.Hit, len(r.Hits))
	for i, h := range r.Hits {
		hits[i] = result.NewHit(domain.Document(h.Document), h.TextMatch)
	}
	var found int
	if r.Found != nil {
		found = *r.Found
	}
	return result.Raw{Found: found, Page: r.Page, Hits: hits}
}
