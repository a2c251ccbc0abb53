package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"restaurant-ordering/internal/infra"

	"github.com/cenkalti/backoff/v4"
)

// RemoteStore talks to the hosted document store over its REST API:
// /api/collections/{collection}/records[/{id}].
type RemoteStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries uint64
}

var _ Store = (*RemoteStore)(nil)

type RemoteOption func(*RemoteStore)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) { s.httpClient = c }
}

func WithMaxRetries(n uint64) RemoteOption {
	return func(s *RemoteStore) { s.maxRetries = n }
}

func NewRemoteStore(baseURL, token string, timeout time.Duration, logger *slog.Logger, opts ...RemoteOption) *RemoteStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &RemoteStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errorBody is the store's error envelope. data maps field names to
// {code, message}.
type errorBody struct {
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Data    map[string]fieldErrorEntry `json:"data"`
}

type fieldErrorEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listBody struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	TotalItems int               `json:"totalItems"`
	Items      []json.RawMessage `json:"items"`
}

func (s *RemoteStore) recordsURL(collection string) string {
	return s.baseURL + "/api/collections/" + url.PathEscape(collection) + "/records"
}

func (s *RemoteStore) Get(ctx context.Context, collection, id string) (Record, error) {
	body, err := s.do(ctx, http.MethodGet, s.recordsURL(collection)+"/"+url.PathEscape(id), nil, "get "+collection)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

func (s *RemoteStore) List(ctx context.Context, collection string, opts ListOptions) (*Page, error) {
	opts = opts.normalized()

	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("perPage", strconv.Itoa(opts.PerPage))
	if f := buildRemoteFilter(opts.Filter); f != "" {
		q.Set("filter", f)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}

	body, err := s.do(ctx, http.MethodGet, s.recordsURL(collection)+"?"+q.Encode(), nil, "list "+collection)
	if err != nil {
		return nil, err
	}

	var lb listBody
	if err := json.Unmarshal(body, &lb); err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to decode "+collection+" list", err)
	}
	page := &Page{Page: lb.Page, PerPage: lb.PerPage, TotalItems: lb.TotalItems}
	for _, raw := range lb.Items {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to decode "+collection+" record", err)
		}
		page.Items = append(page.Items, rec)
	}
	return page, nil
}

func (s *RemoteStore) Create(ctx context.Context, collection string, fields Record) (Record, error) {
	body, err := s.do(ctx, http.MethodPost, s.recordsURL(collection), fields, "create "+collection)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

func (s *RemoteStore) Update(ctx context.Context, collection, id string, fields Record) (Record, error) {
	body, err := s.do(ctx, http.MethodPatch, s.recordsURL(collection)+"/"+url.PathEscape(id), fields, "update "+collection)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// do sends one request. Reads retry transport errors and 5xx responses;
// writes retry only when the connection was never established.
func (s *RemoteStore) do(ctx context.Context, method, target string, payload Record, op string) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, infra.NewValidationErr("failed to "+op, map[string]string{"data": err.Error()})
		}
	}

	var result []byte
	attempt := func() error {
		var reqBody io.Reader
		if encoded != nil {
			reqBody = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.token != "" {
			req.Header.Set("Authorization", s.token)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if method == http.MethodGet || dialFailed(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			if method == http.MethodGet {
				return err
			}
			return backoff.Permanent(err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result = body
			return nil
		}

		storeErr := s.translate(resp.StatusCode, body, op)
		if resp.StatusCode >= 500 && method == http.MethodGet {
			return storeErr
		}
		return backoff.Permanent(storeErr)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("retrying record store request",
			slog.String("op", op),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	}

	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		var repoErr infra.RepositoryError
		if errors.As(err, &repoErr) {
			return nil, err
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to "+op, err)
	}
	return result, nil
}

// dialFailed reports whether err happened before any request bytes left the client.
func dialFailed(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// translate maps an error response to a RepositoryError, keeping the store's
// field-level validation messages.
func (s *RemoteStore) translate(status int, body []byte, op string) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	msg := eb.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return infra.NotFound(op + ": " + msg)
	case status == http.StatusBadRequest && len(eb.Data) > 0:
		fields := make(map[string]string, len(eb.Data))
		for name, fe := range eb.Data {
			fields[name] = fe.Message
			if fields[name] == "" {
				fields[name] = fe.Code
			}
		}
		return infra.NewValidationErr(op+": "+msg, fields)
	case status == http.StatusConflict:
		return infra.Conflict(op + ": " + msg)
	default:
		return infra.WrapRepoErr(s.logger, infra.KindDBFailure, op,
			fmt.Errorf("record store responded %d: %s", status, msg))
	}
}

// buildRemoteFilter renders equality conditions in the store's filter
// syntax. "?=" matches scalars and any element of multi-value relations.
func buildRemoteFilter(conds []Cond) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, fmt.Sprintf("%s ?= %s", c.Field, quoteFilterValue(c.Value)))
	}
	return strings.Join(parts, " && ")
}

func quoteFilterValue(v any) string {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case int, int32, int64, json.Number:
		return fmt.Sprint(val)
	default:
		s := strings.ReplaceAll(scalarString(val), `\`, `\\`)
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
}
