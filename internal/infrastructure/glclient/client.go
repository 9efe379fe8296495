// Package glclient posts journal entries to an external general-ledger service.
package glclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/journal"
	"stockbook/pkg/logger"
)

var tracer = otel.Tracer("stockbook/glclient")

const serviceName = "gl service"

// Client is a journal.Poster backed by the GL service HTTP API.
type Client struct {
	base  string
	http  *http.Client
	token string
	log   *logger.Logger
}

var _ journal.Poster = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  logger.Default().WithComponent("glclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsExternal marks entries as living outside the document transaction.
func (c *Client) IsExternal() bool { return true }

// Post sends one entry. The request is validated locally first.
func (c *Client) Post(ctx context.Context, req journal.Request) (journal.Entry, error) {
	if err := req.Validate(); err != nil {
		return journal.Entry{}, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("encode journal request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/journal-entries", nil, body)
	if err != nil {
		return journal.Entry{}, err
	}

	var e journal.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return journal.Entry{}, apperror.NewUnavailable(serviceName, fmt.Errorf("decode entry: %w", err))
	}
	if len(e.Lines) == 0 {
		e.Lines = req.Lines
	}
	return e, nil
}

// Reverse removes every entry the service holds for the source document.
func (c *Client) Reverse(ctx context.Context, sourceType journal.SourceType, sourceID id.ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/journal-entries", sourceQuery(sourceType, sourceID), nil)
	if apperror.IsNotFound(err) {
		return nil
	}
	return err
}

// ForSource lists the entries of one document. The service answers either
// with a bare array or with a {"results": [...]} envelope.
func (c *Client) ForSource(ctx context.Context, sourceType journal.SourceType, sourceID id.ID) ([]journal.Entry, error) {
	raw, err := c.do(ctx, http.MethodGet, "/journal-entries", sourceQuery(sourceType, sourceID), nil)
	if err != nil {
		if apperror.IsNotFound(err) {
			return []journal.Entry{}, nil
		}
		return nil, err
	}

	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		list = list.Get("results")
	}
	if !list.IsArray() {
		return nil, apperror.NewUnavailable(serviceName, errors.New("unexpected journal list payload"))
	}

	entries := make([]journal.Entry, 0, len(list.Array()))
	for _, item := range list.Array() {
		var e journal.Entry
		if err := json.Unmarshal([]byte(item.Raw), &e); err != nil {
			return nil, apperror.NewUnavailable(serviceName, fmt.Errorf("decode entry: %w", err))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func sourceQuery(sourceType journal.SourceType, sourceID id.ID) url.Values {
	q := url.Values{}
	q.Set("sourceType", string(sourceType))
	q.Set("sourceId", sourceID.String())
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "gl "+method+" "+path)
	defer span.End()

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("build gl request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := appctx.GetTraceID(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.log.WithContext(ctx).Warnw("gl request failed", "method", method, "path", path, "error", err)
		return nil, apperror.NewUnavailable(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperror.NewUnavailable(serviceName, fmt.Errorf("read response: %w", err))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 300 {
		return raw, nil
	}
	span.SetStatus(codes.Error, resp.Status)
	return nil, decodeError(resp.StatusCode, raw)
}

// decodeError maps a non-2xx answer onto an application error. Field errors
// of the form {"errors": {"field": ["msg"]}} become field validation errors.
func decodeError(status int, raw []byte) error {
	if status >= 500 {
		return apperror.NewUnavailable(serviceName, fmt.Errorf("status %d: %s", status, truncate(raw)))
	}
	if status == http.StatusNotFound {
		return apperror.NewNotFound("journal entry", "")
	}

	doc := gjson.ParseBytes(raw)
	if errs := doc.Get("errors"); errs.IsObject() {
		fields := map[string][]string{}
		errs.ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() {
				for _, m := range value.Array() {
					fields[key.String()] = append(fields[key.String()], m.String())
				}
			} else {
				fields[key.String()] = append(fields[key.String()], value.String())
			}
			return true
		})
		if len(fields) > 0 {
			return apperror.NewFieldValidation(fields)
		}
	}

	msg := doc.Get("message").String()
	if msg == "" {
		msg = doc.Get("error.message").String()
	}
	if msg == "" {
		msg = fmt.Sprintf("gl service rejected the entry (status %d)", status)
	}
	return apperror.NewValidation(msg).WithDetail("gl_status", status)
}

func truncate(raw []byte) string {
	const max = 256
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
