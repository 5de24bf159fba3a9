package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/pkg/config"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/middleware/requestid"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

const maxErrorBody = 1 << 20

// TokenSource yields the bearer token attached to outgoing calls.
type TokenSource interface {
	Token() string
}

// CallObserver is notified once per remote call.
type CallObserver interface {
	ObserveRemoteCall(operation string, status int, duration time.Duration)
}

// Binary is a file streamed back by the API. The caller closes Body.
type Binary struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// APIClient speaks the remote REST contract.
type APIClient struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	observer CallObserver
	logger   *zap.Logger
}

// NewAPIClient constructs the client. tokens may be nil before a session exists.
func NewAPIClient(cfg config.APIConfig, tokens TokenSource, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// SetObserver installs the metrics hook.
func (c *APIClient) SetObserver(observer CallObserver) {
	c.observer = observer
}

type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *APIClient) do(ctx context.Context, in call) (*http.Response, error) {
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, in.body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestid.HeaderKey, requestid.FromContext(ctx))
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(in.op, 0, start)
		c.logger.Warn("remote call failed", zap.String("operation", in.op), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
	}
	c.observe(in.op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := response.DecodeError(resp.StatusCode, body)
		c.logger.Debug("remote call rejected",
			zap.String("operation", in.op),
			zap.Int("status", resp.StatusCode),
			zap.String("code", appErr.Code),
		)
		return nil, appErr
	}
	return resp, nil
}

func (c *APIClient) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRemoteCall(op, status, time.Since(start))
	}
}

// doJSON sends payload as JSON (when non-nil) and unwraps the data member of
// the answer into out (when non-nil).
func (c *APIClient) doJSON(ctx context.Context, op, method, path string, query url.Values, payload, out interface{}) error {
	in := call{op: op, method: method, path: path, query: query}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		in.body = bytes.NewReader(raw)
		in.contentType = "application/json"
	}
	resp, err := c.do(ctx, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeInto(resp.Body, out)
}

func decodeInto(r io.Reader, out interface{}) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to read response")
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := response.DecodeData(body, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "unexpected response from remote service")
	}
	return nil
}

// download streams a binary answer back to the caller.
func (c *APIClient) download(ctx context.Context, op, path string, query url.Values) (*Binary, error) {
	resp, err := c.do(ctx, call{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return nil, err
	}
	bin := &Binary{ContentType: resp.Header.Get("Content-Type"), Body: resp.Body}
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			bin.Filename = params["filename"]
		}
	}
	return bin, nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
