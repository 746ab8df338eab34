package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/logger"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultBaseDelay = 200 * time.Millisecond
	maxBodyInError   = 300
)

type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("http request: %v", e.err)
}

func (e *transportError) Unwrap() error {
	return e.err
}

// StatusError é devolvido para respostas fora de 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// Options.MaxRetries conta tentativas além da primeira.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Headers    map[string]string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client faz chamadas JSON com timeout e retry limitado.
type Client struct {
	http       *http.Client
	baseURL    string
	maxRetries uint64
	baseDelay  time.Duration
	headers    map[string]string
	log        *zap.Logger
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	// 0 desliga o retry; o padrão vem da config
	retries := max(opts.MaxRetries, 0)

	delay := opts.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	return &Client{
		http:       hc,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxRetries: uint64(retries),
		baseDelay:  delay,
		headers:    opts.Headers,
		log:        logger.OrNop(opts.Logger),
	}
}

// Request descreve uma chamada. Retryable deve ser true apenas para
// operações idempotentes (GET ou POST com Idempotency-Key).
type Request struct {
	Method    string
	Path      string
	Token     string
	Headers   map[string]string
	Body      any
	Retryable bool
}

func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}

	attempt := 0
	call := func(ctx context.Context) error {
		attempt++
		err := c.once(ctx, req, payload, out)
		if err == nil {
			return nil
		}
		if req.Retryable && isRetryable(err) {
			c.log.Warn("http call failed, retrying",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	}

	if !req.Retryable {
		return call(ctx)
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))
	return retry.Do(ctx, backoff, call)
}

func (c *Client) once(ctx context.Context, req Request, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxBodyInError {
			msg = msg[:maxBodyInError]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}

	// erros de transporte (conexão, timeout do client) são transitórios
	var te *transportError
	return errors.As(err, &te)
}

// IsNotFound indica 404 do upstream.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
