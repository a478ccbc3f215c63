package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"leadcapture/internal/config"
	"leadcapture/internal/domain"
	"leadcapture/internal/metrics"
	apperrors "leadcapture/pkg/errors"
)

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 4 << 10

// Client posts form leads to the remote CRM intake endpoint
type Client struct {
	endpoint   string
	header     string
	clientKey  string
	httpClient *http.Client
}

// NewClient creates a new CRM intake client
func NewClient(cfg *config.CRMConfig) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		header:     cfg.ClientKeyHeader,
		clientKey:  cfg.ClientKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SubmitLead sends one lead to the intake endpoint. Only 201 and 200 count
// as success.
func (c *Client) SubmitLead(ctx context.Context, lead domain.Lead) error {
	headers := map[string]string{c.header: c.clientKey}
	return post(ctx, c.httpClient, "intake", c.endpoint, headers, lead)
}

// Forwarder pushes leads accepted by the intake route to a downstream CRM
type Forwarder struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewForwarder creates a forwarder, or returns nil when forwarding is not configured
func NewForwarder(cfg *config.CRMConfig) *Forwarder {
	if !cfg.ForwardingEnabled() {
		return nil
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		url:        cfg.ForwardURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Forward sends the enriched lead record downstream
func (f *Forwarder) Forward(ctx context.Context, lead *domain.CRMLead) error {
	headers := map[string]string{"Authorization": "Bearer " + f.apiKey}
	return post(ctx, f.httpClient, "forward", f.url, headers, lead.Record())
}

func post(ctx context.Context, client *http.Client, target, url string, headers map[string]string, body any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to marshal request data", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordCRMRequest(target, "transport_error", time.Since(start))
		log.Printf("[CRM] %s request to %s failed: %v", target, url, err)
		return apperrors.Wrap(apperrors.ErrCodeTransport, "failed to send lead", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		metrics.RecordCRMRequest(target, "upstream_error", time.Since(start))
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("[CRM] %s request to %s rejected: status=%d", target, url, resp.StatusCode)
		return apperrors.Wrap(apperrors.ErrCodeUpstream, "lead was not accepted",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))))
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	metrics.RecordCRMRequest(target, "success", time.Since(start))
	log.Printf("[CRM] %s request to %s accepted: status=%d", target, url, resp.StatusCode)
	return nil
}
