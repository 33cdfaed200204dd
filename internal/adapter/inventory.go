package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"netcanvas/internal/domain"
)

// maxInventoryBody caps how much of an inventory response is read
const maxInventoryBody = 16 << 20

// TokenSource supplies the bearer credential for inventory requests.
// Credential issuance lives outside this service.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// EnvToken reads the bearer token from the named environment variable on every request
type EnvToken string

// Token implements TokenSource
func (e EnvToken) Token(context.Context) (string, error) {
	return os.Getenv(string(e)), nil
}

// InventoryClient fetches device records over HTTP
type InventoryClient struct {
	url    string
	client *http.Client
	tokens TokenSource
	logger *slog.Logger
}

// ClientOption configures an InventoryClient
type ClientOption func(*InventoryClient)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(ic *InventoryClient) {
		ic.client = c
	}
}

// WithTokenSource sets the bearer token provider
func WithTokenSource(ts TokenSource) ClientOption {
	return func(ic *InventoryClient) {
		ic.tokens = ts
	}
}

// WithClientLogger sets the logger
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(ic *InventoryClient) {
		ic.logger = l
	}
}

// NewInventoryClient creates a client for the inventory endpoint at url
func NewInventoryClient(url string, opts ...ClientOption) *InventoryClient {
	ic := &InventoryClient{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		tokens: StaticToken(""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// Name implements Source
func (ic *InventoryClient) Name() string {
	return "inventory"
}

// Fetch implements Source
func (ic *InventoryClient) Fetch(ctx context.Context) ([]domain.DeviceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ic.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", domain.ErrSyncFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	token, err := ic.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to obtain token: %v", domain.ErrSyncFailure, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxInventoryBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrSyncFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: inventory returned %s", domain.ErrSyncFailure, resp.Status)
	}

	records, err := DecodeDevices(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailure, err)
	}

	ic.logger.Debug("fetched device inventory", "url", ic.url, "devices", len(records))
	return records, nil
}

// DecodeDevices parses an inventory payload.
// Both a bare array and {"value": [...]} are accepted.
func DecodeDevices(body []byte) ([]domain.DeviceRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty inventory response")
	}

	var wire []wireDevice
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode device array: %w", err)
		}
	case '{':
		var envelope struct {
			Value *[]wireDevice `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode device envelope: %w", err)
		}
		if envelope.Value == nil {
			return nil, fmt.Errorf("device envelope has no value array")
		}
		wire = *envelope.Value
	default:
		return nil, fmt.Errorf("unexpected inventory payload")
	}

	records := make([]domain.DeviceRecord, 0, len(wire))
	for _, w := range wire {
		if w.DeviceID == "" {
			continue
		}
		records = append(records, domain.DeviceRecord{
			DeviceID:   string(w.DeviceID),
			Hostname:   w.Hostname,
			OSName:     w.OSName,
			LastSeen:   time.Time(w.LastSeen),
			AppCount:   w.AppCount,
			AlertCount: w.AlertCount,
		})
	}
	return records, nil
}

// wireDevice is one inventory entry as sent by the API
type wireDevice struct {
	DeviceID   flexString `json:"deviceId"`
	Hostname   string     `json:"hostname"`
	OSName     string     `json:"osName"`
	LastSeen   flexTime   `json:"lastSeenTimestamp"`
	AppCount   int        `json:"appCount"`
	AlertCount int        `json:"alertCount"`
}

// flexString accepts a JSON string or number
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("deviceId: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// flexTime accepts RFC 3339 strings, epoch milliseconds, or null.
// Unparseable values decode to the zero time, which reads as never seen.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			*t = flexTime(parsed)
			return nil
		}
		raw = s
	}

	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		*t = flexTime(time.UnixMilli(int64(ms)).UTC())
	}
	return nil
}
