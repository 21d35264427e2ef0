// Package client is a typed HTTP client for the issuer API. Error envelopes
// decode back into the same service errors the server classified, so callers
// can branch on codes and reasons with errors.Is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coinagedev/coinage/issuer"
	coinageerrors "github.com/coinagedev/coinage/issuer/errors"
)

const defaultTimeout = 30 * time.Second

// Error bodies are small envelopes; cap the read in case something other
// than the issuer answered.
const maxErrorBody = 1 << 20

// RequestError indicates the request failed without a decodable error
// envelope, such as a proxy answering with HTML. Requests that fail with
// server errors (500-599) may be retried.
type RequestError struct {
	Message    string
	StatusCode int
}

func (e RequestError) Error() string {
	return "issuer request failed: " + strconv.Itoa(e.StatusCode) + ": " + e.Message
}

// Client calls the issuer HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, for custom transports or
// timeouts.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// New returns a client for the issuer API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "coinage-client",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return errors.New("base url is empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %q", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid base url: %q must be http:// or https://", baseURL)
	}
	return nil
}

// CreateAsset registers a new asset class.
func (c *Client) CreateAsset(ctx context.Context, req issuer.CreateAssetRequest) (issuer.AssetResponse, error) {
	var resp issuer.AssetResponse
	err := c.do(ctx, http.MethodPost, "/v1/assets", req, &resp)
	return resp, err
}

// Assets lists every asset, sorted by symbol.
func (c *Client) Assets(ctx context.Context) ([]issuer.AssetResponse, error) {
	var resp issuer.AssetListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/assets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

// Asset fetches one asset by symbol.
func (c *Client) Asset(ctx context.Context, symbol string) (issuer.AssetResponse, error) {
	var resp issuer.AssetResponse
	err := c.do(ctx, http.MethodGet, assetPath(symbol), nil, &resp)
	return resp, err
}

// Mint creates amount new units of the asset in the issuer's custody.
func (c *Client) Mint(ctx context.Context, symbol string, amount uint64) (issuer.MintResponse, error) {
	var resp issuer.MintResponse
	err := c.do(ctx, http.MethodPost, assetPath(symbol, "mint"), issuer.MintRequest{Amount: amount}, &resp)
	return resp, err
}

// BurnUnit destroys one custodied unit wholesale.
func (c *Client) BurnUnit(ctx context.Context, symbol string, unitID uuid.UUID) (issuer.BurnResponse, error) {
	var resp issuer.BurnResponse
	err := c.do(ctx, http.MethodPost, assetPath(symbol, "burn"), issuer.BurnRequest{UnitID: unitID.String()}, &resp)
	return resp, err
}

// BurnAmount destroys amount units drawn from custody.
func (c *Client) BurnAmount(ctx context.Context, symbol string, amount uint64) (issuer.BurnResponse, error) {
	var resp issuer.BurnResponse
	err := c.do(ctx, http.MethodPost, assetPath(symbol, "burn"), issuer.BurnRequest{Amount: amount}, &resp)
	return resp, err
}

// Freeze denies an address use of the asset. Freezing an already frozen
// address succeeds with Changed false.
func (c *Client) Freeze(ctx context.Context, symbol, address string) (issuer.FreezeResponse, error) {
	var resp issuer.FreezeResponse
	err := c.do(ctx, http.MethodPost, assetPath(symbol, "freeze"), issuer.FreezeRequest{Address: address}, &resp)
	return resp, err
}

// Thaw lifts a freeze on the address.
func (c *Client) Thaw(ctx context.Context, symbol, address string) (issuer.FreezeResponse, error) {
	var resp issuer.FreezeResponse
	err := c.do(ctx, http.MethodPost, assetPath(symbol, "thaw"), issuer.FreezeRequest{Address: address}, &resp)
	return resp, err
}

// FrozenAddresses lists the addresses currently frozen for the asset.
func (c *Client) FrozenAddresses(ctx context.Context, symbol string) ([]string, error) {
	var resp issuer.FrozenListResponse
	if err := c.do(ctx, http.MethodGet, assetPath(symbol, "frozen"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// IsFrozen reports whether the address is frozen for the asset.
func (c *Client) IsFrozen(ctx context.Context, symbol, address string) (bool, error) {
	var resp issuer.FrozenStatusResponse
	err := c.do(ctx, http.MethodGet, assetPath(symbol, "frozen", address), nil, &resp)
	return resp.Frozen, err
}

// UpdateMetadata rewrites one descriptor field and returns the updated
// descriptor.
func (c *Client) UpdateMetadata(ctx context.Context, symbol, field, value string) (issuer.DescriptorResponse, error) {
	var resp issuer.DescriptorResponse
	err := c.do(ctx, http.MethodPost, assetPath(symbol, "metadata"), issuer.UpdateMetadataRequest{Field: field, Value: value}, &resp)
	return resp, err
}

// Audit runs a conservation check across every asset.
func (c *Client) Audit(ctx context.Context) (issuer.AuditResponse, error) {
	var resp issuer.AuditResponse
	err := c.do(ctx, http.MethodGet, "/v1/audit", nil, &resp)
	return resp, err
}

// Ready reports whether the issuer answers its readiness probe.
func (c *Client) Ready(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/-/ready", nil, nil)
}

func assetPath(symbol string, parts ...string) string {
	path := "/v1/assets/" + url.PathEscape(symbol)
	for _, part := range parts {
		path += "/" + url.PathEscape(part)
	}
	return path
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("error when encoding payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", c.userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close() //nolint:errcheck

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeError(response)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func decodeError(response *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	if err != nil {
		return RequestError{Message: response.Status, StatusCode: response.StatusCode}
	}
	var envelope coinageerrors.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Code == "" {
		return RequestError{Message: response.Status, StatusCode: response.StatusCode}
	}
	return coinageerrors.FromEnvelope(envelope)
}
