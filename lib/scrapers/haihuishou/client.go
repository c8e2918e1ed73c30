// Package haihuishou wraps the Haihuishou recycling marketplace API:
// login, catalog lookup, order list query and quotation endpoints.
// List queries and quotations carry the session token in a request
// header and the userId in the request body; both are required.
package haihuishou

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"haigrab/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultHsdBaseUrl  = "https://hsdapi.haihuishou.com"
	DefaultMainBaseUrl = "https://haihuishou.com"
	DefaultWapBaseUrl  = "https://wap.haihuishou.com"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type ClientOptions struct {
	// base hosts, defaulted when empty; tests point these at
	// httptest servers
	HsdBaseUrl  string
	MainBaseUrl string
	WapBaseUrl  string
	// bound on each network round trip, defaults to 15s
	Timeout time.Duration
	// the vendor's certificate chain contains a self-signed cert, so
	// verification is skipped unless this is set
	VerifyTLS bool
}

// Client is a Haihuishou API client holding the current session. It is
// scoped to one operator context and must not be shared across
// concurrent operators.
type Client struct {
	http *resty.Client

	baseHsd  string
	baseMain string
	baseWap  string

	token  string
	userId string
}

func NewClient(opts ClientOptions) *Client {
	if opts.HsdBaseUrl == "" {
		opts.HsdBaseUrl = DefaultHsdBaseUrl
	}
	if opts.MainBaseUrl == "" {
		opts.MainBaseUrl = DefaultMainBaseUrl
	}
	if opts.WapBaseUrl == "" {
		opts.WapBaseUrl = DefaultWapBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 15
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("user-agent", userAgent)
	if !opts.VerifyTLS {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		http:     client,
		baseHsd:  strings.TrimSuffix(opts.HsdBaseUrl, "/"),
		baseMain: strings.TrimSuffix(opts.MainBaseUrl, "/"),
		baseWap:  strings.TrimSuffix(opts.WapBaseUrl, "/"),
	}
}

// SetSession restores a previously issued session, e.g. one kept in a
// web session cookie.
func (c *Client) SetSession(token, userId string) {
	c.token = token
	if userId != "" {
		c.userId = userId
	}
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) UserID() string {
	return c.userId
}

// requireSession is the local authentication precondition: protected
// endpoints need both the token header and the body userId, and
// checking here avoids a wasted network call.
func (c *Client) requireSession() error {
	if c.token == "" {
		return fmt.Errorf("%w: missing token (request header)", ErrNotAuthenticated)
	}
	if c.userId == "" {
		return fmt.Errorf("%w: missing userId (request body)", ErrNotAuthenticated)
	}
	return nil
}

// post performs a single best-effort JSON POST. There are no retries
// and no backoff: this tool makes one attempt per operator action, and
// resubmission is the operator's call.
func (c *Client) post(ctx context.Context, url string, body any, withToken bool) (any, error) {
	req := c.http.R().SetContext(ctx)
	if body == nil {
		body = map[string]any{}
	}
	req.SetBody(body)
	if withToken && c.token != "" {
		req.SetHeader("token", c.token)
	}

	res, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, &TransportError{StatusCode: res.StatusCode(), Status: res.Status()}
	}

	raw := strings.TrimSpace(string(res.Body()))
	if raw == "" {
		return map[string]any{}, nil
	}
	var parsed any
	err = json.Unmarshal([]byte(raw), &parsed)
	if err != nil {
		// this API is known to return non-JSON or empty bodies when
		// the token is invalid or absent
		return nil, &ProtocolError{Endpoint: url, Err: err}
	}
	return parsed, nil
}

// checkEnvelope applies the vendor's generic failure convention: a
// top-level code other than 1, or success=false, is an explicit
// rejection. A missing code is tolerated since not every endpoint
// sends one.
func checkEnvelope(endpoint string, v any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	code, hasCode := jsonInt(obj, "code")
	if hasCode && code != 1 {
		return &RemoteRejection{
			Endpoint: endpoint,
			Code:     code,
			Message:  jsonString(obj, "message"),
		}
	}
	if success, ok := obj["success"].(bool); ok && !success {
		return &RemoteRejection{
			Endpoint: endpoint,
			Code:     code,
			Message:  jsonString(obj, "message"),
		}
	}
	return nil
}
