package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"tkscraper/pkg/config"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
	"tkscraper/pkg/ratelimit"
)

// maxBodyPreview bounds how much of an unparsable body ends up in logs
const maxBodyPreview = 200

// Client performs GET requests against TikTok's web endpoints with the
// session cookies, browser headers and web-client query params attached.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	cookies    map[string]string
	params     url.Values
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a Client from the tiktok config section
func NewClient(cfg config.TikTokConfig, log logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: defaultTransport(),
		},
		baseURL: baseURL,
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "en-US,en;q=0.9",
			"Referer":         BaseURL + "/",
			"Origin":          BaseURL,
		},
		cookies: map[string]string{},
		params:  DefaultParams(cfg.Region, cfg.MsToken),
		limiter: ratelimit.Unlimited{},
		logger:  logger.OrNop(log).WithField("component", "tiktok_client"),
	}

	if cfg.SessionID != "" {
		c.cookies["sessionid"] = cfg.SessionID
	}
	if cfg.MsToken != "" {
		c.cookies["msToken"] = cfg.MsToken
	}
	if cfg.TTWebID != "" {
		c.cookies["tt_webid_v2"] = cfg.TTWebID
	}
	for k, v := range cfg.Cookies {
		c.cookies[k] = v
	}
	for k, v := range cfg.Params {
		c.params.Set(k, v)
	}

	if err := c.SetProxy(cfg.Proxy); err != nil {
		return nil, err
	}

	return c, nil
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// SetProxy routes requests through an http(s) or socks5 proxy. An empty
// address restores the default transport.
func (c *Client) SetProxy(proxyAddr string) error {
	base := defaultTransport()
	if proxyAddr == "" {
		c.httpClient.Transport = base
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy: %w", err)
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5: context dialer not supported")
		}
		base.Proxy = nil
		base.DialContext = dc.DialContext
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	c.httpClient.Transport = base
	return nil
}

// SetLimiter installs request pacing; nil disables it
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	if l == nil {
		l = ratelimit.Unlimited{}
	}
	c.limiter = l
}

// resolve turns an endpoint path into an absolute URL with the merged query
func (c *Client) resolve(endpoint string, params url.Values) (string, error) {
	raw := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		raw = c.baseURL + endpoint
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	q := u.Query()
	for k, vs := range c.params {
		q[k] = append([]string(nil), vs...)
	}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Get fetches endpoint and returns the body of a 200 response. Anything else
// is a transport error (rate_limit for 429); nothing is retried.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (string, error) {
	target, err := c.resolve(endpoint, params)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "build request")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "wait for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "create request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogRequest(c.logger.WithError(err), req.Method, endpoint, 0, time.Since(start))
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "GET "+endpoint)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", errors.New(errors.FromStatus(resp.StatusCode), resp.StatusCode,
			fmt.Sprintf("GET %s returned %s", endpoint, http.StatusText(resp.StatusCode)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "read response body")
	}
	return string(body), nil
}

// GetJSON fetches endpoint and decodes the body into target
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	body, err := c.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(body), target); err != nil {
		preview := body
		if len(preview) > maxBodyPreview {
			preview = preview[:maxBodyPreview] + "..."
		}
		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.Wrap(errors.ErrorTypeParse, err, "decode "+endpoint)
	}
	return nil
}

// Search fetches one page of search results
func (c *Client) Search(ctx context.Context, keyword string, offset, limit int) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.GetJSON(ctx, SearchEndpoint, SearchParams(keyword, offset, limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Comments fetches one page of top-level comments for a video
func (c *Client) Comments(ctx context.Context, videoID string, cursor, limit int) (*CommentListResponse, error) {
	var resp CommentListResponse
	if err := c.GetJSON(ctx, CommentListEndpoint, CommentParams(videoID, cursor, limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Replies fetches one page of replies under a comment
func (c *Client) Replies(ctx context.Context, commentID, videoID string, cursor Cursor) (*CommentListResponse, error) {
	var resp CommentListResponse
	if err := c.GetJSON(ctx, ReplyListEndpoint, ReplyParams(commentID, videoID, cursor), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile fetches a creator's public profile page as raw HTML
func (c *Client) Profile(ctx context.Context, uniqueID string) (string, error) {
	return c.Get(ctx, ProfilePath(uniqueID), nil)
}
