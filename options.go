package phantom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tphakala/go-phantom/internal/api"
	"github.com/tphakala/go-phantom/internal/auth"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL            string
	token              string
	httpClient         *http.Client
	timeout            time.Duration
	userAgent          string
	insecureSkipVerify bool
	logger             *zap.Logger
	rateLimit          rate.Limit
	rateBurst          int
	registerer         prometheus.Registerer
}

// WithBaseURL sets the Phantom base URL, e.g. https://phantom.example.com.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithToken sets the automation user token sent as ph-auth-token.
func WithToken(token string) ClientOption {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithConfig applies every non-zero field of cfg.
func WithConfig(cfg *Config) ClientOption {
	return func(c *clientConfig) {
		if cfg == nil {
			return
		}
		if cfg.URL != "" {
			c.baseURL = cfg.URL
		}
		if cfg.Token != "" {
			c.token = cfg.Token
		}
		if cfg.Timeout > 0 {
			c.timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			c.userAgent = cfg.UserAgent
		}
		if cfg.InsecureSkipVerify {
			c.insecureSkipVerify = true
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the default request timeout.
// Note: This option is ignored when WithHTTPClient is used;
// set the timeout directly on the provided client instead.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Phantom
// appliances are commonly deployed with self-signed certificates.
// Ignored when WithHTTPClient is used.
func WithInsecureSkipVerify() ClientOption {
	return func(c *clientConfig) {
		c.insecureSkipVerify = true
	}
}

// WithLogger sets the logger used for request debug logging.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithRateLimit spaces requests to at most rps per second with the given
// burst. Requests wait for capacity; nothing is retried.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *clientConfig) {
		c.rateLimit = rate.Limit(rps)
		c.rateBurst = burst
	}
}

// WithMetrics registers request metrics with reg.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
	basic   *auth.Basic
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// request builds a transport request carrying the per-request options.
func (r *requestConfig) request(method, path string, query *Query, body any) *api.Request {
	return &api.Request{
		Method:  method,
		Path:    path,
		Query:   query.Values(),
		Body:    body,
		Headers: r.headers,
		Basic:   r.basic,
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}

// WithRequestID sets the X-Request-ID header for tracing. Requests without
// one get a random ID.
func WithRequestID(id string) RequestOption {
	return WithHeader(api.RequestIDHeader, id)
}

// WithBasicAuth sends user credentials alongside the token. Phantom requires
// them for operations restricted to interactive users, such as deleting a
// container.
func WithBasicAuth(username, password string) RequestOption {
	return func(r *requestConfig) {
		r.basic = &auth.Basic{Username: username, Password: password}
	}
}
