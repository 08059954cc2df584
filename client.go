package phantom

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tphakala/go-phantom/internal/api"
	"github.com/tphakala/go-phantom/internal/auth"
	"github.com/tphakala/go-phantom/internal/metrics"
)

// Default configuration values.
const defaultTimeout = 30 * time.Second

// Client is the Phantom API client.
type Client struct {
	// Containers provides access to container and case operations.
	Containers ContainerService

	// Artifacts provides access to artifact operations.
	Artifacts ArtifactService

	// Vault provides file uploads to container vaults.
	Vault VaultService

	// Playbooks provides playbook runs and their results.
	Playbooks PlaybookService

	// Actions provides app action runs and their results.
	Actions ActionService

	transport *api.Transport
}

// NewClient creates a new Phantom client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	if cfg.token == "" {
		return nil, ErrNoToken
	}

	creds := &auth.Credentials{
		Token: cfg.token,
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
		if cfg.insecureSkipVerify {
			tr := &http.Transport{Proxy: http.ProxyFromEnvironment}
			if def, ok := http.DefaultTransport.(*http.Transport); ok {
				tr = def.Clone()
			}
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed appliances
			httpClient.Transport = tr
		}
	}

	transport, err := api.NewTransport(cfg.baseURL, creds, httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}
	if cfg.logger != nil {
		transport.Logger = cfg.logger
	}
	if cfg.rateLimit > 0 {
		burst := max(cfg.rateBurst, 1)
		transport.Limiter = rate.NewLimiter(cfg.rateLimit, burst)
	}
	if cfg.registerer != nil {
		collector, err := metrics.NewCollector(cfg.registerer)
		if err != nil {
			return nil, fmt.Errorf("phantom: registering metrics: %w", err)
		}
		transport.Metrics = collector
	}

	client := &Client{
		transport: transport,
	}

	// Initialize services
	client.Containers = newContainerService(transport)
	client.Artifacts = newArtifactService(transport)
	client.Vault = newVaultService(transport)
	client.Playbooks = newPlaybookService(transport)
	client.Actions = newActionService(transport)

	transport.Logger.Debug("phantom client ready", zap.String("base_url", transport.BaseURL.String()))

	return client, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}
