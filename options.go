package couchman

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	url      string
	username string
	password string

	httpClient       *http.Client
	timeout          time.Duration
	readinessTimeout time.Duration
	skipReadiness    bool
	noDefaultIndex   bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithServer sets the CouchDB server URL, for example "http://127.0.0.1:5984".
// The URL must not embed credentials.
func WithServer(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.url = url
	})
}

// WithCredentials sets HTTP Basic credentials. They live in memory only.
func WithCredentials(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithHTTPClient replaces the HTTP client (proxies, TLS settings, tests).
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithReadinessTimeout bounds how long New waits for the server. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithoutReadinessCheck makes New return without contacting the server.
func WithoutReadinessCheck() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipReadiness = true
	})
}

// WithoutDefaultIndex stops Databases().Create from adding the "<name>_idx"
// index on _id to every new database.
func WithoutDefaultIndex() Option {
	return optionFunc(func(c *clientConfig) {
		c.noDefaultIndex = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
