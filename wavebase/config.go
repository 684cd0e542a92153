package wavebase

import (
	"time"

	"github.com/wavebase/client-go/wberrors"
)

// ConnectionConfig configures a Session. Build one with NewConnectionConfig
// and the With* functional options, mirroring the teacher's
// *Settings/DefaultXSettings() construction pattern.
type ConnectionConfig struct {
	// Host is the server host (and optional :port) to connect to. Required.
	Host string
	// Module is the database/module name to subscribe to. Required.
	Module string
	// Secure selects wss:// (true) or ws:// (false).
	Secure bool
	// Token is an optional bearer token sent on the initial handshake.
	Token string

	PingInterval         time.Duration
	ConnectionTimeout    time.Duration
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	ReducerCallTimeout   time.Duration
	AutoConnect          bool
}

// DefaultConnectionConfig returns a config with every defaulted field
// from spec.md §6 set, and Host/Module left empty for the caller to fill
// in directly or via options.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		PingInterval:          30 * time.Second,
		ConnectionTimeout:     10 * time.Second,
		MaxReconnectAttempts:  3,
		ReconnectDelay:        1 * time.Second,
		MaxReconnectDelay:     30 * time.Second,
		ReducerCallTimeout:    30 * time.Second,
		AutoConnect:           true,
	}
}

// ConnectionConfigOption mutates a ConnectionConfig under construction.
type ConnectionConfigOption func(*ConnectionConfig)

// NewConnectionConfig applies opts over DefaultConnectionConfig.
func NewConnectionConfig(host, module string, opts ...ConnectionConfigOption) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Host = host
	cfg.Module = module
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithSecure(secure bool) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.Secure = secure }
}

func WithToken(token string) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.Token = token }
}

func WithPingInterval(d time.Duration) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.PingInterval = d }
}

func WithConnectionTimeout(d time.Duration) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.ConnectionTimeout = d }
}

func WithMaxReconnectAttempts(n int) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.MaxReconnectAttempts = n }
}

func WithReconnectDelay(d time.Duration) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.ReconnectDelay = d }
}

func WithMaxReconnectDelay(d time.Duration) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.MaxReconnectDelay = d }
}

func WithReducerCallTimeout(d time.Duration) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.ReducerCallTimeout = d }
}

func WithAutoConnect(auto bool) ConnectionConfigOption {
	return func(c *ConnectionConfig) { c.AutoConnect = auto }
}

// Validate returns wberrors.BuilderMissingConfiguration for the first
// caller-required field left unset.
func (c *ConnectionConfig) Validate() error {
	if c.Host == "" {
		return &wberrors.BuilderMissingConfiguration{Field: "Host"}
	}
	if c.Module == "" {
		return &wberrors.BuilderMissingConfiguration{Field: "Module"}
	}
	return nil
}

// DelayForAttempt implements the backoff schedule in spec.md §8 property
// 8: delayForAttempt(k) = min(reconnect_delay * 2^k, max_reconnect_delay)
// for the k-th retry, 0-indexed (the first retry is k=0).
func (c *ConnectionConfig) DelayForAttempt(k int) time.Duration {
	if k < 0 {
		k = 0
	}
	delay := c.ReconnectDelay
	for i := 0; i < k; i++ {
		if delay >= c.MaxReconnectDelay {
			return c.MaxReconnectDelay
		}
		delay *= 2
	}
	if delay > c.MaxReconnectDelay {
		return c.MaxReconnectDelay
	}
	return delay
}
