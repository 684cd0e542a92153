package wavebase

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestDelayForAttemptMatchesExponentialSchedule(t *testing.T) {
	cfg := NewConnectionConfig("db.example.com", "mymodule")
	cfg.ReconnectDelay = time.Second
	cfg.MaxReconnectDelay = 30 * time.Second

	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second,
		30 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for k, w := range want {
		assert.Equal(t, cfg.DelayForAttempt(k), w)
	}
}

func TestValidateRequiresHostThenModule(t *testing.T) {
	cfg := &ConnectionConfig{}
	err := cfg.Validate()
	assert.NotEqual(t, err, nil)

	cfg.Host = "db.example.com"
	err = cfg.Validate()
	assert.NotEqual(t, err, nil)

	cfg.Module = "mymodule"
	assert.Equal(t, cfg.Validate(), nil)
}

func TestNewConnectionConfigAppliesOptionsOverDefaults(t *testing.T) {
	cfg := NewConnectionConfig("db.example.com", "mymodule",
		WithSecure(true),
		WithToken("tok"),
		WithMaxReconnectAttempts(5),
	)
	assert.Equal(t, cfg.Secure, true)
	assert.Equal(t, cfg.Token, "tok")
	assert.Equal(t, cfg.MaxReconnectAttempts, 5)
	assert.Equal(t, cfg.PingInterval, 30*time.Second)
}
