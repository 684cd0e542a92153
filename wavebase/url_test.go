package wavebase

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestBuildSubscribeURL(t *testing.T) {
	assert.Equal(t, BuildSubscribeURL("db.example.com", "mymodule", false), "ws://db.example.com/database/subscribe/mymodule")
	assert.Equal(t, BuildSubscribeURL("db.example.com", "mymodule", true), "wss://db.example.com/database/subscribe/mymodule")
	assert.Equal(t, BuildSubscribeURL("wss://db.example.com", "mymodule", true), "wss://db.example.com/database/subscribe/mymodule")
	assert.Equal(t, BuildSubscribeURL("db.example.com/database/subscribe/mymodule", "mymodule", false), "ws://db.example.com/database/subscribe/mymodule")
}

// TestBuildSubscribeURLHonorsExistingSchemeVerbatim covers spec.md §6's
// verbatim framing: a host that already carries both a scheme and the
// subscribe path is left untouched, even when secure disagrees with the
// scheme already present, rather than silently rewritten.
func TestBuildSubscribeURLHonorsExistingSchemeVerbatim(t *testing.T) {
	assert.Equal(t,
		BuildSubscribeURL("https://db.example.com/database/subscribe/mymodule", "mymodule", false),
		"https://db.example.com/database/subscribe/mymodule")
	assert.Equal(t,
		BuildSubscribeURL("ws://db.example.com/database/subscribe/mymodule/", "mymodule", true),
		"ws://db.example.com/database/subscribe/mymodule")
}

func TestBuildSchemaURL(t *testing.T) {
	got := BuildSchemaURL("db.example.com", "mymodule", true, 3)
	assert.Equal(t, got, "https://db.example.com/v1/database/mymodule/schema?version=3")
}
