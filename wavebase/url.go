package wavebase

import (
	"strconv"
	"strings"
)

const subscribePath = "/database/subscribe/"

// BuildSubscribeURL builds the {ws,wss}://host/database/subscribe/<module>
// session URL per spec.md §6. If host already contains the subscribe
// path it is used as given, minus a trailing slash: a scheme already
// present is kept even when secure disagrees with it, and a host with no
// scheme gets ws:// or wss:// prefixed.
func BuildSubscribeURL(host, module string, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}

	trimmed := host
	hadScheme := false
	for _, prefix := range []string{"ws://", "wss://", "http://", "https://"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimPrefix(trimmed, prefix)
			hadScheme = true
			break
		}
	}

	if hadScheme && strings.Contains(trimmed, subscribePath) {
		// host is already a complete URL; honor it verbatim instead of
		// rebuilding it with a scheme that may not match the original.
		return strings.TrimSuffix(host, "/")
	}
	if strings.Contains(trimmed, subscribePath) {
		return scheme + "://" + strings.TrimSuffix(trimmed, "/")
	}
	return scheme + "://" + strings.TrimSuffix(trimmed, "/") + subscribePath + module
}

// BuildSchemaURL builds the {http,https}://host/v1/database/<module>/schema?version=<version>
// schema retrieval URL per spec.md §6. The runtime core never calls this
// itself; it exists for the external code generator.
func BuildSchemaURL(host, module string, secure bool, version int) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	host = strings.TrimPrefix(host, "ws://")
	host = strings.TrimPrefix(host, "wss://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")

	return scheme + "://" + strings.TrimSuffix(host, "/") + "/v1/database/" + module + "/schema?version=" + strconv.Itoa(version)
}
