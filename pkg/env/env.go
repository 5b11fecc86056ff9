package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces every variable the service reads.
const Prefix = "VENUEOPS_"

func lookup(key string) (string, bool) {
	if val, ok := os.LookupEnv(Prefix + key); ok && strings.TrimSpace(val) != "" {
		return val, true
	}
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val, true
	}
	return "", false
}

// Get returns VENUEOPS_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return fallback
}

// Bool parses the same lookup chain; unparsable values yield fallback.
func Bool(key string, fallback bool) bool {
	val, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return parsed
}
