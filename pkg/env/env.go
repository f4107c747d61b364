// Package env reads process settings that are consulted before the typed
// config is loaded (log format, instance identity).
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// First returns the first non-blank value among keys, in order.
func First(keys ...string) (string, bool) {
	for _, key := range keys {
		if val := Get(key, ""); val != "" {
			return val, true
		}
	}
	return "", false
}

// OneOf returns the lowercased value of key when it is one of allowed, else fallback.
func OneOf(key, fallback string, allowed ...string) string {
	val := strings.ToLower(Get(key, ""))
	for _, candidate := range allowed {
		if val == candidate {
			return val
		}
	}
	return fallback
}
