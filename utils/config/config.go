package config

import (
	"strings"
)

// ParseAddress splits "host:port" into its parts; the host may be empty.
func ParseAddress(raw string) (hostname, port string) {
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		return raw[:i], raw[i+1:]
	}

	return raw, ""
}
