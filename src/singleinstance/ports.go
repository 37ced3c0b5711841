package singleinstance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49650
	defaultPortEnd   = 49670

	envPortStart = "SCREEN_TRANSLATOR_PORT_START"
	envPortEnd   = "SCREEN_TRANSLATOR_PORT_END"
)

// portRange returns the inclusive TCP port range from SCREEN_TRANSLATOR_PORT_START
// and SCREEN_TRANSLATOR_PORT_END, clamped to [1024, 65535].
func portRange() (int, int) {
	start := envInt(envPortStart, defaultPortStart)
	end := envInt(envPortEnd, defaultPortEnd)
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// PortRange exposes the effective port range for logging.
func PortRange() (int, int) { return portRange() }
