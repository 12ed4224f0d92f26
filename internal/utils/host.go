package utils

import (
	"os"
	"sync"
)

// GetHost returns the machine hostname, resolved once. Used as the log
// hostname label and in service registration ids.
var GetHost = sync.OnceValue(func() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "unknown"
})
