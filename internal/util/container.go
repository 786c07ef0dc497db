package util

import (
	"os"
	"sync"
)

var IsContainer = sync.OnceValue(func() bool {
	for _, path := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
})
