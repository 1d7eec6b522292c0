// Package guard forces test mode when imported, keeping test binaries
// from starting real runtimes.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("TLALOC_TEST_MODE") == "" {
			_ = os.Setenv("TLALOC_TEST_MODE", "1")
		}
	})
}
