// Package guard flips the application into test mode as a side effect of
// being imported, so package tests never touch real runtime wiring.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("TEMPLE_TEST_MODE") == "" {
			_ = os.Setenv("TEMPLE_TEST_MODE", "1")
		}
	})
}
