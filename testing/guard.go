// Package testguard flips the application into test mode when blank-imported
// from package tests, so mains and other runtime side effects stay inert.
package testguard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ADMINBASE_TEST_MODE") == "" {
			_ = os.Setenv("ADMINBASE_TEST_MODE", "1")
		}
	})
}
