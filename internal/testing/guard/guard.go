// Package guard forces test mode when blank-imported from test files,
// so binaries touched by a test run never start real servers or workers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("KATERINGPRO_TEST_MODE") == "" {
			_ = os.Setenv("KATERINGPRO_TEST_MODE", "1")
		}
		if os.Getenv("GATEWAY_SERVER_KEY") == "" {
			_ = os.Setenv("GATEWAY_SERVER_KEY", "test-server-key")
		}
	})
}
