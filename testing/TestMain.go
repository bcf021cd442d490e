package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode stops binaries under test from dialing real backends.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("LEZIT_TEST_MODE", "1")
		if os.Getenv("SIDE_EFFECT_TIMEOUT") == "" {
			_ = os.Setenv("SIDE_EFFECT_TIMEOUT", "500ms")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
