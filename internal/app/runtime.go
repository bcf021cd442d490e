package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// testModeEnv makes the binaries return before dialing any backend.
const testModeEnv = "LEZIT_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func readTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && on)
}

// InTestMode reports whether LEZIT_TEST_MODE is set to a true value.
func InTestMode() bool {
	testModeOnce.Do(readTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	readTestMode()
}
