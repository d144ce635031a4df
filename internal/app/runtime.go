package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv makes binaries return before touching Postgres, Redis or the
// network. The testing package sets it from an init.
const TestModeEnv = "QUOTEDESK_TEST_MODE"

var testMode atomic.Pointer[bool]

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}

// InTestMode reports whether runtime side effects should be skipped.
func InTestMode() bool {
	if cached := testMode.Load(); cached != nil {
		return *cached
	}
	on := readTestMode()
	testMode.CompareAndSwap(nil, &on)
	return on
}

// RefreshTestMode re-reads the environment, e.g. after t.Setenv.
func RefreshTestMode() {
	on := readTestMode()
	testMode.Store(&on)
}
