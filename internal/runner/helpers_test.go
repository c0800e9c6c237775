package runner

import "time"

const (
	testTimeout = 5 * time.Second
	testTick    = 20 * time.Millisecond
)
