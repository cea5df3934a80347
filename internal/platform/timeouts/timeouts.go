// Package timeouts defines shared timeout constants used by tracker processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// Background caps detached work such as view counting and event publishing
// that outlives the request that triggered it.
const Background = 3 * time.Second

// StoreOpen caps the initial store ping at startup.
const StoreOpen = 5 * time.Second
