// Package mono provides monotonic-clock helpers used to time connection
// idleness and rate-limiter token refill without sprinkling time.Now() calls.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// NanoTime returns a monotonic nanosecond reading. Only ever compared to
// another NanoTime() reading, never serialized or interpreted as wall time.
func NanoTime() int64 { return time.Now().UnixNano() }

// Since returns the elapsed duration since a prior NanoTime() reading.
func Since(start int64) time.Duration { return time.Duration(NanoTime() - start) }
