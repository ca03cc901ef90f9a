// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for code that ages
// records or runs periodic passes.
//
// Production code holds a [Clock] and calls Now and NewTicker through it
// instead of the time package. [Real] wraps the standard library. [Fake]
// returns a [FakeClock] whose time moves only when Advance is called, so
// tests can age terminal sessions past a freshness threshold or fire a
// reconciliation tick without sleeping:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine := panel.New(panel.Options{Clock: c})
//	c.Advance(11 * time.Minute)
//
// Goroutines that block on a fake ticker register a waiter first. Use
// [FakeClock.WaitForTickers] before Advance to avoid racing that
// registration.
package clock
