// Package interest holds the interest time gate and formula. A vault becomes
// eligible once it is a fixed age, and stays eligible forever after.
package interest

import (
	"time"
)

const (
	// OneMonth is a fixed 30 day period, not a calendar month
	OneMonth = 30 * 24 * 60 * 60 * time.Second

	// RateDivisor yields a flat 1% rate
	RateDivisor = 100
)

// IsEligible returns whether a vault created at creationDate may receive
// interest at now. The boundary is inclusive.
func IsEligible(creationDate, now time.Time) bool {
	return now.Unix()-creationDate.Unix() >= int64(OneMonth/time.Second)
}

// NextEligibleAt is the earliest time a vault created at creationDate may
// receive interest.
func NextEligibleAt(creationDate time.Time) time.Time {
	return time.Unix(creationDate.Unix(), 0).Add(OneMonth)
}

// CalculateInterest computes the interest owed on an external balance. The
// result is truncated, so balances under RateDivisor earn nothing.
func CalculateInterest(externalBalance uint64) uint64 {
	return externalBalance / RateDivisor
}
