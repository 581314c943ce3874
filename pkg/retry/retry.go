// Package retry runs actions repeatedly under composable strategies
package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/goosy-labs/goosy-vault/pkg/retry/backoff"
)

// Action is a function to be performed in a retriable manner.
type Action func() error

// Strategy decides whether an action that failed on the given attempt should
// run again. Strategies may sleep.
type Strategy func(attempts uint, err error) bool

// Retry runs action until it succeeds or a strategy declines another attempt.
// It returns the number of attempts made.
//
// Strategies run in order and stop at the first refusal, so strategies that
// sleep belong last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for attempts := uint(1); ; attempts++ {
		err := action()
		if err == nil {
			return attempts, nil
		}

		if !allow(strategies, attempts, err) {
			return attempts, err
		}
	}
}

// Loop runs action forever until a strategy declines a failure. Successful
// runs reset the attempt counter.
func Loop(action Action, strategies ...Strategy) error {
	var attempts uint
	for {
		err := action()
		if err == nil {
			attempts = 0
			continue
		}

		attempts++
		if !allow(strategies, attempts, err) {
			return err
		}
	}
}

func allow(strategies []Strategy, attempts uint, err error) bool {
	for _, strategy := range strategies {
		if !strategy(attempts, err) {
			return false
		}
	}
	return true
}

// Limit caps the total number of attempts
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of targets
func RetriableErrors(targets ...error) Strategy {
	return func(_ uint, err error) bool {
		return matchesAny(err, targets)
	}
}

// NonRetriableErrors retries everything except errors matching targets
func NonRetriableErrors(targets ...error) Strategy {
	return func(_ uint, err error) bool {
		return !matchesAny(err, targets)
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay randomly moved by up to
// jitter as a fraction, ie. 0.1 sleeps 90ms to 110ms for a 100ms delay.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}

		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}

		sleep(delay)
		return true
	}
}

var sleep = time.Sleep
