package retry

import (
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/goosy-labs/goosy-vault/pkg/retry/backoff"
)

type recordingSleeper struct {
	slept []time.Duration
}

func (s *recordingSleeper) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func withRecordingSleeper(t *testing.T) *recordingSleeper {
	s := &recordingSleeper{}
	sleep = s.sleep
	t.Cleanup(func() { sleep = time.Sleep })
	return s
}

func TestRetry(t *testing.T) {
	errStale := errors.New("stale")

	attempts, err := Retry(func() error { return nil }, Limit(5), RetriableErrors(errStale))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = Retry(func() error { return errors.New("unknown") }, Limit(5), RetriableErrors(errStale))
	assert.EqualError(t, err, "unknown")
	assert.EqualValues(t, 1, attempts)

	attempts, err = Retry(func() error { return pkgerrors.Wrap(errStale, "wrapped") }, Limit(5), RetriableErrors(errStale))
	assert.True(t, errors.Is(err, errStale))
	assert.EqualValues(t, 5, attempts)

	var calls int
	attempts, err = Retry(func() error {
		calls++
		if calls < 3 {
			return errStale
		}
		return nil
	}, Limit(5))
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestNonRetriableErrors(t *testing.T) {
	errFatal := errors.New("fatal")
	strategy := NonRetriableErrors(errFatal)

	assert.False(t, strategy(1, errFatal))
	assert.False(t, strategy(1, pkgerrors.Wrap(errFatal, "wrapped")))
	assert.True(t, strategy(1, errors.New("other")))
}

func TestBackoff(t *testing.T) {
	s := withRecordingSleeper(t)

	attempts, err := Retry(
		func() error { return errors.New("err") },
		Limit(5),
		Backoff(backoff.BinaryExponential(time.Second), 5*time.Second),
	)
	assert.Error(t, err)
	assert.EqualValues(t, 5, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}, s.slept)
}

func TestBackoffWithJitter(t *testing.T) {
	s := withRecordingSleeper(t)

	strategy := BackoffWithJitter(backoff.Constant(100*time.Millisecond), time.Second, 0.1)
	for i := uint(1); i <= 100; i++ {
		assert.True(t, strategy(i, errors.New("err")))
	}

	for _, d := range s.slept {
		assert.True(t, d >= 90*time.Millisecond)
		assert.True(t, d <= 110*time.Millisecond)
	}
}

func TestLoop(t *testing.T) {
	s := withRecordingSleeper(t)

	errDone := errors.New("done")

	var i int
	err := Loop(
		func() error {
			defer func() { i++ }()

			if i > 10 {
				return errDone
			}
			if i%4 == 0 {
				return nil
			}
			return errors.New("transient")
		},
		NonRetriableErrors(errDone),
		Backoff(backoff.Linear(1), time.Second),
	)
	assert.Equal(t, errDone, err)
	assert.Equal(t, []time.Duration{1, 2, 3, 1, 2, 3, 1, 2}, s.slept)
}
