package async_distribution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	pg "github.com/goosy-labs/goosy-vault/pkg/database/postgres"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/ledger"
	"github.com/goosy-labs/goosy-vault/pkg/lock"
	"github.com/goosy-labs/goosy-vault/pkg/metrics"
	"github.com/goosy-labs/goosy-vault/pkg/retry"
	"github.com/goosy-labs/goosy-vault/pkg/retry/backoff"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
)

const (
	distributionLockName = "distribution"

	staleRetryBaseDelay = 25 * time.Millisecond
	staleRetryMaxDelay  = time.Second
)

var (
	// ErrRunInProgress is returned when another process holds the
	// distribution lock
	ErrRunInProgress = errors.New("distribution run already in progress")

	// ErrLockLost is returned when the distribution lock is lost mid run
	ErrLockLost = errors.New("distribution lock lost")
)

type outcome string

const (
	outcomeDistributed outcome = "distributed"
	outcomeNotAccrued  outcome = "not_accrued"
	outcomeFailed      outcome = "failed"
)

// BatchResult summarizes one pass over every vault
type BatchResult struct {
	RunId uuid.UUID

	VaultsCount uint32
	Distributed uint32
	NotAccrued  uint32
	Failed      uint32

	TotalInterest uint64

	StartedAt time.Time
	Duration  time.Duration
}

func (r *BatchResult) record(o outcome, interest uint64) {
	switch o {
	case outcomeDistributed:
		r.Distributed++
		r.TotalInterest += interest
	case outcomeNotAccrued:
		r.NotAccrued++
	default:
		r.Failed++
	}
}

type target struct {
	index   uint32
	address string
}

// RunOnce attempts interest distribution against every vault, in index
// order unless concurrency is configured. Failures of individual vaults are
// logged and counted. Failing to read the vault count, or to derive or
// verify a vault address, aborts the run.
func (p *service) RunOnce(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{
		RunId:     uuid.New(),
		StartedAt: time.Now(),
	}

	log := p.log.WithFields(logrus.Fields{
		"method": "RunOnce",
		"run_id": result.RunId.String(),
	})

	ctx, end := metrics.StartBackgroundTransaction(ctx, "async__distribution_service__run")
	defer end()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.locks != nil {
		unlock, err := p.acquireRunLock(runCtx, cancel)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	programInfo, err := p.ledger.GetProgramInfo(runCtx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting program info")
	}

	adminVault, err := p.ledger.GetAdminVault(runCtx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting admin vault")
	}

	result.VaultsCount = programInfo.VaultsCount
	log = log.WithField("vaults", result.VaultsCount)

	targets, err := deriveTargets(result.VaultsCount)
	if err != nil {
		return nil, err
	}

	args := func(t *target) *ledger.DistributeInterestArgs {
		return &ledger.DistributeInterestArgs{
			ProgramInfo:      programInfo.Address,
			AdminVault:       adminVault.Address,
			DestinationVault: t.address,
		}
	}

	limiter := p.newLimiter(runCtx)

	var mu sync.Mutex
	process := func(ctx context.Context, t *target) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		o, interest, err := p.distribute(ctx, log, t, args(t))
		if err != nil {
			return err
		}

		mu.Lock()
		result.record(o, interest)
		mu.Unlock()

		recordVaultOutcome(o, interest)
		return nil
	}

	concurrency := p.conf.concurrency.Get(runCtx)
	if concurrency <= 1 {
		for _, t := range targets {
			if err = process(runCtx, t); err != nil {
				break
			}
		}
	} else {
		g, gCtx := errgroup.WithContext(runCtx)
		g.SetLimit(int(concurrency))
		for _, t := range targets {
			t := t
			if gCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				return process(gCtx, t)
			})
		}
		err = g.Wait()
	}

	result.Duration = time.Since(result.StartedAt)
	recordBatch(ctx, result, err)

	if err != nil {
		if ctx.Err() == nil && runCtx.Err() != nil && errors.Is(err, context.Canceled) {
			err = ErrLockLost
		}
		log.WithError(err).Warn("distribution run aborted")
		return result, err
	}
	return result, nil
}

// acquireRunLock takes the distribution lock without waiting and cancels the
// run if the lock is lost
func (p *service) acquireRunLock(ctx context.Context, cancel context.CancelFunc) (func(), error) {
	l, err := p.locks.Create(ctx, distributionLockName)
	if err != nil {
		return nil, errors.Wrap(err, "error creating distribution lock")
	}

	lostCh, err := l.TryAcquire(ctx)
	if err == lock.ErrLockHeld {
		return nil, ErrRunInProgress
	} else if err != nil {
		return nil, errors.Wrap(err, "error acquiring distribution lock")
	}

	go func() {
		select {
		case <-lostCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() {
		if err := l.Unlock(context.Background()); err != nil {
			p.log.WithError(err).Warn("failure releasing distribution lock")
		}
	}, nil
}

func deriveTargets(count uint32) ([]*target, error) {
	targets := make([]*target, count)
	for i := uint32(0); i < count; i++ {
		address, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{
			Index: i,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "error deriving address for vault %d", i)
		}

		targets[i] = &target{
			index:   i,
			address: base58.Encode(address),
		}
	}
	return targets, nil
}

func (p *service) newLimiter(ctx context.Context) *rate.Limiter {
	perSecond := p.conf.maxPerSecond.Get(ctx)
	if perSecond == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// distribute invokes the ledger for one vault. Only errors that should abort
// the whole run are returned.
func (p *service) distribute(ctx context.Context, log *logrus.Entry, t *target, args *ledger.DistributeInterestArgs) (outcome, uint64, error) {
	log = log.WithFields(logrus.Fields{
		"index":   t.index,
		"address": t.address,
	})

	record, err := p.ledger.GetVaultByAddress(ctx, t.address)
	if err == nil && (record.IsAdmin() || record.Index != t.index) {
		err = ledger.ErrAddressDerivationMismatch
	}
	if err != nil {
		return p.classify(log, err)
	}

	var res *ledger.DistributeInterestResult
	_, err = retry.Retry(
		func() error {
			res, err = p.ledger.DistributeInterest(ctx, args)
			return err
		},
		retry.Limit(uint(p.conf.staleRetryLimit.Get(ctx))),
		isConflict,
		retry.Backoff(backoff.BinaryExponential(staleRetryBaseDelay), staleRetryMaxDelay),
	)
	if err != nil {
		return p.classify(log, err)
	}

	log.WithField("interest", res.Interest).Debug("interest distributed")
	return outcomeDistributed, res.Interest, nil
}

// classify converts a per vault failure into an outcome, or returns it when
// it must abort the run
func (p *service) classify(log *logrus.Entry, err error) (outcome, uint64, error) {
	switch {
	case errors.Is(err, ledger.ErrInterestNotAccruedYet):
		log.Trace("interest not accrued yet")
		return outcomeNotAccrued, 0, nil
	case errors.Is(err, ledger.ErrAddressDerivationMismatch),
		errors.Is(err, ledger.ErrProgramNotInitialized),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return outcomeFailed, 0, err
	}

	log.WithError(err).Warn("failure distributing interest")
	return outcomeFailed, 0, nil
}

// isConflict retries transitions that lost a race on a record version
func isConflict(_ uint, err error) bool {
	return errors.Is(err, vault.ErrStaleVersion) || pg.IsSerializationFailure(err)
}
