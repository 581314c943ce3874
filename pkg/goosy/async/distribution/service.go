package async_distribution

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/async"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/ledger"
	"github.com/goosy-labs/goosy-vault/pkg/lock"
	"github.com/goosy-labs/goosy-vault/pkg/retry"
)

// Ledger is the part of the ledger the distribution worker drives
type Ledger interface {
	ledger.Reader

	DistributeInterest(ctx context.Context, args *ledger.DistributeInterestArgs) (*ledger.DistributeInterestResult, error)
}

type service struct {
	log    *logrus.Entry
	conf   *conf
	ledger Ledger
	locks  lock.Manager
}

// New returns the interest distribution service. A nil lock manager runs
// batches without cross process exclusion.
func New(ledger Ledger, locks lock.Manager, configProvider ConfigProvider) async.Service {
	return &service{
		log:    logrus.StandardLogger().WithField("service", "distribution"),
		conf:   configProvider(),
		ledger: ledger,
		locks:  locks,
	}
}

// Start implements async.Service.Start
func (p *service) Start(ctx context.Context, interval time.Duration) error {
	schedule := p.conf.schedule.Get(ctx)

	go func() {
		var err error
		if len(schedule) > 0 {
			err = p.scheduledWorker(ctx, schedule)
		} else {
			err = p.intervalWorker(ctx, interval)
		}
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("interest distribution loop terminated unexpectedly")
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *service) intervalWorker(ctx context.Context, interval time.Duration) error {
	return retry.Loop(
		func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}

			return p.runAndLog(ctx)
		},
		retry.NonRetriableErrors(context.Canceled, context.DeadlineExceeded),
	)
}

func (p *service) scheduledWorker(ctx context.Context, schedule string) error {
	runner := cron.New(cron.WithLocation(time.UTC))

	_, err := runner.AddFunc(schedule, func() {
		p.runAndLog(ctx)
	})
	if err != nil {
		return err
	}

	runner.Start()
	<-ctx.Done()
	<-runner.Stop().Done()

	return ctx.Err()
}

func (p *service) runAndLog(ctx context.Context) error {
	log := p.log.WithField("method", "runAndLog")

	result, err := p.RunOnce(ctx)
	switch err {
	case nil:
	case ErrRunInProgress:
		log.Debug("distribution run in progress elsewhere")
		return nil
	default:
		log.WithError(err).Warn("distribution run failed")
		return err
	}

	log.WithFields(logrus.Fields{
		"run_id":         result.RunId.String(),
		"vaults":         result.VaultsCount,
		"distributed":    result.Distributed,
		"not_accrued":    result.NotAccrued,
		"failed":         result.Failed,
		"total_interest": result.TotalInterest,
	}).Info("distribution run complete")
	return nil
}
