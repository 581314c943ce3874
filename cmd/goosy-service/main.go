package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"

	"github.com/goosy-labs/goosy-vault/pkg/app"
	pg "github.com/goosy-labs/goosy-vault/pkg/database/postgres"
	"github.com/goosy-labs/goosy-vault/pkg/database/query"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/async"
	async_distribution "github.com/goosy-labs/goosy-vault/pkg/goosy/async/distribution"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/ledger"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	"github.com/goosy-labs/goosy-vault/pkg/lock"
	etcd_lock "github.com/goosy-labs/goosy-vault/pkg/lock/etcd"
	local_lock "github.com/goosy-labs/goosy-vault/pkg/lock/local"
	"github.com/goosy-labs/goosy-vault/pkg/metrics"
)

type service struct {
	log  *logrus.Entry
	conf *conf

	db         *sql.DB
	data       data.DatabaseData
	etcdClient *v3.Client
	locks      *etcd_lock.LockManager

	engine       *ledger.Engine
	distribution async.Service

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
}

func (s *service) Init(_ app.Config, metricsProvider *newrelic.Application) error {
	s.log = logrus.StandardLogger().WithField("type", "goosy-service")
	s.conf = withEnvConfigs()
	s.shutdownCh = make(chan struct{})
	s.ctx, s.cancel = context.WithCancel(metrics.NewContext(context.Background(), metricsProvider))

	mint := s.conf.mint.Get(s.ctx)
	if _, err := common.NewAccountFromPublicKeyString(mint); err != nil {
		return errors.Wrapf(err, "invalid %s", MintPublicKeyEnvName)
	}
	admin := s.conf.admin.Get(s.ctx)
	if _, err := common.NewAccountFromPublicKeyString(admin); err != nil {
		return errors.Wrapf(err, "invalid %s", AdminPublicKeyEnvName)
	}

	db, err := pg.Open(&pg.Config{
		Host:               s.conf.dbHost.Get(s.ctx),
		Port:               int(s.conf.dbPort.Get(s.ctx)),
		User:               s.conf.dbUser.Get(s.ctx),
		Password:           s.conf.dbPassword.Get(s.ctx),
		DbName:             s.conf.dbName.Get(s.ctx),
		MaxOpenConnections: int(s.conf.dbMaxOpen.Get(s.ctx)),
		MaxIdleConnections: int(s.conf.dbMaxIdle.Get(s.ctx)),
		UseAwsIam:          s.conf.dbUseAwsIam.Get(s.ctx),
	})
	if err != nil {
		return errors.Wrap(err, "error opening database")
	}
	s.db = db

	s.data = data.NewDatabaseProviderFromDB(db)
	s.engine = ledger.New(s.data, token.NewClient(s.data), nil)

	s.checkLedger(s.ctx, mint, admin)

	locks, err := s.newLockManager()
	if err != nil {
		return err
	}

	s.distribution = async_distribution.New(s.engine, locks, async_distribution.WithEnvConfigs())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := s.distribution.Start(s.ctx, s.conf.distributionInterval.Get(s.ctx))
		if err != nil && err != context.Canceled {
			s.log.WithError(err).Warn("distribution service terminated unexpectedly")
			s.signalShutdown()
		}
	}()

	return nil
}

// newLockManager returns an etcd backed lock manager when endpoints are
// configured, otherwise an in process one.
func (s *service) newLockManager() (lock.Manager, error) {
	endpoints := splitEndpoints(s.conf.etcdEndpoints.Get(s.ctx))
	if len(endpoints) == 0 {
		s.log.Warn("no etcd endpoints configured, distribution runs are not excluded across replicas")
		return local_lock.NewLockManager(), nil
	}

	etcdClient, err := v3.New(v3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating etcd client")
	}
	s.etcdClient = etcdClient

	s.locks, err = etcd_lock.NewLockManager(etcdClient, etcdLockRootKey, s.conf.etcdLockTtl.Get(s.ctx))
	if err != nil {
		return nil, errors.Wrap(err, "error creating lock manager")
	}
	return s.locks, nil
}

// checkLedger logs when the ledger state doesn't match the configured
// identities. Initialization is left to ledger callers.
func (s *service) checkLedger(ctx context.Context, mint, admin string) {
	log := s.log.WithFields(logrus.Fields{
		"method": "checkLedger",
		"mint":   mint,
		"admin":  admin,
	})

	programInfo, err := s.engine.GetProgramInfo(ctx)
	if err == ledger.ErrProgramNotInitialized {
		log.Warn("program is not initialized")
		return
	} else if err != nil {
		log.WithError(err).Warn("failure getting program info")
		return
	}
	if programInfo.Admin != admin {
		log.WithField("program_admin", programInfo.Admin).Warn("program admin doesn't match configured admin")
	}

	userVaults, err := s.data.GetVaultCountByType(ctx, vault.TypeUser)
	if err != nil {
		log.WithError(err).Warn("failure counting user vaults")
	} else if userVaults != uint64(programInfo.VaultsCount) {
		log.WithFields(logrus.Fields{
			"vaults_count": programInfo.VaultsCount,
			"user_vaults":  userVaults,
		}).Warn("vault count doesn't match stored user vaults")
	}

	latest, err := s.data.GetAllVaultsByType(ctx, vault.TypeUser, query.WithLimit(1), query.WithDirection(query.Descending))
	if err != nil && err != vault.ErrVaultNotFound {
		log.WithError(err).Warn("failure getting latest user vault")
	} else if len(latest) > 0 && latest[0].Index+1 != programInfo.VaultsCount {
		log.WithField("latest_index", latest[0].Index).Warn("latest user vault index doesn't match vault count")
	}

	adminVault, err := s.engine.GetAdminVault(ctx)
	if err == ledger.ErrAdminVaultNotFound {
		log.Warn("admin vault is not created")
		return
	} else if err != nil {
		log.WithError(err).Warn("failure getting admin vault")
		return
	}
	if adminVault.Mint != mint {
		log.WithField("admin_vault_mint", adminVault.Mint).Warn("admin vault mint doesn't match configured mint")
	}
}

func (s *service) RegisterWithGRPC(_ *grpc.Server) {
}

func (s *service) ShutdownChan() <-chan struct{} {
	return s.shutdownCh
}

func (s *service) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()

		if s.locks != nil {
			s.locks.Close()
		}
		if s.etcdClient != nil {
			s.etcdClient.Close()
		}
		if s.db != nil {
			s.db.Close()
		}

		s.signalShutdown()
	})
}

func (s *service) signalShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.StandardLogger().WithError(err).Debug("no .env file loaded")
	}

	if err := app.Run(&service{}); err != nil {
		logrus.StandardLogger().WithError(err).Fatal("error running service")
	}
}
