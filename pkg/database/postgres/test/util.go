// Package test runs a disposable postgres container for store tests
package test

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	"github.com/goosy-labs/goosy-vault/pkg/retry"
	"github.com/goosy-labs/goosy-vault/pkg/retry/backoff"
)

const (
	imageName         = "postgres"
	imageTag          = "14.11"
	containerAutoKill = 120 * time.Second

	port     = 5432
	user     = "goosy"
	password = "goosy"
	dbname   = "goosy_vault_test"
)

// StartPostgresDB starts a postgres container and returns a connected pool.
// The returned close function is safe to call on failure.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: imageName,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "error starting postgres")
	}

	closeFunc = func() {
		pool.Purge(resource)
	}

	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	url := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user, password, resource.GetHostPort(fmt.Sprintf("%d/tcp", port)), dbname,
	)

	_, err = retry.Retry(
		func() error {
			db, err = sql.Open("pgx", url)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(50),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "timed out waiting for postgres")
	}

	return db, closeFunc, nil
}
