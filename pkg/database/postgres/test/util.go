package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/code-runtime/pkg/retry"
	"github.com/code-payments/code-runtime/pkg/retry/backoff"
)

const (
	imageRepository = "postgres"
	imageTag        = "15-alpine"

	// Containers outliving a crashed test run are killed by docker after this
	containerTTL = 2 * time.Minute

	user     = "runtime"
	password = "runtime"
	dbname   = "runtime_test"

	connectAttempts = 60
	connectInterval = 500 * time.Millisecond
)

// Database is a throwaway postgres instance running in a docker container
type Database struct {
	DB *sql.DB

	pool     *dockertest.Pool
	resource *dockertest.Resource
	schema   string
	teardown string
}

// StartPostgresDB runs a postgres container, waits for it to accept
// connections and applies schema. teardown must undo schema, and is used by
// Reset to return the database to a clean state between tests.
func StartPostgresDB(pool *dockertest.Pool, schema, teardown string) (*Database, error) {
	log := logrus.StandardLogger().WithField("type", "database/postgres/test")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: imageRepository,
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
		return nil, errors.Wrap(err, "error starting postgres container")
	}

	_ = resource.Expire(uint(containerTTL.Seconds()))

	d := &Database{
		pool:     pool,
		resource: resource,
		schema:   schema,
		teardown: teardown,
	}

	url := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user,
		password,
		resource.GetHostPort("5432/tcp"),
		dbname,
	)
	log.WithField("container", resource.Container.ID).Debug("waiting for postgres")

	_, err = retry.Retry(
		func() error {
			db, err := sql.Open("pgx", url)
			if err != nil {
				return err
			}
			if err := db.Ping(); err != nil {
				db.Close()
				return err
			}
			d.DB = db
			return nil
		},
		retry.Limit(connectAttempts),
		retry.Backoff(backoff.Constant(connectInterval), connectInterval),
	)
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "postgres container never became available")
	}

	if _, err := d.DB.Exec(schema); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "error applying schema")
	}
	return d, nil
}

// Reset drops and recreates the schema
func (d *Database) Reset() error {
	if _, err := d.DB.Exec(d.teardown); err != nil {
		return errors.Wrap(err, "error dropping schema")
	}
	if _, err := d.DB.Exec(d.schema); err != nil {
		return errors.Wrap(err, "error applying schema")
	}
	return nil
}

// Close disconnects and removes the container
func (d *Database) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
	if err := d.pool.Purge(d.resource); err != nil {
		logrus.StandardLogger().WithError(err).Warn("error purging postgres container")
	}
}
