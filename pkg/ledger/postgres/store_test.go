package postgres

import (
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/ledger/tests"

	postgrestest "github.com/code-payments/code-runtime/pkg/database/postgres/test"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE runtime__core_account (
			id BIGSERIAL NOT NULL PRIMARY KEY,

			address TEXT NOT NULL UNIQUE,
			owner TEXT NOT NULL,
			lamports BIGINT NOT NULL CHECK (lamports >= 0),
			data BYTEA NOT NULL,
			bump INTEGER NULL CHECK (bump >= 0 AND bump <= 255),

			version BIGINT NOT NULL,
			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
		CREATE INDEX runtime__core_account__owner ON runtime__core_account (owner);
	`

	tableDestroy = `
		DROP TABLE runtime__core_account;
	`
)

var testDB *postgrestest.Database

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.WithError(err).Warn("docker is unavailable, skipping postgres ledger tests")
		os.Exit(m.Run())
	}

	testDB, err = postgrestest.StartPostgresDB(pool, tableCreate, tableDestroy)
	if err != nil {
		log.WithError(err).Error("error starting postgres")
		os.Exit(1)
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func TestLedgerPostgresStore(t *testing.T) {
	if testDB == nil {
		t.Skip("docker is unavailable")
	}

	tests.RunTests(t, New(testDB.DB), func() {
		require.NoError(t, testDB.Reset())
	})
}
