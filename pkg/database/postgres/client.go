package pg

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// driverName is the New Relic instrumented wrapper around the pgx driver
const driverName = "nrpgx"

type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int
}

// Open connects using the credentials in cfg. When awsConfig is non-nil and
// no password is configured, an IAM auth token is generated instead.
func Open(cfg *Config, awsConfig *aws.Config) (*sql.DB, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	port := strconv.Itoa(cfg.Port)

	var db *sql.DB
	var err error
	if len(cfg.Password) == 0 && awsConfig != nil {
		db, err = NewWithAwsIam(cfg.User, cfg.Host, port, cfg.DbName, *awsConfig)
	} else {
		db, err = NewWithUsernameAndPassword(cfg.User, cfg.Password, cfg.Host, port, cfg.DbName)
	}
	if err != nil {
		return nil, err
	}

	applyPoolLimits(db, cfg)
	return db, nil
}

func applyPoolLimits(db *sql.DB, cfg *Config) {
	if cfg.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
}

// Get a DB connection pool using AWS IAM credentials
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(username, hostname, port, dbname string, config aws.Config) (*sql.DB, error) {
	// IMPORTANT: Only Supported on provisioned Aurora RDS clusters (not on Aurora Serverless)

	// Create an RDS client so we can grab the credential provider from it
	rdsClient := rds.New(config)
	credentials := rdsClient.Credentials
	region := rdsClient.Region

	// Generate IAM auth token (so we don't have to use a username/password)
	endpoint := fmt.Sprintf("%s:%s", hostname, port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, region, username, credentials)
	if err != nil {
		return nil, errors.Wrap(err, "error building rds auth token")
	}

	return connect(keywordDsn(hostname, port, username, authToken, dbname))
}

// Get a DB connection pool using username/password credentials
func NewWithUsernameAndPassword(username, password, hostname, port, dbname string) (*sql.DB, error) {
	return connect(urlDsn(username, password, hostname, port, dbname))
}

func keywordDsn(hostname, port, username, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		hostname, port, username, password, dbname,
	)
}

// TODO: enable SSL once the runtime's database cert is distributed with the deployment
func urlDsn(username, password, hostname, port, dbname string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, hostname, port, dbname,
	)
}

func connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening db")
	}

	// Check if the connection was successful
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error pinging db")
	}

	return db, nil
}
