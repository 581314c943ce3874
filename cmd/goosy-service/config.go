package main

import (
	"strings"
	"time"

	"github.com/goosy-labs/goosy-vault/pkg/config"
	"github.com/goosy-labs/goosy-vault/pkg/config/env"
)

const (
	MintPublicKeyEnvName  = "MINT_PUBKEY"
	AdminPublicKeyEnvName = "ADMIN_PUBKEY"

	DbHostEnvName      = "DB_HOST"
	DbPortEnvName      = "DB_PORT"
	DbUserEnvName      = "DB_USER"
	DbPasswordEnvName  = "DB_PASSWORD"
	DbNameEnvName      = "DB_NAME"
	DbUseAwsIamEnvName = "DB_USE_AWS_IAM"
	DbMaxOpenEnvName   = "DB_MAX_OPEN_CONNECTIONS"
	DbMaxIdleEnvName   = "DB_MAX_IDLE_CONNECTIONS"
	defaultDbPort      = 5432
	defaultDbName      = "goosy"

	EtcdEndpointsEnvName = "ETCD_ENDPOINTS"
	EtcdLockTtlEnvName   = "ETCD_LOCK_TTL"
	defaultEtcdLockTtl   = 10 * time.Second
	etcdLockRootKey      = "/goosy-vault/locks"

	DistributionIntervalEnvName = "DISTRIBUTION_INTERVAL"
	defaultDistributionInterval = time.Hour
)

type conf struct {
	mint  config.String
	admin config.String

	dbHost      config.String
	dbPort      config.Uint64
	dbUser      config.String
	dbPassword  config.String
	dbName      config.String
	dbUseAwsIam config.Bool
	dbMaxOpen   config.Uint64
	dbMaxIdle   config.Uint64

	etcdEndpoints config.String
	etcdLockTtl   config.Duration

	distributionInterval config.Duration
}

func withEnvConfigs() *conf {
	return &conf{
		mint:  env.NewStringConfig(MintPublicKeyEnvName, ""),
		admin: env.NewStringConfig(AdminPublicKeyEnvName, ""),

		dbHost:      env.NewStringConfig(DbHostEnvName, "localhost"),
		dbPort:      env.NewUint64Config(DbPortEnvName, defaultDbPort),
		dbUser:      env.NewStringConfig(DbUserEnvName, ""),
		dbPassword:  env.NewStringConfig(DbPasswordEnvName, ""),
		dbName:      env.NewStringConfig(DbNameEnvName, defaultDbName),
		dbUseAwsIam: env.NewBoolConfig(DbUseAwsIamEnvName, false),
		dbMaxOpen:   env.NewUint64Config(DbMaxOpenEnvName, 0),
		dbMaxIdle:   env.NewUint64Config(DbMaxIdleEnvName, 0),

		etcdEndpoints: env.NewStringConfig(EtcdEndpointsEnvName, ""),
		etcdLockTtl:   env.NewDurationConfig(EtcdLockTtlEnvName, defaultEtcdLockTtl),

		distributionInterval: env.NewDurationConfig(DistributionIntervalEnvName, defaultDistributionInterval),
	}
}

// splitEndpoints parses a comma separated endpoint list
func splitEndpoints(value string) []string {
	var endpoints []string
	for _, endpoint := range strings.Split(value, ",") {
		endpoint = strings.TrimSpace(endpoint)
		if len(endpoint) > 0 {
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints
}
