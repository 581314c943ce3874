package async_distribution

import (
	"github.com/goosy-labs/goosy-vault/pkg/config"
	"github.com/goosy-labs/goosy-vault/pkg/config/env"
	"github.com/goosy-labs/goosy-vault/pkg/config/memory"
	"github.com/goosy-labs/goosy-vault/pkg/config/wrapper"
)

const (
	envConfigPrefix = "DISTRIBUTION_SERVICE_"

	ConcurrencyConfigEnvName = envConfigPrefix + "CONCURRENCY"
	defaultConcurrency       = 1

	MaxPerSecondConfigEnvName = envConfigPrefix + "MAX_PER_SECOND"
	defaultMaxPerSecond       = 0 // Unlimited

	ScheduleConfigEnvName = envConfigPrefix + "SCHEDULE"
	defaultSchedule       = "" // Run every interval instead

	StaleRetryLimitConfigEnvName = envConfigPrefix + "STALE_RETRY_LIMIT"
	defaultStaleRetryLimit       = 3
)

type conf struct {
	concurrency     config.Uint64
	maxPerSecond    config.Uint64
	schedule        config.String
	staleRetryLimit config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			concurrency:     env.NewUint64Config(ConcurrencyConfigEnvName, defaultConcurrency),
			maxPerSecond:    env.NewUint64Config(MaxPerSecondConfigEnvName, defaultMaxPerSecond),
			schedule:        env.NewStringConfig(ScheduleConfigEnvName, defaultSchedule),
			staleRetryLimit: env.NewUint64Config(StaleRetryLimitConfigEnvName, defaultStaleRetryLimit),
		}
	}
}

type testOverrides struct {
	concurrency  uint64
	maxPerSecond uint64
	schedule     string
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	concurrency := overrides.concurrency
	if concurrency == 0 {
		concurrency = defaultConcurrency
	}

	return func() *conf {
		return &conf{
			concurrency:     wrapper.NewUint64Config(memory.NewConfig(concurrency), defaultConcurrency),
			maxPerSecond:    wrapper.NewUint64Config(memory.NewConfig(overrides.maxPerSecond), defaultMaxPerSecond),
			schedule:        wrapper.NewStringConfig(memory.NewConfig(overrides.schedule), defaultSchedule),
			staleRetryLimit: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultStaleRetryLimit)), defaultStaleRetryLimit),
		}
	}
}
