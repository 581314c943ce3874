package async_distribution

import (
	"context"

	"github.com/goosy-labs/goosy-vault/pkg/metrics"
)

const (
	batchEventName = "InterestDistributionBatch"

	interestMetricName = "Distribution/interest_base_units"
	durationMetricName = "Distribution/run_duration"
)

func recordVaultOutcome(o outcome, interest uint64) {
	metrics.DistributionVaultsTotal.WithLabelValues(string(o)).Inc()
	if interest > 0 {
		metrics.DistributionInterestTotal.Add(float64(interest))
	}
}

func recordBatch(ctx context.Context, result *BatchResult, err error) {
	metrics.DistributionRunDuration.Observe(result.Duration.Seconds())

	metrics.RecordCount(ctx, interestMetricName, result.TotalInterest)
	metrics.RecordDuration(ctx, durationMetricName, result.Duration)

	metrics.RecordEvent(ctx, batchEventName, map[string]interface{}{
		"run_id":         result.RunId.String(),
		"vaults":         result.VaultsCount,
		"distributed":    result.Distributed,
		"not_accrued":    result.NotAccrued,
		"failed":         result.Failed,
		"total_interest": result.TotalInterest,
		"aborted":        err != nil,
	})
}
