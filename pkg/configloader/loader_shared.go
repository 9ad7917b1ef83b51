package configloader

import (
	"time"

	"github.com/hal177/quill"
)

type rawConfig struct {
	QueueCapacityBytes      *int    `mapstructure:"queue_capacity_bytes" yaml:"queue_capacity_bytes"`
	BackendCPUAffinity      *int    `mapstructure:"backend_cpu_affinity" yaml:"backend_cpu_affinity"`
	BackendThreadName       string  `mapstructure:"backend_thread_name" yaml:"backend_thread_name"`
	BackendSleepMinNs       *int64  `mapstructure:"backend_sleep_min_ns" yaml:"backend_sleep_min_ns"`
	BackendSleepMaxNs       *int64  `mapstructure:"backend_sleep_max_ns" yaml:"backend_sleep_max_ns"`
	BackendDrainBudgetBytes *int    `mapstructure:"backend_drain_budget_bytes" yaml:"backend_drain_budget_bytes"`
	ReclaimEverySweeps      *int    `mapstructure:"reclaim_every_sweeps" yaml:"reclaim_every_sweeps"`
	FullQueuePolicy         string  `mapstructure:"full_queue_policy" yaml:"full_queue_policy"`
	FullQueueRetryBackoffMs *int64  `mapstructure:"full_queue_retry_backoff_ms" yaml:"full_queue_retry_backoff_ms"`
}

func applyRaw(raw rawConfig) (*quill.Config, error) {
	cfg := quill.DefaultConfig()

	if raw.QueueCapacityBytes != nil {
		cfg.QueueCapacityBytes = *raw.QueueCapacityBytes
	}

	if raw.BackendCPUAffinity != nil {
		cfg.BackendCPUAffinity = *raw.BackendCPUAffinity
	}

	if raw.BackendThreadName != "" {
		cfg.BackendThreadName = raw.BackendThreadName
	}

	if raw.BackendSleepMinNs != nil {
		cfg.BackendSleepMinNs = *raw.BackendSleepMinNs
	}

	if raw.BackendSleepMaxNs != nil {
		cfg.BackendSleepMaxNs = *raw.BackendSleepMaxNs
	}

	if raw.BackendDrainBudgetBytes != nil {
		cfg.BackendDrainBudgetBytes = *raw.BackendDrainBudgetBytes
	}

	if raw.ReclaimEverySweeps != nil {
		cfg.ReclaimEverySweeps = *raw.ReclaimEverySweeps
	}

	if raw.FullQueuePolicy != "" {
		policy, err := quill.ParseFullQueuePolicy(raw.FullQueuePolicy)
		if err != nil {
			return nil, err
		}

		cfg.FullQueuePolicy = policy
	}

	if raw.FullQueueRetryBackoffMs != nil {
		cfg.FullQueueRetryBackoff = time.Duration(*raw.FullQueueRetryBackoffMs) * time.Millisecond
	}

	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"queue_capacity_bytes",
		"backend_cpu_affinity",
		"backend_thread_name",
		"backend_sleep_min_ns",
		"backend_sleep_max_ns",
		"backend_drain_budget_bytes",
		"reclaim_every_sweeps",
		"full_queue_policy",
		"full_queue_retry_backoff_ms",
	}
}
