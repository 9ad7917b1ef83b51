package quill

import "time"

// ConfigBuilder provides a fluent API for constructing a transport Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new builder seeded with DefaultConfig.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: DefaultConfig()}
}

// WithQueueCapacity sets the per-producer ring size in bytes. Must be a power
// of two and a multiple of the OS page size; validated at Logger construction.
func (b *ConfigBuilder) WithQueueCapacity(bytes int) *ConfigBuilder {
	b.config.QueueCapacityBytes = bytes

	return b
}

// WithBackendAffinity pins the backend to the given CPU id. Pass a negative
// value to clear any previously requested affinity.
func (b *ConfigBuilder) WithBackendAffinity(cpuID int) *ConfigBuilder {
	b.config.BackendCPUAffinity = cpuID

	return b
}

// WithBackendThreadName sets the OS-visible name of the backend thread.
func (b *ConfigBuilder) WithBackendThreadName(name string) *ConfigBuilder {
	b.config.BackendThreadName = name

	return b
}

// WithSleepBounds sets the idle backoff bounds for the backend sweep loop.
func (b *ConfigBuilder) WithSleepBounds(minNs, maxNs int64) *ConfigBuilder {
	b.config.BackendSleepMinNs = minNs
	b.config.BackendSleepMaxNs = maxNs

	return b
}

// WithDrainBudget sets the per-context bytes-per-sweep drain budget.
func (b *ConfigBuilder) WithDrainBudget(bytes int) *ConfigBuilder {
	b.config.BackendDrainBudgetBytes = bytes

	return b
}

// WithReclaimEverySweeps sets how often the backend reclaims detached contexts.
func (b *ConfigBuilder) WithReclaimEverySweeps(sweeps int) *ConfigBuilder {
	b.config.ReclaimEverySweeps = sweeps

	return b
}

// WithFullQueuePolicy sets the behavior of try_prepare when a ring is full.
func (b *ConfigBuilder) WithFullQueuePolicy(policy FullQueuePolicy) *ConfigBuilder {
	b.config.FullQueuePolicy = policy

	return b
}

// WithFullQueueRetryBackoff bounds the retry delay under block_retry.
func (b *ConfigBuilder) WithFullQueueRetryBackoff(d time.Duration) *ConfigBuilder {
	b.config.FullQueueRetryBackoff = d

	return b
}

// WithProductionDefaults layers ProductionConfig's choices on top of whatever
// has been configured so far.
func (b *ConfigBuilder) WithProductionDefaults() *ConfigBuilder {
	prod := ProductionConfig()
	b.config.QueueCapacityBytes = prod.QueueCapacityBytes
	b.config.FullQueuePolicy = prod.FullQueuePolicy

	return b
}

// WithDevelopmentDefaults layers DevelopmentConfig's choices on top of
// whatever has been configured so far.
func (b *ConfigBuilder) WithDevelopmentDefaults() *ConfigBuilder {
	dev := DevelopmentConfig()
	b.config.QueueCapacityBytes = dev.QueueCapacityBytes
	b.config.BackendSleepMaxNs = dev.BackendSleepMaxNs

	return b
}

// Build returns the constructed Config.
func (b *ConfigBuilder) Build() *Config {
	config := b.config

	return &config
}
