package kafka_config

import (
	"fmt"
	"os"
	"roomly/pkg/logger"
	"strconv"
	"strings"
	"time"
)

// Config is split by role: the bookings API only produces booking events and
// the notifications worker only consumes them.
type Config struct {
	Brokers  []string
	Producer ProducerConfig
	Consumer ConsumerConfig
}

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	Compression  string // "none", "gzip", "snappy", "lz4", "zstd"
}

type ConsumerConfig struct {
	StartOffset       int64 // -1 = newest, -2 = oldest
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Load reads the Kafka settings from the environment. A value that is set but
// cannot be parsed is reported instead of silently replaced by its default.
func Load() (*Config, error) {
	r := &envReader{}
	cfg := &Config{
		Brokers: splitBrokers(r.str(EnvKafkaBrokers, DefaultKafkaBrokers)),
		Producer: ProducerConfig{
			MaxAttempts:  r.num(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: r.duration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  r.num(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  r.str(EnvKafkaProducerCompression, DefaultProducerCompression),
		},
		Consumer: ConsumerConfig{
			StartOffset:       int64(r.num(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset)),
			MinBytes:          r.num(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          r.num(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           r.duration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
			HeartbeatInterval: r.duration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    r.duration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  r.duration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        r.num(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
			RetryBackoff:      r.duration(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff),
		},
	}

	problems := r.problems
	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return nil, validationError(problems)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if problems := cfg.validate(); len(problems) > 0 {
		return validationError(problems)
	}
	return nil
}

func (cfg *Config) validate() []string {
	var problems []string
	if len(cfg.Brokers) == 0 {
		problems = append(problems, "At least one Kafka broker is required")
	}
	problems = append(problems, cfg.Producer.validate()...)
	return append(problems, cfg.Consumer.validate()...)
}

func (p ProducerConfig) validate() []string {
	var problems []string
	if p.MaxAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", p.MaxAttempts))
	}
	if p.BatchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", p.BatchTimeout))
	}
	switch p.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		problems = append(problems, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", p.Compression))
	}
	if p.RequireAcks < -1 || p.RequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", p.RequireAcks))
	}
	return problems
}

func (c ConsumerConfig) validate() []string {
	var problems []string
	if c.StartOffset != -1 && c.StartOffset != -2 {
		problems = append(problems, fmt.Sprintf("ConsumerStartOffset must be -1 (newest) or -2 (oldest), got: %d", c.StartOffset))
	}
	if c.MinBytes <= 0 || c.MaxBytes < c.MinBytes {
		problems = append(problems, fmt.Sprintf("ConsumerMinBytes (%d) must be positive and not exceed ConsumerMaxBytes (%d)", c.MinBytes, c.MaxBytes))
	}
	for name, d := range map[string]time.Duration{
		"ConsumerMaxWait":           c.MaxWait,
		"ConsumerHeartbeatInterval": c.HeartbeatInterval,
		"ConsumerSessionTimeout":    c.SessionTimeout,
		"ConsumerRebalanceTimeout":  c.RebalanceTimeout,
		"ConsumerRetryBackoff":      c.RetryBackoff,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	if c.HeartbeatInterval >= c.SessionTimeout {
		problems = append(problems, fmt.Sprintf("ConsumerHeartbeatInterval (%s) must be shorter than ConsumerSessionTimeout (%s)", c.HeartbeatInterval, c.SessionTimeout))
	}
	if c.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", c.MaxRetries))
	}
	return problems
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.Producer.MaxAttempts,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"consumer_retry_backoff", cfg.Consumer.RetryBackoff,
	)
}

func validationError(problems []string) error {
	var b strings.Builder
	b.WriteString("Kafka configuration validation failed:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if b := strings.TrimSpace(broker); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// envReader collects parse failures while reading so Load can report all of
// them at once.
type envReader struct {
	problems []string
}

func (r *envReader) str(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (r *envReader) num(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s is not an integer: %q", key, value))
		return fallback
	}
	return n
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s is not a duration: %q", key, value))
		return fallback
	}
	return d
}
