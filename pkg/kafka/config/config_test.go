package kafka_config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, int64(-2), cfg.Consumer.StartOffset)
	assert.Equal(t, "snappy", cfg.Producer.Compression)
}

func TestLoad_BrokerList(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaProducerRequireAcks, "2")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProducerCompression")
	assert.Contains(t, err.Error(), "ProducerRequireAcks")
}

func TestLoad_UnparsableValuesAreReported(t *testing.T) {
	t.Setenv(EnvKafkaConsumerMaxRetries, "three")
	t.Setenv(EnvKafkaConsumerMaxWait, "500")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvKafkaConsumerMaxRetries)
	assert.Contains(t, err.Error(), EnvKafkaConsumerMaxWait)
}

func TestValidate_HeartbeatWithinSession(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Consumer.HeartbeatInterval = cfg.Consumer.SessionTimeout
	assert.ErrorContains(t, cfg.Validate(), "ConsumerHeartbeatInterval")
}
