package factory

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nok-base/consul-sync/internal/config"
)

func TestCreateSaramaConfig(t *testing.T) {
	conf, err := createSaramaConfig(config.Kafka{Version: "3.6.0"})
	require.NoError(t, err)

	assert.True(t, conf.Producer.Return.Successes, "sync producers need successes")
	assert.False(t, conf.Net.SASL.Enable)
	assert.Equal(t, sarama.V3_6_0_0, conf.Version)
}

func TestCreateSaramaConfigWithScram(t *testing.T) {
	conf, err := createSaramaConfig(config.Kafka{
		Version: "3.6.0",
		Creds:   config.KafkaCreds{User: "user", Password: "password", Mechanism: "SCRAM-SHA-512"},
	})
	require.NoError(t, err)

	assert.True(t, conf.Net.SASL.Enable)
	assert.True(t, conf.Net.TLS.Enable)
	assert.Equal(t, sarama.SASLMechanism("SCRAM-SHA-512"), conf.Net.SASL.Mechanism)
	require.NotNil(t, conf.Net.SASL.SCRAMClientGeneratorFunc)
	assert.NoError(t, conf.Net.SASL.SCRAMClientGeneratorFunc().Begin("user", "password", ""))
}

func TestCreateSaramaConfigErrors(t *testing.T) {
	_, err := createSaramaConfig(config.Kafka{Version: "not-a-version"})
	assert.Error(t, err)

	_, err = createSaramaConfig(config.Kafka{Version: "3.6.0", Creds: config.KafkaCreds{User: "user", Mechanism: "PLAIN"}})
	assert.ErrorIs(t, err, errUnknownSASLMechanism)
}
