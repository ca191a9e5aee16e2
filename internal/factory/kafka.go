package factory

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/IBM/sarama"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/internal/config"
)

const clientIDPrefix = "consul-sync"

func CreateKafkaProducer(kafkaConfig config.Kafka) (sarama.SyncProducer, common.CloseFunc, error) {
	conf, err := createSaramaConfig(kafkaConfig)
	if err != nil {
		return nil, nil, err
	}

	urls := strings.Split(kafkaConfig.URLs, ",")

	ret, err := sarama.NewSyncProducer(urls, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	shutdown := func(context.Context) error {
		err := ret.Close()
		if err != nil {
			return fmt.Errorf("failed to close kafka producer: %w", err)
		}

		return nil
	}

	return ret, shutdown, nil
}

func createSaramaConfig(kafkaConfig config.Kafka) (*sarama.Config, error) {
	conf := sarama.NewConfig()

	// mandatory for a sync producer
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true

	conf.Producer.RequiredAcks = sarama.WaitForLocal

	// clientID
	conf.ClientID = computeClientID()

	// kafka version
	version, err := sarama.ParseKafkaVersion(kafkaConfig.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kafka version: %w", err)
	}

	conf.Version = version

	if kafkaConfig.Creds.User == "" {
		return conf, nil
	}

	// SASL/SCRAM over TLS
	conf.Net.SASL.Enable = true
	conf.Net.SASL.User = kafkaConfig.Creds.User
	conf.Net.SASL.Password = kafkaConfig.Creds.Password
	conf.Net.TLS.Enable = true

	switch sarama.SASLMechanism(kafkaConfig.Creds.Mechanism) {
	case sarama.SASLTypeSCRAMSHA256:
		conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA256} }
	case sarama.SASLTypeSCRAMSHA512:
		conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA512} }
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownSASLMechanism, kafkaConfig.Creds.Mechanism)
	}

	return conf, nil
}

func computeClientID() string {
	prefix, err := os.Hostname()
	if err != nil {
		prefix = clientIDPrefix
	}

	return fmt.Sprintf("%s-%x", prefix, rand.Int31())
}
