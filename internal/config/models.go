package config

import (
	"time"

	"github.com/nok-base/consul-sync/internal/domain/entity"
)

type Config struct {
	Metrics    Metrics
	Logs       Logs
	Kube       Kube
	Registry   Registry
	Watch      Watch
	Processing Processing
	Kinds      []Kind
	Cursor     Cursor
	DeadLetter S3
	Audit      Audit
}

type Metrics struct {
	Port int
}

type Logs struct {
	Level   int
	Encoder EncoderType
}

type EncoderType string

const (
	EncoderTypeJson    EncoderType = "json"
	EncoderTypeConsole EncoderType = "console"
)

type Kube struct {
	Kubeconfig string
	QPS        float32
	Burst      int
}

type Registry struct {
	Address            string
	Token              Token
	DefaultServicePort int
	Timeout            time.Duration
}

type Token string

func (t Token) String() string {
	if t != "" {
		return "token set"
	}

	return "no token"
}

type Watch struct {
	Namespace    string
	Backoff      time.Duration
	Resume       bool
	ResyncPeriod time.Duration
}

type Processing struct {
	RegistryAttempts uint
	RegistryDelay    time.Duration
}

// Kind describes one watched resource kind.
type Kind struct {
	Name     string
	Group    string
	Version  string
	Resource string
	Role     entity.Role
	Tag      string

	// RegionLabelKey is only read for primary kinds.
	RegionLabelKey string
}

type Cursor struct {
	Valkey Valkey
}

type Valkey struct {
	URL   string
	Creds ValkeyCreds
}

type ValkeyCreds struct {
	Password string
}

func (c ValkeyCreds) String() string {
	if c.Password != "" {
		return "password set"
	}

	return "no password"
}

type S3 struct {
	Bucket       string
	KeyPrefix    string
	BaseEndpoint string
	Region       string
	UsePathStyle bool
	Creds        AWSCreds
}

type AWSCreds struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (c AWSCreds) String() string {
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		return "creds set"
	}

	return "no creds"
}

type Audit struct {
	Kafka Kafka
}

type Kafka struct {
	URLs    string
	Version string
	Topic   string
	Creds   KafkaCreds
}

type KafkaCreds struct {
	User      string
	Password  string
	Mechanism string
}

func (c KafkaCreds) String() string {
	if c.User != "" {
		return "scram creds set"
	}

	return "no creds"
}
