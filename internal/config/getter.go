package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nok-base/consul-sync/internal/domain/entity"
)

const prefix = "CONSULSYNC"

var (
	errNoKind         = errors.New("no kind configured")
	errInvalidKind    = errors.New("invalid kind")
	errInvalidPort    = errors.New("invalid default service port")
	errDuplicatedKind = errors.New("duplicated kind")
)

// Parse reads the configuration file given as parameter, if any, then the environment.
func Parse(confFile string) (*Config, error) {
	conf := Config{}

	v := viper.New()

	setDefault(v)

	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	err := bindCompatibilityEnv(v)
	if err != nil {
		return &conf, err
	}

	if len(confFile) > 0 {
		v.SetConfigFile(confFile)

		err := v.ReadInConfig()
		if err != nil {
			return &conf, fmt.Errorf("failed to read config file %v: %w", confFile, err)
		}
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return &conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	err = conf.Validate()
	if err != nil {
		return &conf, fmt.Errorf("invalid config: %w", err)
	}

	return &conf, nil
}

func (c Config) Validate() error {
	if len(c.Kinds) == 0 {
		return errNoKind
	}

	if c.Registry.DefaultServicePort <= 0 || c.Registry.DefaultServicePort > 65535 {
		return fmt.Errorf("%w: %d", errInvalidPort, c.Registry.DefaultServicePort)
	}

	names := make(map[string]struct{}, len(c.Kinds))

	for _, kind := range c.Kinds {
		if kind.Name == "" || kind.Version == "" || kind.Resource == "" {
			return fmt.Errorf("%w: name, version and resource are mandatory: %+v", errInvalidKind, kind)
		}

		if kind.Role != entity.RolePrimary && kind.Role != entity.RoleSecondary {
			return fmt.Errorf("%w: unknown role %q for %s", errInvalidKind, kind.Role, kind.Name)
		}

		_, found := names[kind.Name]
		if found {
			return fmt.Errorf("%w: %s", errDuplicatedKind, kind.Name)
		}

		names[kind.Name] = struct{}{}
	}

	return nil
}

// The environment variables below predate the prefixed ones and are still honored.
func bindCompatibilityEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"registry.address":            "CONSUL_HTTP_ADDR",
		"registry.token":              "CONSUL_HTTP_TOKEN",
		"registry.defaultServicePort": "CONSUL_SERVICE_PORT",
		"kube.kubeconfig":             "KUBECONFIG",
	}

	for key, env := range bindings {
		prefixed := prefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))

		err := v.BindEnv(key, prefixed, env)
		if err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func setDefault(v *viper.Viper) {
	v.SetDefault("logs.level", 0)
	v.SetDefault("logs.encoder", EncoderTypeConsole)
	v.SetDefault("metrics.port", 7777)

	v.SetDefault("kube.kubeconfig", "")
	v.SetDefault("kube.qps", 20)
	v.SetDefault("kube.burst", 40)

	v.SetDefault("registry.address", "http://consul-svc-nok-base.nok-base.svc.cluster.local:8500")
	v.SetDefault("registry.token", "")
	v.SetDefault("registry.defaultServicePort", 57400)
	v.SetDefault("registry.timeout", "8s")

	v.SetDefault("watch.namespace", "")
	v.SetDefault("watch.backoff", "5s")
	v.SetDefault("watch.resume", false)
	v.SetDefault("watch.resyncPeriod", "0s")

	v.SetDefault("processing.registryAttempts", 1)
	v.SetDefault("processing.registryDelay", "1s")

	v.SetDefault("cursor.valkey.url", "")
	v.SetDefault("cursor.valkey.creds.password", "")

	v.SetDefault("deadLetter.bucket", "")
	v.SetDefault("deadLetter.keyPrefix", "consul-sync")
	v.SetDefault("deadLetter.region", "us-east-1")
	v.SetDefault("deadLetter.baseEndpoint", "")
	v.SetDefault("deadLetter.usePathStyle", false)
	v.SetDefault("deadLetter.creds.accessKeyID", "")
	v.SetDefault("deadLetter.creds.secretAccessKey", "")

	v.SetDefault("audit.kafka.urls", "")
	v.SetDefault("audit.kafka.version", "3.6.0")
	v.SetDefault("audit.kafka.topic", "consul-sync-mutations")
	v.SetDefault("audit.kafka.creds.user", "")
	v.SetDefault("audit.kafka.creds.password", "")
	v.SetDefault("audit.kafka.creds.mechanism", "SCRAM-SHA-512")

	v.SetDefault("kinds", []map[string]interface{}{
		{
			"name":           "Target",
			"group":          "inv.sdcio.dev",
			"version":        "v1alpha1",
			"resource":       "targets",
			"role":           string(entity.RolePrimary),
			"tag":            "network-element",
			"regionLabelKey": "sdcio.dev/region",
		},
		{
			"name":     "AdditionalEndpoint",
			"group":    "inv.sdcio.dev",
			"version":  "v1alpha1",
			"resource": "additionalendpoints",
			"role":     string(entity.RoleSecondary),
			"tag":      "additional-endpoint",
		},
	})
}
