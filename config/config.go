package config

import (
	"flag"
	"os"
	"sync"
)

const (
	defaultServerAddress   = ":8080"
	defaultDatabaseDSN     = ""
	defaultLogLevel        = "debug"
	defaultTokenKey        = ""
	defaultKafkaBrokers    = ""
	defaultKafkaOrderTopic = "order-events"
)

type Config struct {
	ServerAddr      string
	DatabaseDSN     string
	LogLevel        string
	TokenKey        string
	KafkaBrokers    string
	KafkaOrderTopic string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "order service address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "order service database DSN")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
		flag.StringVar(&cfg.TokenKey, "k", defaultTokenKey, "auth token signing key (hex)")
		flag.StringVar(&cfg.KafkaBrokers, "b", defaultKafkaBrokers, "kafka brokers, comma separated")
		flag.StringVar(&cfg.KafkaOrderTopic, "t", defaultKafkaOrderTopic, "kafka order events topic")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if databaseURIEnv := os.Getenv("DATABASE_URI"); databaseURIEnv != "" {
			cfg.DatabaseDSN = databaseURIEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}
		if tokenKeyEnv := os.Getenv("TOKEN_KEY"); tokenKeyEnv != "" {
			cfg.TokenKey = tokenKeyEnv
		}
		if kafkaBrokersEnv := os.Getenv("KAFKA_BROKERS"); kafkaBrokersEnv != "" {
			cfg.KafkaBrokers = kafkaBrokersEnv
		}
		if kafkaTopicEnv := os.Getenv("KAFKA_ORDER_TOPIC"); kafkaTopicEnv != "" {
			cfg.KafkaOrderTopic = kafkaTopicEnv
		}

		singleton = &cfg
	})

	return singleton, nil
}
