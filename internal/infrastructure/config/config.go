package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	NATS      NATSConfig      `mapstructure:"nats"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Detection DetectionConfig `mapstructure:"detection"`
	Store     StoreConfig     `mapstructure:"store"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Sink      SinkConfig      `mapstructure:"sink"`
	API       APIConfig       `mapstructure:"api"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string `mapstructure:"env"`
	LogLevel       string `mapstructure:"log_level"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
}

// NATSConfig represents the block ingestion stream configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	StreamName         string        `mapstructure:"stream_name"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	ConsumerName       string        `mapstructure:"consumer_name"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	Enabled            bool          `mapstructure:"enabled"`
}

// RPCConfig represents the Ethereum RPC endpoint configuration
type RPCConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DetectionConfig represents the token detection configuration.
// ExtraDeniedCallers extends the built-in caller deny list.
type DetectionConfig struct {
	Profile            string   `mapstructure:"profile"`
	ResolveConcurrency int      `mapstructure:"resolve_concurrency"`
	ExtraDeniedCallers []string `mapstructure:"extra_denied_callers"`
}

// StoreConfig represents the token KV store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// GraphConfig represents the deployment graph database configuration
type GraphConfig struct {
	Enabled                      bool          `mapstructure:"enabled"`
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// SinkConfig represents the token output sink configuration
type SinkConfig struct {
	Type  string          `mapstructure:"type"`
	Path  string          `mapstructure:"path"`
	Kafka KafkaSinkConfig `mapstructure:"kafka"`
	NATS  NATSSinkConfig  `mapstructure:"nats"`
}

// KafkaSinkConfig represents the Kafka sink configuration
type KafkaSinkConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// NATSSinkConfig represents the NATS sink configuration. URL empty means
// reuse the ingestion URL.
type NATSSinkConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// APIConfig represents the catalog HTTP API configuration
type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from environment variables and files. An empty
// path searches the default locations; a named file must exist.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/token-discovery-indexer")
	}

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")

	// Map environment variables to nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.worker_pool_size", 4)

	// NATS defaults
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.stream_name", "BLOCKS")
	viper.SetDefault("nats.subject_prefix", "blocks")
	viper.SetDefault("nats.consumer_name", "token-discovery")
	viper.SetDefault("nats.consumer_group", "token-discovery-indexer")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")
	viper.SetDefault("nats.max_pending_messages", 1000)
	viper.SetDefault("nats.enabled", true)

	// RPC defaults
	viper.SetDefault("rpc.url", "http://localhost:8545")
	viper.SetDefault("rpc.timeout", "15s")

	// Detection defaults
	viper.SetDefault("detection.profile", "standard")
	viper.SetDefault("detection.resolve_concurrency", 8)
	viper.SetDefault("detection.extra_denied_callers", []string{})

	// Store defaults
	viper.SetDefault("store.path", "./data/tokens.db")

	// Graph defaults
	viper.SetDefault("graph.enabled", false)
	viper.SetDefault("graph.uri", "neo4j://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.password", "password")
	viper.SetDefault("graph.database", "neo4j")
	viper.SetDefault("graph.connect_timeout", "10s")
	viper.SetDefault("graph.max_connection_pool_size", 50)
	viper.SetDefault("graph.connection_acquisition_timeout", "60s")

	// Sink defaults
	viper.SetDefault("sink.type", "file")
	viper.SetDefault("sink.path", "./data/tokens.jsonl")
	viper.SetDefault("sink.kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("sink.kafka.topic", "discovered-tokens")
	viper.SetDefault("sink.nats.url", "")
	viper.SetDefault("sink.nats.subject", "tokens.discovered")

	// API defaults
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.port", 8080)

	// Bind env for external endpoints
	viper.BindEnv("nats.url", "NATS_URL")
	viper.BindEnv("rpc.url", "RPC_URL")
}
