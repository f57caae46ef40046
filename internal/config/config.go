package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// Kafka client implementations selectable with KAFKA_CLIENT.
const (
	KafkaClientSarama  = "sarama"
	KafkaClientKafkaGo = "kafka-go"
)

// Config holds all runtime configuration for the fake exchange.
type Config struct {
	Port            int
	LogLevel        string
	Pairs           []domain.Pair
	ExchangeName    string
	BalanceStoreDir string // empty keeps balances in memory
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaClient     string
	QuoteBuffer     int
	PublishTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	pairs, err := domain.ParsePairs(getStr("PAIRS", "BTCUSD=BTC/USD,ETHUSD=ETH/USD"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAIRS: %w", err)
	}

	kafkaClient := getStr("KAFKA_CLIENT", KafkaClientSarama)
	if kafkaClient != KafkaClientSarama && kafkaClient != KafkaClientKafkaGo {
		return nil, fmt.Errorf("invalid KAFKA_CLIENT: %q, must be one of: sarama, kafka-go", kafkaClient)
	}

	quoteBuffer, err := getInt("QUOTE_BUFFER", 1024)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_BUFFER: %w", err)
	}
	if quoteBuffer < 1 {
		return nil, fmt.Errorf("invalid QUOTE_BUFFER: %d, must be positive", quoteBuffer)
	}

	publishTimeout, err := getDuration("PUBLISH_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		Pairs:           pairs,
		ExchangeName:    getStr("EXCHANGE_NAME", "fakeexchange"),
		BalanceStoreDir: getStr("BALANCE_STORE_DIR", ""),
		KafkaBrokers:    getList("KAFKA_BROKERS"),
		KafkaTopic:      getStr("KAFKA_TOPIC", "orderbooks"),
		KafkaClient:     kafkaClient,
		QuoteBuffer:     quoteBuffer,
		PublishTimeout:  publishTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getList splits a comma-separated variable, dropping blank items.
func getList(key string) []string {
	var result []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
