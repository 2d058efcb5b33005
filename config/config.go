package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"tulsi-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"60"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"60"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`

	// Vocabulary
	VocabularyPath string `env:"VOCABULARY_PATH" env-default:"data/who_ita_terms.csv"`

	// Matching
	FuzzyThreshold float64 `env:"FUZZY_THRESHOLD" env-default:"0.80"`
	FuzzyAlgorithm string  `env:"FUZZY_ALGORITHM" env-default:"levenshtein"`
	MinTokenLength int     `env:"MIN_TOKEN_LENGTH" env-default:"3"`

	// Entity extraction
	NEREndpoint     string        `env:"NER_ENDPOINT" env-default:"http://localhost:8000"`
	NERTimeout      time.Duration `env:"NER_TIMEOUT" env-default:"30s"`
	MinEntityLength int           `env:"MIN_ENTITY_LENGTH" env-default:"4"`

	// UMLS code resolution
	UMLSBaseURL         string        `env:"UMLS_BASE_URL" env-default:"https://uts-ws.nlm.nih.gov/rest"`
	UMLSAPIKey          string        `env:"UMLS_API_KEY" env-default:""`
	ResolverEnabled     bool          `env:"RESOLVER_ENABLED" env-default:"true"`
	ResolverConcurrency int           `env:"RESOLVER_CONCURRENCY" env-default:"5"`
	ResolverCallTimeout time.Duration `env:"RESOLVER_CALL_TIMEOUT" env-default:"10s"`
	NarrativeTimeout    time.Duration `env:"NARRATIVE_TIMEOUT" env-default:"30s"`

	// Kafka Producer settings
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"narrative-matches"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing
	TracingEnabled   bool   `env:"TRACING_ENABLED" env-default:"false"`
	OTLPEndpoint     string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol     string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure     bool   `env:"OTLP_INSECURE" env-default:"true"`
}

// Load reads .env when present, then binds environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	return &cfg, nil
}
