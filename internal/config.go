package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"google.golang.org/grpc/metadata"
)

// StoreConfig configures the document store service.
type StoreConfig struct {
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=50051"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=64"`
	MaxRSSMegabytes      int           `env:"MAX_RSS_MB,default=0" validate:"min=0"`
	APIKey               string        `env:"STORE_API_KEY"`
	DebugPort            int           `env:"DEBUG_PORT,default=8081"`
}

// ChatConfig configures the terminal chat client.
// An empty StoreAddr runs the store embedded on BadgerFilepath.
type ChatConfig struct {
	StoreAddr            string        `env:"STORE_ADDR" validate:"omitempty,hostname_port"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/chat"`
	FeedWindow           int           `env:"FEED_WINDOW,default=100" validate:"min=1"`
	NumberOfWorkers      int           `env:"NUMBER_OF_WORKERS,default=2" validate:"min=1"`
	BufferSize           int           `env:"BUFFER_SIZE,default=64" validate:"min=1"`
	InsertTimeout        time.Duration `env:"INSERT_TIMEOUT,default=5s"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s" validate:"gt=0"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=8"`
	MaxRSSMegabytes      int           `env:"MAX_RSS_MB,default=0" validate:"min=0"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	LogFile              string        `env:"LOG_FILE,default=chat.log"`

	// Store connection parameters, forwarded as is.
	APIKey            string `env:"STORE_API_KEY"`
	AuthDomain        string `env:"STORE_AUTH_DOMAIN"`
	ProjectID         string `env:"STORE_PROJECT_ID"`
	StorageBucket     string `env:"STORE_STORAGE_BUCKET"`
	MessagingSenderID string `env:"STORE_MESSAGING_SENDER_ID"`
	AppID             string `env:"STORE_APP_ID"`
}

// Embedded tells whether the chat runs its own store.
func (c ChatConfig) Embedded() bool {
	return c.StoreAddr == ""
}

var validate = validator.New()

// Load reads an optional .env file, then the environment, into config.
func Load(config any) error {
	_ = godotenv.Load()
	if _, err := env.UnmarshalFromEnviron(config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// Metadata lists the non-empty connection parameters as gRPC metadata.
func (c ChatConfig) Metadata() metadata.MD {
	md := metadata.MD{}
	for key, value := range map[string]string{
		"x-api-key":             c.APIKey,
		"x-auth-domain":         c.AuthDomain,
		"x-project-id":          c.ProjectID,
		"x-storage-bucket":      c.StorageBucket,
		"x-messaging-sender-id": c.MessagingSenderID,
		"x-app-id":              c.AppID,
	} {
		if value != "" {
			md.Set(key, value)
		}
	}
	return md
}

// MaxRSS is the memory warning limit in bytes, zero when disabled.
func (c StoreConfig) MaxRSS() uint64 {
	return uint64(c.MaxRSSMegabytes) << 20
}

// MaxRSS is the memory warning limit in bytes, zero when disabled.
func (c ChatConfig) MaxRSS() uint64 {
	return uint64(c.MaxRSSMegabytes) << 20
}
