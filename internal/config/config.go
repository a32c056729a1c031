package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Storage  StorageConfig
	Worker   WorkerConfig
	Logger   Logger
	Presets  []PresetConfig
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	JobQueueKey   string
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// StorageConfig selects where derived artifacts are persisted.
// Backend is "s3" or "local"; LocalRoot is the media root used by the
// local backend.
type StorageConfig struct {
	Backend   string
	LocalRoot string
}

type WorkerConfig struct {
	WorkerCount    int
	MaxCPUUsage    float64
	EncodeTimeout  int
	LockTTL        int
	DequeueTimeout int
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// PresetConfig is one entry of the resolution/bitrate catalog. Catalog
// order is the encode order; manifest emission re-sorts by width.
type PresetConfig struct {
	Resolution string
	Width      int
	Height     int
	Bitrate    string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
