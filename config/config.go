package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // share-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Badger struct {
	Path string `yaml:"path"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Storage struct {
	Driver   string   `yaml:"driver"` // badger|postgres
	Badger   Badger   `yaml:"badger"`
	Postgres Postgres `yaml:"postgres"`
}

type LocalBlob struct {
	BasePath string `yaml:"base_path"`
}

type S3Blob struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type Blob struct {
	Driver string    `yaml:"driver"` // local|s3
	Local  LocalBlob `yaml:"local"`
	S3     S3Blob    `yaml:"s3"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Bridge struct {
	Enabled bool  `yaml:"enabled"`
	Redis   Redis `yaml:"redis"`
}

type Limits struct {
	MaxMessageChars int   `yaml:"max_message_chars"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
	Storage Storage `yaml:"storage"`
	Blob    Blob    `yaml:"blob"`
	Bridge  Bridge  `yaml:"bridge"`
	Limits  Limits  `yaml:"limits"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}

	// fill defaults for anything unset
	if c.Logging.Service == "" {
		c.Logging.Service = "share-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	switch c.Storage.Driver {
	case "", "badger":
		c.Storage.Driver = "badger"
		if c.Storage.Badger.Path == "" {
			c.Storage.Badger.Path = "./data/badger"
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Blob.Driver {
	case "", "local":
		c.Blob.Driver = "local"
		if c.Blob.Local.BasePath == "" {
			c.Blob.Local.BasePath = "./data/blobs"
		}
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob.driver %q", c.Blob.Driver)
	}

	if c.Bridge.Enabled && c.Bridge.Redis.Addr == "" {
		return errors.New("bridge.redis.addr is required when the bridge is enabled")
	}

	if c.Limits.MaxMessageChars <= 0 {
		c.Limits.MaxMessageChars = 4000
	}
	if c.Limits.MaxUploadBytes <= 0 {
		c.Limits.MaxUploadBytes = 25 << 20
	}
	return nil
}
