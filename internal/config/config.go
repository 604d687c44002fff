package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Client   ClientConfig   `mapstructure:"client"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port" validate:"min=1,max=65535"`
	BasePath       string     `mapstructure:"base_path" validate:"omitempty,startswith=/"`
	CORS           CORSConfig `mapstructure:"cors"`
	MaxUploadBytes int64      `mapstructure:"max_upload_bytes" validate:"min=1"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DataConfig struct {
	Directory     string `mapstructure:"directory" validate:"required"`
	SentencesFile string `mapstructure:"sentences_file" validate:"required"`
	AttemptsFile  string `mapstructure:"attempts_file" validate:"required"`
}

// SentencesPath is the sentences file inside the data directory.
func (c DataConfig) SentencesPath() string {
	return filepath.Join(c.Directory, c.SentencesFile)
}

// AttemptsPath is the attempts file inside the data directory.
func (c DataConfig) AttemptsPath() string {
	return filepath.Join(c.Directory, c.AttemptsFile)
}

// DefaultsConfig holds the languages used when a record omits them.
type DefaultsConfig struct {
	TargetLang      string `mapstructure:"target_lang" validate:"langtag"`
	TranslationLang string `mapstructure:"translation_lang" validate:"langtag"`
}

// ClientConfig configures the CLI's remote commands.
type ClientConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"url"`
	RetryAttempts  int    `mapstructure:"retry_attempts" validate:"min=0"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=1"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ecoute")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("data.directory", "data")
	v.SetDefault("data.sentences_file", "sentences.csv")
	v.SetDefault("data.attempts_file", "attempts.csv")
	v.SetDefault("defaults.target_lang", "fr-FR")
	v.SetDefault("defaults.translation_lang", "zh-CN")
	v.SetDefault("client.base_url", "http://localhost:8000/api")
	v.SetDefault("client.retry_attempts", 3)
	v.SetDefault("client.timeout_seconds", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "ecoute")
	v.SetDefault("database.username", "user")

	for key, env := range map[string]string{
		"data.directory":  "ECOUTE_DATA_DIRECTORY",
		"server.port":     "ECOUTE_SERVER_PORT",
		"client.base_url": "ECOUTE_API_URL",
		// database password is read from the environment only
		"database.password": "DB_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
