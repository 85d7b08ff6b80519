package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"AUTHD_ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	DB         `yaml:"db"`
	Auth       `yaml:"auth"`
	SMTP       `yaml:"smtp"`
	Google     `yaml:"google"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"AUTHD_ADDRESS" env-default:":8080"`
}

type DB struct {
	DSN            string `yaml:"dsn" env:"AUTHD_DB_DSN" env-default:"file:authd.db?cache=shared"`
	RevocationPath string `yaml:"revocation_path" env:"AUTHD_REVOCATION_PATH"`
}

type Auth struct {
	SigningKey      string        `yaml:"signing_key" env:"AUTHD_SIGNING_KEY" env-required:"true"`
	Issuer          string        `yaml:"issuer" env:"AUTHD_ISSUER" env-default:"authd"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"AUTHD_ACCESS_TTL" env-default:"30m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"AUTHD_REFRESH_TTL" env-default:"720h"`
	ResetURL        string        `yaml:"reset_url" env:"AUTHD_RESET_URL"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"AUTHD_SMTP_HOST"`
	Port     int    `yaml:"port" env:"AUTHD_SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"AUTHD_SMTP_USERNAME"`
	Password string `yaml:"password" env:"AUTHD_SMTP_PASSWORD"`
	From     string `yaml:"from" env:"AUTHD_SMTP_FROM"`
	FromName string `yaml:"from_name" env:"AUTHD_SMTP_FROM_NAME"`
}

type Google struct {
	// Audience is the OAuth client id Google ID tokens must be issued for.
	// Federated login stays disabled while empty.
	Audience  string `yaml:"audience" env:"AUTHD_GOOGLE_AUDIENCE"`
	JWKSetURL string `yaml:"jwk_set_url" env:"AUTHD_GOOGLE_JWKS_URL"`
}

// Config implements authkit.Config for the token service.

func (c *Config) GetSigningKey() string { return c.Auth.SigningKey }

func (c *Config) GetIssuer() string { return c.Auth.Issuer }

func (c *Config) GetAccessTokenTTL() time.Duration { return c.Auth.AccessTokenTTL }

func (c *Config) GetRefreshTokenTTL() time.Duration { return c.Auth.RefreshTokenTTL }

func MustLoadConfig(configPath string) *Config {
	var config Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&config); err != nil {
			panic(fmt.Sprintf("failed to load config from env: %v", err))
		}
		return &config
	}

	if _, err := os.Stat(configPath); err != nil {
		panic("config file not found")
	}

	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	return &config
}
