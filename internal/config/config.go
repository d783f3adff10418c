package config

import (
	"os"
	"path"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

// Public holds settings that are safe to ship in a config file checked into
// the deployment repo.
type Public struct {
	Port                  int           `yaml:"port"`
	LogLevel              string        `yaml:"log_level"`
	LogJSON               bool          `yaml:"log_json"`
	ClientURL             string        `yaml:"client_url"`
	JwtTTL                time.Duration `yaml:"jwt_ttl"`
	IssuesPerPage         int           `yaml:"issues_per_page"`
	MaxPhotosPerIssue     int           `yaml:"max_photos_per_issue"`
	MaxPhotoSizeBytes     int64         `yaml:"max_photo_size_bytes"`
	EventRotationInterval time.Duration `yaml:"event_rotation_interval"`
	S3Bucket              string        `yaml:"s3_bucket"`
	S3Region              string        `yaml:"s3_region"`
	NotificationExchange  string        `yaml:"notification_exchange"`
}

// Private holds credentials. Every field can be overridden from the
// environment so containerized deployments never need a private.yaml on disk.
type Private struct {
	Env                string `yaml:"env" envconfig:"ENV"`
	JwtKey             string `yaml:"jwt_key" envconfig:"JWT_SECRET"`
	GoogleClientId     string `yaml:"google_client_id" envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `yaml:"google_callback_url" envconfig:"GOOGLE_CALLBACK_URL"`
	AmqpURL            string `yaml:"amqp_url" envconfig:"AMQP_URL"`
	S3Endpoint         string `yaml:"s3_endpoint" envconfig:"S3_ENDPOINT"`
	S3AccessKey        string `yaml:"s3_access_key" envconfig:"S3_ACCESS_KEY"`
	S3SecretKey        string `yaml:"s3_secret_key" envconfig:"S3_SECRET_KEY"`
	Pg                 Pg     `yaml:"pg"`
	Smtp               Smtp   `yaml:"smtp"`
}

type Pg struct {
	Host     string `yaml:"host" envconfig:"PG_HOST"`
	Port     int    `yaml:"port" envconfig:"PG_PORT"`
	User     string `yaml:"user" envconfig:"PG_USER"`
	Password string `yaml:"password" envconfig:"PG_PASSWORD"`
	Dbname   string `yaml:"dbname" envconfig:"PG_DBNAME"`
}

type Smtp struct {
	Server     string `yaml:"server" envconfig:"SMTP_SERVER"`
	Port       int    `yaml:"port" envconfig:"SMTP_PORT"`
	Username   string `yaml:"username" envconfig:"SMTP_USERNAME"`
	Password   string `yaml:"password" envconfig:"SMTP_PASSWORD"`
	SenderName string `yaml:"sender_name" envconfig:"SMTP_SENDER_NAME"`
	Timeout    int    `yaml:"timeout" envconfig:"SMTP_TIMEOUT"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	if c.Public.JwtTTL == 0 {
		return 24 * time.Hour
	}
	return c.Public.JwtTTL
}

func (c *Config) IsProduction() bool {
	return c.Private.Env == "production"
}

// OAuthEnabled reports whether the Google provider is fully configured.
// When false, the OAuth routes answer 503 instead of starting a handshake.
func (c *Config) OAuthEnabled() bool {
	return c.Private.GoogleClientId != "" &&
		c.Private.GoogleClientSecret != "" &&
		c.Private.GoogleCallbackURL != ""
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	// private.yaml is optional: container deployments pass everything via env
	privatePath := path.Join(configFolder, "private.yaml")
	if _, err := os.Stat(privatePath); err == nil {
		mustLoadPath(privatePath, &private)
	}
	if err := envconfig.Process("civiport", &private); err != nil {
		panic("can't process env config: " + err.Error())
	}

	cfg := &Config{public, private}
	cfg.applyDefaults()

	// Refusing to start beats issuing unsigned tokens.
	if cfg.Private.JwtKey == "" {
		panic("jwt signing secret is not configured (set JWT_SECRET or private.yaml jwt_key)")
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Public.Port == 0 {
		c.Public.Port = 8080
	}
	if c.Public.LogLevel == "" {
		c.Public.LogLevel = "info"
	}
	if c.Public.ClientURL == "" {
		c.Public.ClientURL = "http://localhost:3000"
	}
	if c.Public.IssuesPerPage == 0 {
		c.Public.IssuesPerPage = 20
	}
	if c.Public.MaxPhotosPerIssue == 0 {
		c.Public.MaxPhotosPerIssue = 5
	}
	if c.Public.MaxPhotoSizeBytes == 0 {
		c.Public.MaxPhotoSizeBytes = 10 << 20
	}
	if c.Public.EventRotationInterval == 0 {
		c.Public.EventRotationInterval = time.Hour
	}
	if c.Public.NotificationExchange == "" {
		c.Public.NotificationExchange = "civiport.notifications"
	}
}
