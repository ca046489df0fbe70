package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		// AccessSecret and RefreshSecret must differ: a refresh token must
		// never verify as an access token or vice versa.
		AccessSecret     string `yaml:"access_secret"`
		RefreshSecret    string `yaml:"refresh_secret"`
		AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
		RefreshTTLDays   int    `yaml:"refresh_ttl_days"`
		ResetTTLHours    int    `yaml:"reset_ttl_hours"`
		VerifyTTLHours   int    `yaml:"verify_ttl_hours"`
	} `yaml:"jwt"`

	SSO struct {
		Issuer string `yaml:"issuer"`
	} `yaml:"sso"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		FrontendURL  string `yaml:"frontend_url"`
	} `yaml:"email"`

	Events struct {
		AMQPURL  string `yaml:"amqp_url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"events"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

var AppConfig *Config

// LoadConfig reads config/config.yaml, or builds the configuration from
// environment variables when DATABASE_URL is set (deployments, tests).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.AccessSecret = os.Getenv("JWT_SECRET")
	cfg.JWT.RefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	cfg.SSO.Issuer = os.Getenv("SSO_ISSUER")
	cfg.Email.FromEmail = os.Getenv("EMAIL_FROM")
	cfg.Email.FrontendURL = os.Getenv("FRONTEND_URL")
	cfg.Events.AMQPURL = os.Getenv("AMQP_URL")
	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.JWT.AccessTTLMinutes == 0 {
		cfg.JWT.AccessTTLMinutes = 15
	}
	if cfg.JWT.RefreshTTLDays == 0 {
		cfg.JWT.RefreshTTLDays = 7
	}
	if cfg.JWT.ResetTTLHours == 0 {
		cfg.JWT.ResetTTLHours = 24
	}
	if cfg.JWT.VerifyTTLHours == 0 {
		cfg.JWT.VerifyTTLHours = 72
	}
	if cfg.Email.FrontendURL == "" {
		cfg.Email.FrontendURL = "http://localhost:3000"
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "shop.events"
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
