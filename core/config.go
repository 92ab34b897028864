package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		// JWTSecret verifies the HS256 tokens issued by the identity provider.
		JWTSecret   string
		JWTAudience string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		PageSize      int
	}

	CacheConfig struct {
		Driver   string // memory | redis
		RedisURL string
		TTL      time.Duration
	}

	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		WorkDir          string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridAPIKey   string
		DefaultFromEmail mail.Address
		Server           ServerConfig
		Database         DatabaseConfig
		Cache            CacheConfig
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file
// and the environment (prefixed with the env name, e.g. DEV_DATABASE_HOST).
func NewConfig() *Config {
	conf := viper.New()

	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "oGV Hub")
	conf.SetDefault("frontendBaseUrl", "http://localhost:3000")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("defaultFromName", "oGV Hub")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")

	conf.SetDefault("server_host", "0.0.0.0")
	conf.SetDefault("server_port", "8000")
	conf.SetDefault("server_debugHost", "0.0.0.0:4000")
	conf.SetDefault("server_readTimeout", 5*time.Second)
	conf.SetDefault("server_writeTimeout", 30*time.Second)
	conf.SetDefault("server_shutdownTimeout", 5*time.Second)
	conf.SetDefault("server_jwtSecret", "")
	conf.SetDefault("server_jwtAudience", "authenticated")

	conf.SetDefault("database_engine", "postgres")
	conf.SetDefault("database_host", "localhost")
	conf.SetDefault("database_port", "5432")
	conf.SetDefault("database_name", "ogv")
	conf.SetDefault("database_user", "postgres")
	conf.SetDefault("database_password", "")
	conf.SetDefault("database_adminUser", "")
	conf.SetDefault("database_adminPassword", "")
	conf.SetDefault("database_disableTls", false)
	conf.SetDefault("database_pageSize", 1000)

	conf.SetDefault("cache_driver", "memory")
	conf.SetDefault("cache_redisUrl", "redis://localhost:6379/0")
	conf.SetDefault("cache_ttl", 5*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:             env,
		Build:           conf.GetString("build"),
		Debug:           conf.GetBool("debug"),
		TestMode:        conf.GetBool("testMode"),
		AppName:         conf.GetString("appName"),
		WorkDir:         wd,
		FrontendBaseURL: conf.GetString("frontendBaseUrl"),
		RollbarToken:    conf.GetString("rollbarToken"),
		SendgridAPIKey:  conf.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{
			Name:    conf.GetString("defaultFromName"),
			Address: conf.GetString("defaultFromEmail"),
		},
		Server: ServerConfig{
			Host:            conf.GetString("server_host"),
			Port:            conf.GetString("server_port"),
			DebugHost:       conf.GetString("server_debugHost"),
			ReadTimeout:     conf.GetDuration("server_readTimeout"),
			WriteTimeout:    conf.GetDuration("server_writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server_shutdownTimeout"),
			JWTSecret:       conf.GetString("server_jwtSecret"),
			JWTAudience:     conf.GetString("server_jwtAudience"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database_engine"),
			Host:          conf.GetString("database_host"),
			Port:          conf.GetString("database_port"),
			Name:          conf.GetString("database_name"),
			User:          conf.GetString("database_user"),
			Password:      conf.GetString("database_password"),
			AdminUser:     conf.GetString("database_adminUser"),
			AdminPassword: conf.GetString("database_adminPassword"),
			DisableTLS:    conf.GetBool("database_disableTls"),
			PageSize:      conf.GetInt("database_pageSize"),
		},
		Cache: CacheConfig{
			Driver:   conf.GetString("cache_driver"),
			RedisURL: conf.GetString("cache_redisUrl"),
			TTL:      conf.GetDuration("cache_ttl"),
		},
	}
}

// NewTestConfig returns a Config suitable for unit tests: no env lookups, no files.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "oGV Hub",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "oGV Hub", Address: "noreply@localhost"},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            "8000",
			ShutdownTimeout: time.Second,
			JWTSecret:       "test-secret",
			JWTAudience:     "authenticated",
		},
		Database: DatabaseConfig{Engine: "postgres", PageSize: 1000},
		Cache:    CacheConfig{Driver: "memory", TTL: time.Minute},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("env=%s build=%s debug=%t db=%s cache=%s", c.Env, c.Build, c.Debug, c.Database.Address(), c.Cache.Driver)
}
