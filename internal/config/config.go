package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type SweeperConfig struct {
	// TTLHours is how long a requested record may sit untouched before the
	// sweeper expires it. Zero disables the sweeper.
	TTLHours        int
	IntervalMinutes int
}

// Load reads config.yaml (optional) with environment overrides. A .env file
// is honored for local development; in production the environment wins.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "portaria")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "portaria_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxconns", 10)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiryhours", 12)
	v.SetDefault("cors.allowedorigins", []string{"*"})
	v.SetDefault("sweeper.ttlhours", 0)
	v.SetDefault("sweeper.intervalminutes", 10)

	v.SetEnvPrefix("PORTARIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config: read config file: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config: unmarshal: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Println("config: PORTARIA_JWT_SECRET is not set, using an insecure development secret")
		cfg.JWT.Secret = "dev-secret-do-not-use-in-production"
	}
	return &cfg
}
