package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"5000"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	JWTTTLMinutes int    `env:"JWT_TTL_MINUTES" envDefault:"120"`

	UsersFile       string `env:"USERS_FILE" envDefault:"users.json"`
	CollectionsFile string `env:"COLLECTIONS_FILE" envDefault:"playlists.json"`

	CatalogBaseURL         string `env:"CATALOG_BASE_URL" envDefault:"https://api.deezer.com"`
	CatalogTimeoutSeconds  int    `env:"CATALOG_TIMEOUT_SECONDS" envDefault:"10"`
	CatalogCacheTTLSeconds int    `env:"CATALOG_CACHE_TTL_SECONDS" envDefault:"300"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment indica si se deben exponer detalles internos en errores.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "development")
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}

func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}
