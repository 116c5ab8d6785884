// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек клиента и стаба бэкенда.
type Config struct {
	Env    string `yaml:"env" env:"DEALERFLOW_ENV" env-default:"local"`
	Client Client `yaml:"client"`
	Stub   Stub   `yaml:"stub"`
}

// Client — настройки клиента DealerFlow Pro.
type Client struct {
	APIBaseURL string        `yaml:"api_base_url" env:"DEALERFLOW_API_BASE_URL" env-default:"http://localhost:8080"`
	Timeout    time.Duration `yaml:"timeout" env:"DEALERFLOW_HTTP_TIMEOUT" env-default:"10s"`
	TokenDir   string        `yaml:"token_dir" env:"DEALERFLOW_TOKEN_DIR"`
}

// Stub — настройки встроенного стаба бэкенда для локальной разработки.
type Stub struct {
	Address      string        `yaml:"address" env:"DEALERFLOW_STUB_ADDRESS" env-default:":8080"`
	Timeout      time.Duration `yaml:"timeout" env:"DEALERFLOW_STUB_TIMEOUT" env-default:"5s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"DEALERFLOW_STUB_IDLE_TIMEOUT" env-default:"60s"`
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"DEALERFLOW_STUB_JWT_SECRET" env-default:"dev-secret"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"DEALERFLOW_STUB_TOKEN_TTL" env-default:"24h"`
	RateLimit    int           `yaml:"rate_limit" env:"DEALERFLOW_STUB_RATE_LIMIT" env-default:"50"`
	RateBurst    int           `yaml:"rate_burst" env:"DEALERFLOW_STUB_RATE_BURST" env-default:"100"`
}

// MustLoad загружает конфиг из файла по пути CONFIG_PATH, а при его отсутствии —
// из переменных окружения со значениями по умолчанию. Завершает процесс при ошибке.
func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("file: %s - does not exist", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}
	return &cfg
}
