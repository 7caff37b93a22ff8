package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena as configurações da aplicação
type Config struct {
	// API
	TokenAPI string
	Port     string
	GinMode  string

	// Logging
	LogLevel string
	LogJSON  bool

	// ClickUp (fonte de itens)
	TokenClickUp    string
	TeamID          string
	DefaultAssignee string
	PageSize        int
	MaxOpenItems    int

	// Banco de dados (store de estimativas)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Cache de verdicts de portfólio
	CacheTTL time.Duration

	// Endpoints administrativos (/metrics, /debug)
	AdminUsername string
	AdminPassword string
}

// Load carrega as configurações do ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := &Config{
		TokenAPI:        os.Getenv("TOKEN_API"),
		Port:            os.Getenv("PORT"),
		GinMode:         os.Getenv("GIN_MODE"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		LogJSON:         os.Getenv("LOG_JSON") != "false",
		TokenClickUp:    os.Getenv("TOKEN_CLICKUP"),
		TeamID:          os.Getenv("CLICKUP_TEAM_ID"),
		DefaultAssignee: os.Getenv("CLICKUP_ASSIGNEE"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBSSLMode:       os.Getenv("DB_SSLMODE"),
		AdminUsername:   os.Getenv("ADMIN_USERNAME"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
	}

	// Validações obrigatórias
	if cfg.TokenClickUp == "" {
		return nil, errors.New("TOKEN_CLICKUP não configurado")
	}
	if cfg.TokenAPI == "" {
		return nil, errors.New("TOKEN_API não configurado")
	}
	if cfg.TeamID == "" {
		return nil, errors.New("CLICKUP_TEAM_ID não configurado")
	}

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "debug"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DBHost == "" {
		cfg.DBHost = "localhost"
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}
	if cfg.DBUser == "" {
		cfg.DBUser = "postgres"
	}
	if cfg.DBName == "" {
		cfg.DBName = "clickup_risk"
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}

	var err error
	// Paginação e teto da listagem de itens abertos: configuração explícita,
	// não literais espalhados pelo código
	if cfg.PageSize, err = getEnvInt("CLICKUP_PAGE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.MaxOpenItems, err = getEnvInt("CLICKUP_MAX_OPEN_ITEMS", 10000); err != nil {
		return nil, err
	}

	cacheSeconds, err := getEnvInt("CACHE_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(cacheSeconds) * time.Second

	return cfg, nil
}

// getEnvInt lê um inteiro do ambiente com valor padrão
func getEnvInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s inválido: %q", name, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s deve ser positivo, recebido: %d", name, value)
	}
	return value, nil
}
