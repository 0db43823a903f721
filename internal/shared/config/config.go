package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	EventStore EventStoreConfig
	Auth       AuthConfig
	PayMongo   PayMongoConfig
	CityHall   CityHallConfig
	Barangay   BarangayConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// EventStoreConfig holds the EventStoreDB connection settings for the
// notification/audit event bus.
type EventStoreConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

type AuthConfig struct {
	JWTSecret string
}

// PayMongoConfig holds credentials for the payment-link API.
type PayMongoConfig struct {
	BaseURL   string
	SecretKey string
	Enabled   bool
}

// CityHallConfig points at the municipal civil-registry SQL Server used to
// resolve resident contact details.
type CityHallConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Enabled  bool
}

// BarangayConfig holds identity used on generated notices and the display
// prefix of the complaint numbering domain.
type BarangayConfig struct {
	Name       string
	City       string
	CasePrefix string
	IDPrefix   string
	IDPadding  int
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "registry"),
			Password: getEnv("DB_PASSWORD", "registry"),
			Database: getEnv("DB_NAME", "registry"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		PayMongo: PayMongoConfig{
			BaseURL:   getEnv("PAYMONGO_URL", "https://api.paymongo.com/v1"),
			SecretKey: getEnv("PAYMONGO_SECRET_KEY", ""),
			Enabled:   getEnvBool("PAYMONGO_ENABLED", false),
		},
		CityHall: CityHallConfig{
			Host:     getEnv("CITYHALL_DB_HOST", "localhost"),
			Port:     getEnvInt("CITYHALL_DB_PORT", 1433),
			User:     getEnv("CITYHALL_DB_USER", ""),
			Password: getEnv("CITYHALL_DB_PASSWORD", ""),
			Database: getEnv("CITYHALL_DB_NAME", "CivilRegistry"),
			Enabled:  getEnvBool("CITYHALL_ENABLED", false),
		},
		Barangay: BarangayConfig{
			Name:       getEnv("BARANGAY_NAME", "Barangay Santa Fe"),
			City:       getEnv("BARANGAY_CITY", "City of Dasmarinas"),
			CasePrefix: getEnv("CASE_NUMBER_PREFIX", "SF"),
			IDPrefix:   getEnv("BARANGAY_ID_PREFIX", "IGP"),
			IDPadding:  getEnvInt("BARANGAY_ID_PADDING", 6),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
