package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Environment values recognized for fiscal emission. Homologation maps to
// tpAmb=2, production to tpAmb=1.
const (
	EnvHomologation = "homologacao"
	EnvProduction   = "producao"
)

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string

	HTTPAddr string

	LogLevel string

	// MerchantCode identifies the issuing merchant (empresas.codigo_empresa).
	// Callers may override it per request; this is the process default.
	MerchantCode string

	// FiscalEnv selects the emission environment (homologacao|producao).
	FiscalEnv string

	// DefaultSeries is used when neither the request nor the merchant record
	// carries a document series.
	DefaultSeries string

	Policy PolicyConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// PolicyConfig captures emission behaviors the source system left
// unenforced. Both default to off so generated documents match the
// historical output byte for byte.
type PolicyConfig struct {
	// ClampNegativeNet forces the net total to zero when the order discount
	// exceeds the product total.
	ClampNegativeNet bool
	// EnforcePaymentSum rejects emission when the payment sum does not
	// match the net total.
	EnforcePaymentSum bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:       getenv("APP_SERVICE", "fiscal"),
		AppVersion:    getenv("APP_VERSION", "1.0.0"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		MerchantCode:  strings.TrimSpace(getenv("MERCHANT_CODE", "")),
		FiscalEnv:     normalizeFiscalEnv(getenv("FISCAL_ENV", EnvHomologation)),
		DefaultSeries: getenv("FISCAL_SERIES", "1"),
		Policy: PolicyConfig{
			ClampNegativeNet:  getenvBool("POLICY_CLAMP_NEGATIVE_NET", false),
			EnforcePaymentSum: getenvBool("POLICY_ENFORCE_PAYMENT_SUM", false),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
	}
}

// Module wires configuration loading into the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// IsProduction reports whether emission targets the production environment.
func (c Config) IsProduction() bool {
	return c.FiscalEnv == EnvProduction
}

func normalizeFiscalEnv(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case EnvProduction, "production", "prod":
		return EnvProduction
	default:
		return EnvHomologation
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
