package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	Log        LogConfig
	CORS       CORSConfig
	Resolver   ResolverConfig
	Heuristics HeuristicsConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RegistryProviderConfig holds settings for a single authority registry endpoint.
// URLTemplate must contain the {key} placeholder.
type RegistryProviderConfig struct {
	Name        string `mapstructure:"name"`
	URLTemplate string `mapstructure:"url"`
}

// ResolverConfig holds authority registry lookup settings.
type ResolverConfig struct {
	Primary   RegistryProviderConfig `mapstructure:"primary"`
	Secondary RegistryProviderConfig `mapstructure:"secondary"`
	Tertiary  RegistryProviderConfig `mapstructure:"tertiary"`

	// ProxyURL is prepended to the escaped registry URL; empty means direct requests.
	ProxyURL string `mapstructure:"proxy_url"`
	// FallbackURL is the simplified lookup keyed only by the access key ({key}).
	FallbackURL string `mapstructure:"fallback_url"`
	// TaxIDURL is the public business registry lookup ({taxid}).
	TaxIDURL string `mapstructure:"tax_id_url"`

	TimeoutSecs        int `mapstructure:"timeout_secs"`
	GeneratedKeyProbes int `mapstructure:"generated_key_probes"`
	// ProbeBudgetSecs bounds the whole generated-key probing phase.
	ProbeBudgetSecs int `mapstructure:"probe_budget_secs"`
	MaxWindows      int `mapstructure:"max_windows"`
}

// Providers returns the configured registry providers in lookup order, skipping
// those without a URL.
func (r *ResolverConfig) Providers() []RegistryProviderConfig {
	var out []RegistryProviderConfig
	for _, p := range []RegistryProviderConfig{r.Primary, r.Secondary, r.Tertiary} {
		if p.URLTemplate != "" {
			out = append(out, p)
		}
	}
	return out
}

// Timeout returns the per-request timeout, defaulting to 10s.
func (r *ResolverConfig) Timeout() time.Duration {
	if r.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.TimeoutSecs) * time.Second
}

// ProbeBudget returns the deadline for generated-key probing, defaulting to 20s.
func (r *ResolverConfig) ProbeBudget() time.Duration {
	if r.ProbeBudgetSecs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(r.ProbeBudgetSecs) * time.Second
}

// HeuristicsConfig holds the fraud heuristic thresholds. These are policy knobs
// chosen empirically, not values validated against fraud data.
type HeuristicsConfig struct {
	ValueTolerance      float64       `mapstructure:"value_tolerance"`
	DateTolerance       time.Duration `mapstructure:"date_tolerance"`
	RejectAbove         int           `mapstructure:"reject_above"`
	MinValue            float64       `mapstructure:"min_value"`
	MaxValue            float64       `mapstructure:"max_value"`
	HighValue           float64       `mapstructure:"high_value"`
	HighValueMinTextLen int           `mapstructure:"high_value_min_text_len"`
	MinTextLen          int           `mapstructure:"min_text_len"`
	LowIntegerMax       float64       `mapstructure:"low_integer_max"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT verification settings.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from environment variables with the FIDELIS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FIDELIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// An empty FIDELIS_RESOLVER_PROXY_URL means direct requests, not the default relay.
	v.AllowEmptyEnv(true)

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "fidelis")
	v.SetDefault("db.password", "fidelis_secret")
	v.SetDefault("db.name", "fidelis_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.issuer", "fidelis")

	// Log defaults
	v.SetDefault("log.level", "debug")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Resolver defaults
	v.SetDefault("resolver.primary.name", "portal-nacional")
	v.SetDefault("resolver.primary.url", "https://www.nfe.fazenda.gov.br/portal/consultaRecaptcha.aspx?tipoConsulta=resumo&nfe={key}")
	v.SetDefault("resolver.secondary.name", "sefaz-consulta")
	v.SetDefault("resolver.secondary.url", "https://www.sefaz.rs.gov.br/NFE/NFE-COM.aspx?chNFe={key}")
	v.SetDefault("resolver.tertiary.name", "svrs-mirror")
	v.SetDefault("resolver.tertiary.url", "https://dfe-portal.svrs.rs.gov.br/NFE/Consulta?chaveNFe={key}")
	v.SetDefault("resolver.proxy_url", "https://api.allorigins.win/raw?url=")
	v.SetDefault("resolver.fallback_url", "https://www.meudanfe.com.br/api/consulta?chave={key}")
	v.SetDefault("resolver.tax_id_url", "https://brasilapi.com.br/api/cnpj/v1/{taxid}")
	v.SetDefault("resolver.timeout_secs", 10)
	v.SetDefault("resolver.generated_key_probes", 5)
	v.SetDefault("resolver.probe_budget_secs", 20)
	v.SetDefault("resolver.max_windows", 50)

	// Heuristics defaults
	v.SetDefault("heuristics.value_tolerance", 0.05)
	v.SetDefault("heuristics.date_tolerance", "24h")
	v.SetDefault("heuristics.reject_above", 3)
	v.SetDefault("heuristics.min_value", 5.0)
	v.SetDefault("heuristics.max_value", 50000.0)
	v.SetDefault("heuristics.high_value", 1000.0)
	v.SetDefault("heuristics.high_value_min_text_len", 200)
	v.SetDefault("heuristics.min_text_len", 50)
	v.SetDefault("heuristics.low_integer_max", 20.0)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                        "FIDELIS_SERVER_PORT",
		"server.read_timeout":                "FIDELIS_SERVER_READ_TIMEOUT",
		"server.write_timeout":               "FIDELIS_SERVER_WRITE_TIMEOUT",
		"server.environment":                 "FIDELIS_SERVER_ENVIRONMENT",
		"db.host":                            "FIDELIS_DB_HOST",
		"db.port":                            "FIDELIS_DB_PORT",
		"db.user":                            "FIDELIS_DB_USER",
		"db.password":                        "FIDELIS_DB_PASSWORD",
		"db.name":                            "FIDELIS_DB_NAME",
		"db.sslmode":                         "FIDELIS_DB_SSLMODE",
		"db.max_open":                        "FIDELIS_DB_MAX_OPEN",
		"db.max_idle":                        "FIDELIS_DB_MAX_IDLE",
		"jwt.secret":                         "FIDELIS_JWT_SECRET",
		"jwt.access_expiry":                  "FIDELIS_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                         "FIDELIS_JWT_ISSUER",
		"log.level":                          "FIDELIS_LOG_LEVEL",
		"cors.allowed_origins":               "FIDELIS_CORS_ALLOWED_ORIGINS",
		"resolver.primary.name":              "FIDELIS_RESOLVER_PRIMARY_NAME",
		"resolver.primary.url":               "FIDELIS_RESOLVER_PRIMARY_URL",
		"resolver.secondary.name":            "FIDELIS_RESOLVER_SECONDARY_NAME",
		"resolver.secondary.url":             "FIDELIS_RESOLVER_SECONDARY_URL",
		"resolver.tertiary.name":             "FIDELIS_RESOLVER_TERTIARY_NAME",
		"resolver.tertiary.url":              "FIDELIS_RESOLVER_TERTIARY_URL",
		"resolver.proxy_url":                 "FIDELIS_RESOLVER_PROXY_URL",
		"resolver.fallback_url":              "FIDELIS_RESOLVER_FALLBACK_URL",
		"resolver.tax_id_url":                "FIDELIS_RESOLVER_TAX_ID_URL",
		"resolver.timeout_secs":              "FIDELIS_RESOLVER_TIMEOUT_SECS",
		"resolver.generated_key_probes":      "FIDELIS_RESOLVER_GENERATED_KEY_PROBES",
		"resolver.probe_budget_secs":         "FIDELIS_RESOLVER_PROBE_BUDGET_SECS",
		"resolver.max_windows":               "FIDELIS_RESOLVER_MAX_WINDOWS",
		"heuristics.value_tolerance":         "FIDELIS_HEURISTICS_VALUE_TOLERANCE",
		"heuristics.date_tolerance":          "FIDELIS_HEURISTICS_DATE_TOLERANCE",
		"heuristics.reject_above":            "FIDELIS_HEURISTICS_REJECT_ABOVE",
		"heuristics.min_value":               "FIDELIS_HEURISTICS_MIN_VALUE",
		"heuristics.max_value":               "FIDELIS_HEURISTICS_MAX_VALUE",
		"heuristics.high_value":              "FIDELIS_HEURISTICS_HIGH_VALUE",
		"heuristics.high_value_min_text_len": "FIDELIS_HEURISTICS_HIGH_VALUE_MIN_TEXT_LEN",
		"heuristics.min_text_len":            "FIDELIS_HEURISTICS_MIN_TEXT_LEN",
		"heuristics.low_integer_max":         "FIDELIS_HEURISTICS_LOW_INTEGER_MAX",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if FIDELIS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FIDELIS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Resolver = ResolverConfig{
		Primary: RegistryProviderConfig{
			Name:        v.GetString("resolver.primary.name"),
			URLTemplate: v.GetString("resolver.primary.url"),
		},
		Secondary: RegistryProviderConfig{
			Name:        v.GetString("resolver.secondary.name"),
			URLTemplate: v.GetString("resolver.secondary.url"),
		},
		Tertiary: RegistryProviderConfig{
			Name:        v.GetString("resolver.tertiary.name"),
			URLTemplate: v.GetString("resolver.tertiary.url"),
		},
		ProxyURL:           v.GetString("resolver.proxy_url"),
		FallbackURL:        v.GetString("resolver.fallback_url"),
		TaxIDURL:           v.GetString("resolver.tax_id_url"),
		TimeoutSecs:        v.GetInt("resolver.timeout_secs"),
		GeneratedKeyProbes: v.GetInt("resolver.generated_key_probes"),
		ProbeBudgetSecs:    v.GetInt("resolver.probe_budget_secs"),
		MaxWindows:         v.GetInt("resolver.max_windows"),
	}

	cfg.Heuristics = HeuristicsConfig{
		ValueTolerance:      v.GetFloat64("heuristics.value_tolerance"),
		DateTolerance:       v.GetDuration("heuristics.date_tolerance"),
		RejectAbove:         v.GetInt("heuristics.reject_above"),
		MinValue:            v.GetFloat64("heuristics.min_value"),
		MaxValue:            v.GetFloat64("heuristics.max_value"),
		HighValue:           v.GetFloat64("heuristics.high_value"),
		HighValueMinTextLen: v.GetInt("heuristics.high_value_min_text_len"),
		MinTextLen:          v.GetInt("heuristics.min_text_len"),
		LowIntegerMax:       v.GetFloat64("heuristics.low_integer_max"),
	}

	return cfg, nil
}
