package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       int
	DatabaseDriver string
	DatabaseURL    string
	LogLevel       string
	FallbackAdmin  string
	LoginDomain    string
	AuthHeader     string
	JWTSecret      string
	ReportLocale   string
	LDAP           LDAPConfig
}

type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	Timeout      time.Duration
}

func (c LDAPConfig) Enabled() bool { return c.URL != "" }

// Load reads a .env file when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		HTTPPort:       8080,
		DatabaseDriver: "postgres",
		LogLevel:       "info",
		AuthHeader:     "X-Remote-User",
		ReportLocale:   "da",
		LDAP:           LDAPConfig{Timeout: 5 * time.Second},
	}

	var missing, invalid []string

	if v := get("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if v := strings.ToLower(get("DATABASE_DRIVER")); v != "" {
		switch v {
		case "postgres", "sqlite":
			cfg.DatabaseDriver = v
		default:
			invalid = append(invalid, "DATABASE_DRIVER")
		}
	}

	if cfg.DatabaseURL = get("DATABASE_URL"); cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.FallbackAdmin = get("FALLBACK_ADMIN"); cfg.FallbackAdmin == "" {
		missing = append(missing, "FALLBACK_ADMIN")
	}

	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.LoginDomain = strings.TrimSuffix(get("LOGIN_DOMAIN"), `\`)
	if v := get("AUTH_HEADER"); v != "" {
		cfg.AuthHeader = v
	}
	cfg.JWTSecret = get("JWT_SECRET")

	if v := strings.ToLower(get("REPORT_LOCALE")); v != "" {
		switch v {
		case "da", "en":
			cfg.ReportLocale = v
		default:
			invalid = append(invalid, "REPORT_LOCALE")
		}
	}

	cfg.LDAP.URL = get("LDAP_URL")
	cfg.LDAP.BindDN = get("LDAP_BIND_DN")
	cfg.LDAP.BindPassword = getenv("LDAP_BIND_PASSWORD")
	cfg.LDAP.BaseDN = get("LDAP_BASE_DN")
	if v := get("LDAP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "LDAP_TIMEOUT")
		} else {
			cfg.LDAP.Timeout = d
		}
	}
	if cfg.LDAP.Enabled() && cfg.LDAP.BaseDN == "" {
		missing = append(missing, "LDAP_BASE_DN")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}
