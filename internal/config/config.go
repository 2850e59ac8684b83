package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	defaultBasePath   = `C:\IBMRPA\Hospital\Austa_RepasseMedico`
	defaultCutoff     = "01/09/2025"
	defaultDevEmail   = "aalves@austa.com.br"
	cutoffLayout      = "02/01/2006"
	defaultPollCount  = 10
	defaultPollMillis = 500
)

// Config is the immutable environment-sourced settings record.
type Config struct {
	BasePath string
	DevMode  bool

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     int
	DBService  string

	Unit     string
	Project  string
	Script   string
	Operator string

	TasyURL    string
	WebhookURL string
	DevEmail   string

	Cutoff            time.Time
	EstablishmentCode string
	RowLimit          int
	ImportOnly        bool

	PollAttempts int
	PollInterval time.Duration
}

// Load reads the environment (honoring a .env file when present) into a
// Config. Only malformed values are errors; absent optional settings fall
// back to defaults.
func Load() (*Config, error) {
	// Missing .env is fine, the process env may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		BasePath:          getenv("CAMINHO_PADRAO", defaultBasePath),
		DevMode:           parseBool(os.Getenv("DEV")),
		DBUser:            os.Getenv("BD_USUARIO"),
		DBPassword:        os.Getenv("BD_SENHA"),
		Unit:              os.Getenv("UNIDADE"),
		Project:           os.Getenv("PROJETO"),
		Script:            os.Getenv("RPA_SCRIPT_NAME"),
		Operator:          os.Getenv("USERNAME"),
		TasyURL:           os.Getenv("TASY_URL"),
		WebhookURL:        os.Getenv("CLIQ_WEBHOOK_URL"),
		DevEmail:          getenv("DEV_EMAIL", defaultDevEmail),
		EstablishmentCode: os.Getenv("ESTABELECIMENTO"),
		ImportOnly:        parseBool(os.Getenv("IMPORT_ONLY")),
	}

	// Oracle coordinates come as a single "host,port,service" triple.
	if triple := os.Getenv("AUSTA_BD_ORACLE_DEV"); triple != "" {
		parts := strings.Split(triple, ",")
		if len(parts) > 0 {
			cfg.DBHost = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 {
			port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, errors.Wrapf(err, "invalid port in AUSTA_BD_ORACLE_DEV: %q", parts[1])
			}
			cfg.DBPort = port
		}
		if len(parts) > 2 {
			cfg.DBService = strings.TrimSpace(parts[2])
		}
	}
	if cfg.DBPort == 0 {
		cfg.DBPort = 1521
	}

	cutoff, err := time.Parse(cutoffLayout, getenv("DT_CORTE", defaultCutoff))
	if err != nil {
		return nil, errors.Wrap(err, "invalid DT_CORTE, expected DD/MM/YYYY")
	}
	cfg.Cutoff = cutoff

	if v := os.Getenv("LIMITE_REGISTROS"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid LIMITE_REGISTROS: %q", v)
		}
		cfg.RowLimit = limit
	}

	cfg.PollAttempts = parseInt(os.Getenv("TENTATIVAS_NOME"), defaultPollCount)
	cfg.PollInterval = time.Duration(parseInt(os.Getenv("INTERVALO_NOME_MS"), defaultPollMillis)) * time.Millisecond

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func parseInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
