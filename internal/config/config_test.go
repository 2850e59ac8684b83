package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viniausta/repasse-medico/internal/config"
)

func TestLoad(t *testing.T) {
	t.Setenv("CAMINHO_PADRAO", "/srv/rpa/repasse")
	t.Setenv("DEV", "true")
	t.Setenv("BD_USUARIO", "robo")
	t.Setenv("BD_SENHA", "secret")
	t.Setenv("AUSTA_BD_ORACLE_DEV", "db.austa.local,1522,TASYPRD")
	t.Setenv("UNIDADE", "HOSP")
	t.Setenv("RPA_SCRIPT_NAME", "repasse-medico")
	t.Setenv("DT_CORTE", "15/10/2025")
	t.Setenv("LIMITE_REGISTROS", "50")
	t.Setenv("TENTATIVAS_NOME", "5")
	t.Setenv("INTERVALO_NOME_MS", "250")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/rpa/repasse", cfg.BasePath)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "robo", cfg.DBUser)
	assert.Equal(t, "db.austa.local", cfg.DBHost)
	assert.Equal(t, 1522, cfg.DBPort)
	assert.Equal(t, "TASYPRD", cfg.DBService)
	assert.Equal(t, "HOSP", cfg.Unit)
	assert.Equal(t, "repasse-medico", cfg.Script)
	assert.Equal(t, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), cfg.Cutoff)
	assert.Equal(t, 50, cfg.RowLimit)
	assert.Equal(t, 5, cfg.PollAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEV", "")
	t.Setenv("AUSTA_BD_ORACLE_DEV", "")
	t.Setenv("DT_CORTE", "")
	t.Setenv("TENTATIVAS_NOME", "")
	t.Setenv("INTERVALO_NOME_MS", "")
	t.Setenv("LIMITE_REGISTROS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.DevMode)
	assert.Equal(t, 1521, cfg.DBPort)
	assert.Equal(t, 10, cfg.PollAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 0, cfg.RowLimit)
	assert.False(t, cfg.ImportOnly)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("DT_CORTE", "2025-09-01")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("DT_CORTE", "01/09/2025")
	t.Setenv("LIMITE_REGISTROS", "many")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("LIMITE_REGISTROS", "10")
	t.Setenv("AUSTA_BD_ORACLE_DEV", "host,notaport,SVC")
	_, err = config.Load()
	assert.Error(t, err)
}
