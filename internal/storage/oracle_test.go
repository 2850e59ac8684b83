package storage_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internal_storage "github.com/viniausta/repasse-medico/internal/storage"
	"github.com/viniausta/repasse-medico/internal/testutil"
	"github.com/viniausta/repasse-medico/pkg/models"
)

// The Oracle Free container is heavy; the integration test only runs when
// explicitly requested.
func oracleStore(t *testing.T) (*internal_storage.OracleStore, *testutil.TestDB) {
	if os.Getenv("ORACLE_INTEGRATION") == "" {
		t.Skip("set ORACLE_INTEGRATION=1 to run Oracle integration tests")
	}
	td := testutil.SetupTestDB(t)
	store, err := internal_storage.NewOracleStore(td.ConnStr)
	require.NoError(t, err)
	return store, td
}

func TestOracleStore_StagingRoundTrip(t *testing.T) {
	store, td := oracleStore(t)
	defer td.Teardown(t)
	defer store.Close()

	release := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	rec := models.TransferRecord{
		TaxID:               "12345678000190",
		CompanyName:         "CLINICA EXEMPLO LTDA",
		ThirdPartySeq:       42,
		TransferNo:          "9001",
		InvoiceNo:           "T-9001",
		ReleaseDate:         &release,
		Email:               "contato@clinica.com.br",
		TransferReleaseDate: &release,
		Status:              models.PendingTransferStatus,
	}

	exists, err := store.TransferExists("9001")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.InsertTransfer(rec))

	exists, err = store.TransferExists("9001")
	require.NoError(t, err)
	assert.True(t, exists)

	pending, err := store.ListTransfers(models.PendingTransferStatus)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "9001", pending[0].TransferNo)
	assert.Equal(t, int64(42), pending[0].ThirdPartySeq)
	assert.Equal(t, "contato@clinica.com.br", pending[0].Email)

	require.NoError(t, store.UpdateTransferStatus("9001", models.SentTransferStatus, "Enviado"))

	pending, err = store.ListTransfers(models.PendingTransferStatus)
	require.NoError(t, err)
	assert.Len(t, pending, 0)

	sent, err := store.ListTransfers(models.SentTransferStatus)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Enviado", sent[0].StatusMsg)
}

func TestOracleStore_UpdateUnknownTransfer(t *testing.T) {
	store, td := oracleStore(t)
	defer td.Teardown(t)
	defer store.Close()

	err := store.UpdateTransferStatus("does-not-exist", models.SentTransferStatus, "x")
	assert.Error(t, err)
}

func TestOracleStore_RunTracking(t *testing.T) {
	store, td := oracleStore(t)
	defer td.Teardown(t)
	defer store.Close()

	id, err := store.BeginRun(models.ExecutionRun{
		Unit:     "HOSP",
		Project:  "RPA",
		Script:   "repasse-medico",
		Stage:    "-",
		Operator: "robo",
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	require.NoError(t, store.AppendLog(models.LogEntry{
		RunID:   id,
		Level:   "INFO",
		Message: "Inicio robô",
	}))

	require.NoError(t, store.FinalizeRun(id, models.CompletedRunStatus, "-"))
}
