package service_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/viniausta/repasse-medico/pkg/models"
	"github.com/viniausta/repasse-medico/pkg/service"
	"github.com/viniausta/repasse-medico/pkg/storage"
)

func TestImportCandidates(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		store := storage.NewMockStore()
		store.SourceRows = []models.TransferRecord{
			stagedRecord("1001", 10),
			stagedRecord("1002", 20),
			stagedRecord("1003", 30),
		}
		e := service.NewEngine(service.Config{}, store, testLogger{})

		n, err := e.ImportCandidates()
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Len(t, store.Transfers, 3)

		n, err = e.ImportCandidates()
		assert.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Len(t, store.Transfers, 3)
	})

	t.Run("SkipsAlreadyStaged", func(t *testing.T) {
		store := storage.NewMockStore()
		store.SourceRows = []models.TransferRecord{
			stagedRecord("1001", 10),
			stagedRecord("1002", 20),
			stagedRecord("1003", 30),
		}
		staged := stagedRecord("1002", 20)
		assert.NoError(t, store.InsertTransfer(staged))

		e := service.NewEngine(service.Config{}, store, testLogger{})
		n, err := e.ImportCandidates()
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, store.Transfers, 3)
	})

	t.Run("InsertedRowsArePending", func(t *testing.T) {
		store := storage.NewMockStore()
		row := stagedRecord("1001", 10)
		row.Status = ""
		store.SourceRows = []models.TransferRecord{row}

		e := service.NewEngine(service.Config{}, store, testLogger{})
		_, err := e.ImportCandidates()
		assert.NoError(t, err)
		got, ok := store.Transfer("1001")
		assert.True(t, ok)
		assert.Equal(t, models.PendingTransferStatus, got.Status)
	})

	t.Run("PartialFailureContinues", func(t *testing.T) {
		store := storage.NewMockStore()
		store.SourceRows = []models.TransferRecord{
			stagedRecord("1001", 10),
			stagedRecord("1002", 20),
			stagedRecord("1003", 30),
		}
		store.InsertErrFor["1002"] = errors.New("ORA-00001: unique constraint violated")

		e := service.NewEngine(service.Config{}, store, testLogger{})
		n, err := e.ImportCandidates()
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, store.Transfers, 2)
	})

	t.Run("RowCapHonored", func(t *testing.T) {
		store := storage.NewMockStore()
		store.SourceRows = []models.TransferRecord{
			stagedRecord("1001", 10),
			stagedRecord("1002", 20),
			stagedRecord("1003", 30),
		}
		e := service.NewEngine(service.Config{RowLimit: 2}, store, testLogger{})
		n, err := e.ImportCandidates()
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("NoStore", func(t *testing.T) {
		e := service.NewEngine(service.Config{}, nil, testLogger{})
		_, err := e.ImportCandidates()
		assert.Error(t, err)
	})
}
