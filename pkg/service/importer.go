package service

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/models"
	"github.com/viniausta/repasse-medico/pkg/storage"
)

// ImportCandidates pulls pending rows from the source view and stages the
// ones not yet present, oldest release date first. Import is idempotent:
// a transfer number already staged is skipped, never updated. A failed
// insert is logged and does not abort the batch.
func (e *Engine) ImportCandidates() (int, error) {
	if e.store == nil {
		return 0, errors.New("store not connected")
	}

	filter := storage.SourceFilter{
		Cutoff:            e.cfg.Cutoff,
		EstablishmentCode: e.cfg.EstablishmentCode,
		Limit:             e.cfg.RowLimit,
	}
	rows, err := e.store.ListSourceRows(filter)
	if err != nil {
		return 0, errors.Wrap(err, "fetch source rows")
	}

	inserted := 0
	for _, row := range rows {
		exists, err := e.store.TransferExists(row.TransferNo)
		if err != nil {
			e.log.Errorf("existence check failed for transfer %s: %v", row.TransferNo, err)
			continue
		}
		if exists {
			continue
		}

		row.Status = models.PendingTransferStatus
		if err := e.store.InsertTransfer(row); err != nil {
			e.log.Errorf("failed to stage transfer %s: %v", row.TransferNo, err)
			continue
		}
		inserted++
		e.Log(LevelInfo, row.TransferNo, fmt.Sprintf(
			"Inserido na tabela HOS_REPASSE_MEDICO: Terceiro: %d - Repasse: %s - Título: %s - CNPJ: %s - Status: P",
			row.ThirdPartySeq, row.TransferNo, row.InvoiceNo, row.TaxID))
	}

	e.Log(LevelInfo, "", fmt.Sprintf("Dados Importados com Sucesso: [%d/%d]", inserted, len(rows)))
	return inserted, nil
}
