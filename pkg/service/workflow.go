package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/models"
)

// Outcome classifies how far a record got through the send sequence.
type Outcome int

const (
	// OutcomeSent means the email dialog was submitted and no abort
	// dialog appeared.
	OutcomeSent Outcome = iota
	// OutcomeIncomplete means a required field is missing; the browser
	// is never touched for such a record.
	OutcomeIncomplete
	// OutcomeNotFound means the third party never resolved in the
	// filter, or its grid row never rendered.
	OutcomeNotFound
	// OutcomeSendFailed means the ERP raised its abort dialog after
	// submit.
	OutcomeSendFailed
)

// result couples an outcome with the message persisted on the record.
type result struct {
	outcome Outcome
	message string
}

func (r result) status() models.TransferStatus {
	switch r.outcome {
	case OutcomeSent:
		return models.SentTransferStatus
	case OutcomeSendFailed:
		return models.FailedTransferStatus
	default:
		return models.IgnoredTransferStatus
	}
}

// Tasy screen selectors. The ERP renders no stable ids, so everything
// hangs off visible text and angular class names.
const (
	selMenuSearch     = `//input[@ng-model="search"]`
	selFilterToken    = `//div[@class="token-filter-container ng-scope"]/tasy-wlabel`
	selFilterModal    = `//div[@class="filter-modal-content"]`
	selFilterSeqInput = `//div[@class="filter-modal-content"]//input[@name="NR_SEQ_TERCEIRO"]`
	selFilterSeqName  = `//div[@class="filter-modal-content"]//tasy-wtextboxlocator[@w-model="record['NR_SEQ_TERCEIRO']"]//input[@ng-model="description"]`
	selFilterButton   = `//div[@class="filter-modal-content"]//button[contains(.,'Filtrar')]`
	selDetailPanel    = `//div[@class="wdbpanel-container" and contains(.,'Repasse terceiros')]`
	selSendEmail      = `//span[contains(.,'Enviar E-mail')]`
	selEmailDialog    = `//div[@class="ngdialog-content" and contains(.,'Email destino')]`
	selEmailInput     = `//div[@class="ngdialog-content" and contains(.,'Email destino')]//input[@name="DS_EMAIL_DESTINO"]`
	selEmailSubmit    = `//div[@class="ngdialog-content" and contains(.,'Email destino')]//button[contains(.,'Enviar')]`
	selAbortDialog    = `//div[@class="ngdialog-content" and contains(.,'Operação abortada')]`
	selAbortText      = `//div[@class="ngdialog-content" and contains(.,'Operação abortada')]//div[@class="dialog-content"]`
	selAbortOK        = `//div[@class="ngdialog-content"]//button[contains(.,'OK')]`
)

func gridRowSelector(seq int64) string {
	return fmt.Sprintf(`//div[@class="datagrid-grid-container"]//div[@class="ui-widget-content slick-row even active"]/div[contains(.,'%d')]`, seq)
}

func transferCellSelector(transferNo string) string {
	return fmt.Sprintf(`//div[@class="datagrid-cell-content-wrapper " and contains(.,'%s')]`, transferNo)
}

// Execute runs the send loop over every pending record. No records means
// no browser session is started. Login and menu navigation are hard
// preconditions; inside the loop a record's failure only skips that record.
func (e *Engine) Execute() error {
	if e.cfg.ImportOnly {
		e.Log(LevelInfo, "", "Modo somente importação, envio de emails desabilitado")
		return nil
	}
	if e.store == nil {
		return errors.New("store not connected")
	}

	e.Log(LevelInfo, "", fmt.Sprintf("Inicio robô - Id Exec: %d", e.runID))

	pending, err := e.store.ListTransfers(models.PendingTransferStatus)
	if err != nil {
		return errors.Wrap(err, "list pending transfers")
	}
	if len(pending) == 0 {
		e.Log(LevelInfo, "", "Sem repasses para realizar o envio")
		return nil
	}

	if err := e.login(); err != nil {
		return errors.Wrap(err, "login")
	}
	if err := e.navigateMenu(e.cfg.MenuScreen); err != nil {
		return errors.Wrap(err, "navigate menu")
	}

	for _, rec := range pending {
		res, err := e.processRecord(rec)
		if err != nil {
			// Record boundary: status stays untouched, the loop goes on.
			e.Log(LevelError, rec.TransferNo, fmt.Sprintf("Erro ao processar repasse %s: %v", rec.TransferNo, err))
			continue
		}
		if err := e.store.UpdateTransferStatus(rec.TransferNo, res.status(), res.message); err != nil {
			e.log.Errorf("failed to persist status for transfer %s: %v", rec.TransferNo, err)
		}
	}
	return nil
}

// processRecord drives one record through the fixed UI sequence and
// classifies the terminal outcome. Any driver error aborts only this
// record; the caller leaves its status unchanged.
func (e *Engine) processRecord(rec models.TransferRecord) (result, error) {
	if missing := rec.MissingFields(); len(missing) > 0 {
		msg := fmt.Sprintf("Dados não preenchidos: %s. Email: %s - Nr Titulo: %s", joinFields(missing), rec.Email, rec.InvoiceNo)
		e.Log(LevelInfo, rec.TransferNo, msg)
		return result{OutcomeIncomplete, msg}, nil
	}

	resolved, err := e.locateThirdParty(rec.ThirdPartySeq)
	if err != nil {
		return result{}, err
	}
	if !resolved {
		msg := fmt.Sprintf("Não encontrou a sequência: %d", rec.ThirdPartySeq)
		e.Log(LevelInfo, rec.TransferNo, msg)
		return result{OutcomeNotFound, msg}, nil
	}

	found, err := e.openThirdParty(rec.ThirdPartySeq)
	if err != nil {
		return result{}, err
	}
	if !found {
		msg := fmt.Sprintf("Não encontrou a sequência: %d", rec.ThirdPartySeq)
		e.Log(LevelInfo, rec.TransferNo, msg)
		return result{OutcomeNotFound, msg}, nil
	}

	if err := e.submitEmail(rec); err != nil {
		return result{}, err
	}

	aborted, err := e.detectAbort(rec)
	if err != nil {
		return result{}, err
	}
	if aborted {
		msg := "Falha no envio do email"
		e.Log(LevelInfo, rec.TransferNo, msg)
		return result{OutcomeSendFailed, msg}, nil
	}
	return result{OutcomeSent, "Enviado"}, nil
}

// locateThirdParty fills the filter with the third-party sequence and
// polls until the ERP resolves the name. The resolution is asynchronous
// with no completion signal, hence the bounded poll.
func (e *Engine) locateThirdParty(seq int64) (bool, error) {
	b := e.browser
	if !b.WaitVisible(ByXPath, selFilterToken, e.cfg.StepTimeout) {
		return false, errors.New("filter token not visible")
	}
	if err := b.Click(ByXPath, selFilterToken, e.cfg.StepTimeout, false); err != nil {
		return false, errors.Wrap(err, "open filter")
	}
	if !b.WaitVisible(ByXPath, selFilterModal, e.cfg.StepTimeout) {
		return false, errors.New("filter modal not visible")
	}
	if err := b.SetValue(ByXPath, selFilterSeqInput, fmt.Sprintf("%d", seq), e.cfg.StepTimeout); err != nil {
		return false, errors.Wrap(err, "fill third-party sequence")
	}
	e.sleep(e.cfg.PollInterval)
	if err := b.ExecScript("document.activeElement.blur();"); err != nil {
		return false, errors.Wrap(err, "blur sequence input")
	}

	for attempt := 1; attempt <= e.cfg.PollAttempts; attempt++ {
		e.sleep(e.cfg.PollInterval)
		name, err := b.Text(ByXPath, selFilterSeqName, e.cfg.StepTimeout)
		if err != nil {
			name = ""
		}
		e.log.Infof("[%d/%d] - resolved name [%s]", attempt, e.cfg.PollAttempts, name)
		if name != "" {
			return true, nil
		}
	}
	return false, nil
}

// openThirdParty applies the filter and opens the matching grid row.
func (e *Engine) openThirdParty(seq int64) (bool, error) {
	b := e.browser
	if err := b.Click(ByXPath, selFilterButton, e.cfg.StepTimeout, false); err != nil {
		return false, errors.Wrap(err, "apply filter")
	}
	e.sleep(2 * e.cfg.PollInterval)

	row := gridRowSelector(seq)
	if !b.WaitVisible(ByXPath, row, e.cfg.StepTimeout) {
		return false, nil
	}
	if err := b.Click(ByXPath, row, e.cfg.StepTimeout, false); err != nil {
		return false, errors.Wrap(err, "open grid row")
	}
	if !b.WaitVisible(ByXPath, selDetailPanel, 2*e.cfg.StepTimeout) {
		return false, errors.New("transfer detail panel not visible")
	}
	return true, nil
}

// submitEmail selects the transfer line, opens the send dialog and
// submits the destination email. Dev mode redirects to the test address.
func (e *Engine) submitEmail(rec models.TransferRecord) error {
	b := e.browser
	cell := transferCellSelector(rec.TransferNo)
	b.WaitVisible(ByXPath, cell, cellTimeout(e.cfg.StepTimeout))
	if err := b.Click(ByXPath, cell, e.cfg.StepTimeout, false); err != nil {
		return errors.Wrap(err, "select transfer line")
	}
	if err := b.Click(ByXPath, selSendEmail, e.cfg.StepTimeout, false); err != nil {
		return errors.Wrap(err, "trigger send email")
	}
	if !b.WaitVisible(ByXPath, selEmailDialog, e.cfg.StepTimeout) {
		return errors.New("email dialog not visible")
	}

	email := rec.Email
	if e.cfg.DevMode && e.cfg.DevEmail != "" {
		email = e.cfg.DevEmail
	}
	if err := b.SetValue(ByXPath, selEmailInput, email, e.cfg.StepTimeout); err != nil {
		return errors.Wrap(err, "fill destination email")
	}
	if err := b.Click(ByXPath, selEmailSubmit, e.cfg.StepTimeout, false); err != nil {
		return errors.Wrap(err, "submit email dialog")
	}
	return nil
}

// detectAbort watches for the ERP abort dialog after submit. When it
// appears the dialog text is read, the dialog dismissed and a screenshot
// captured for evidence, all before the next record runs.
func (e *Engine) detectAbort(rec models.TransferRecord) (bool, error) {
	b := e.browser
	if !b.WaitVisible(ByXPath, selAbortDialog, abortTimeout(e.cfg.StepTimeout)) {
		return false, nil
	}
	if text, err := b.Text(ByXPath, selAbortText, e.cfg.StepTimeout); err == nil && text != "" {
		e.log.Warnf("abort dialog for transfer %s: %s", rec.TransferNo, text)
	}
	if err := b.Click(ByXPath, selAbortOK, e.cfg.StepTimeout, false); err != nil {
		return true, errors.Wrap(err, "dismiss abort dialog")
	}
	e.captureEvidence(rec.TransferNo)
	return true, nil
}

func (e *Engine) captureEvidence(transferNo string) {
	if e.cfg.EvidenceDir == "" {
		return
	}
	path := filepath.Join(e.cfg.EvidenceDir, fmt.Sprintf("%s_%s.png", transferNo, uuid.NewString()))
	if err := e.browser.Screenshot(path); err != nil {
		e.log.Warnf("failed to capture evidence for %s: %v", transferNo, err)
		return
	}
	e.log.Infof("evidence captured: %s", path)
}

// The transfer line renders quickly once the panel is open, and the abort
// dialog either appears shortly after submit or not at all. Both checks
// use deliberately short timeouts derived from the step timeout.
func cellTimeout(step time.Duration) time.Duration  { return step / 5 }
func abortTimeout(step time.Duration) time.Duration { return step / 2 }
