package service_test

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/models"
	"github.com/viniausta/repasse-medico/pkg/service"
)

type testLogger struct{}

func (testLogger) Infof(format string, args ...interface{})  {}
func (testLogger) Warnf(format string, args ...interface{})  {}
func (testLogger) Errorf(format string, args ...interface{}) {}

// fakeBrowser scripts the Tasy screens by selector substring. Every call
// is recorded so tests can assert which parts of the UI were touched.
type fakeBrowser struct {
	calls []string

	nameText      string // resolved third-party name, empty never resolves
	nameTextAfter int    // number of Text polls before the name resolves
	nameCalls     int

	gridRowVisible bool
	abortVisible   bool

	failClickSubstr string
	failClickTimes  int

	navErr error
	closed int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		nameText:       "TERCEIRO TESTE",
		gridRowVisible: true,
	}
}

func (f *fakeBrowser) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBrowser) called(substr string) bool {
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func (f *fakeBrowser) Navigate(url string) error {
	f.record("navigate:" + url)
	return f.navErr
}

func (f *fakeBrowser) WaitVisible(kind service.SelectorKind, sel string, timeout time.Duration) bool {
	f.record("wait:" + sel)
	switch {
	case strings.Contains(sel, "Operação abortada"):
		return f.abortVisible
	case strings.Contains(sel, "slick-row"):
		return f.gridRowVisible
	}
	return true
}

func (f *fakeBrowser) SetValue(kind service.SelectorKind, sel, text string, timeout time.Duration) error {
	f.record("set:" + sel + "=" + text)
	return nil
}

func (f *fakeBrowser) Click(kind service.SelectorKind, sel string, timeout time.Duration, viaScript bool) error {
	f.record("click:" + sel)
	if f.failClickTimes > 0 && f.failClickSubstr != "" && strings.Contains(sel, f.failClickSubstr) {
		f.failClickTimes--
		return errors.New("element not interactable")
	}
	return nil
}

func (f *fakeBrowser) Text(kind service.SelectorKind, sel string, timeout time.Duration) (string, error) {
	f.record("text:" + sel)
	if strings.Contains(sel, `ng-model="description"`) {
		f.nameCalls++
		if f.nameText != "" && f.nameCalls > f.nameTextAfter {
			return f.nameText, nil
		}
		return "", nil
	}
	if strings.Contains(sel, "dialog-content") {
		return "ORA-20001: operação abortada", nil
	}
	return "", nil
}

func (f *fakeBrowser) Attribute(kind service.SelectorKind, sel, attr string, timeout time.Duration) (string, error) {
	f.record("attr:" + sel)
	return "", nil
}

func (f *fakeBrowser) ExecScript(script string) error {
	f.record("script:" + script)
	return nil
}

func (f *fakeBrowser) Screenshot(path string) error {
	f.record("screenshot:" + path)
	return nil
}

func (f *fakeBrowser) Sleep(d time.Duration) {}

func (f *fakeBrowser) Close() error {
	f.closed++
	return nil
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// stagedRecord builds a complete pending record ready to send.
func stagedRecord(transferNo string, seq int64) models.TransferRecord {
	return models.TransferRecord{
		TaxID:               "12345678000190",
		CompanyName:         "CLINICA EXEMPLO LTDA",
		ThirdPartySeq:       seq,
		TransferNo:          transferNo,
		InvoiceNo:           "T-" + transferNo,
		ReleaseDate:         date("2025-09-10"),
		Email:               "contato@clinica.com.br",
		TransferReleaseDate: date("2025-09-12"),
		Status:              models.PendingTransferStatus,
	}
}
