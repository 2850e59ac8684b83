package service

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/models"
	"github.com/viniausta/repasse-medico/pkg/storage"
)

// Logger defines the logging interface for the engine.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Sleeper is the delay function used by bounded polls. Tests inject a fake.
type Sleeper func(d time.Duration)

// Log levels recorded in the run-tracking store.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Config carries the engine settings. Zero values fall back to the
// defaults applied by NewEngine.
type Config struct {
	BaseURL     string // ERP entry URL, empty skips navigation on login
	MenuScreen  string // menu entry driven after login
	DevMode     bool
	DevEmail    string // overrides every destination email in dev mode
	EvidenceDir string // screenshot directory, empty disables capture

	Cutoff            time.Time // import filter: release date on/after
	EstablishmentCode string    // import filter: optional establishment
	RowLimit          int       // import filter: optional row cap
	ImportOnly        bool      // import runs, the send loop does not

	PollAttempts int           // name-resolution poll attempts
	PollInterval time.Duration // delay between poll attempts
	StepTimeout  time.Duration // default per-step wait

	Unit     string
	Project  string
	Script   string
	Operator string
}

const (
	defaultMenuScreen   = "Repasse para Terceiros"
	defaultPollAttempts = 10
	defaultPollInterval = 500 * time.Millisecond
	defaultStepTimeout  = 10 * time.Second
)

// Engine orchestrates the run lifecycle, the candidate import and the
// per-record ERP interaction. One browser session, one store connection,
// strictly sequential.
type Engine struct {
	cfg     Config
	store   storage.Store
	browser Browser
	log     Logger
	sleep   Sleeper

	newStore   func() (storage.Store, error)
	newBrowser func() (Browser, error)

	runID       int64
	ownsStore   bool
	ownsBrowser bool
	shutdown    sync.Once
}

type Option func(*Engine)

// WithBrowser hands the engine an already-open session. The engine will
// not close it on shutdown.
func WithBrowser(b Browser) Option {
	return func(e *Engine) { e.browser = b }
}

// WithBrowserFactory sets how the engine opens its own session when the
// send loop needs one. Sessions opened this way are closed on shutdown.
func WithBrowserFactory(f func() (Browser, error)) Option {
	return func(e *Engine) { e.newBrowser = f }
}

// WithStoreFactory sets how the engine connects when constructed without a
// store. Connections opened this way are closed on shutdown.
func WithStoreFactory(f func() (storage.Store, error)) Option {
	return func(e *Engine) { e.newStore = f }
}

func WithSleeper(s Sleeper) Option {
	return func(e *Engine) { e.sleep = s }
}

// NewEngine builds an engine around an optional caller-supplied store.
// A nil store is tolerated: the engine degrades to console-only logging
// until Initialize manages to connect through the store factory.
func NewEngine(cfg Config, store storage.Store, logger Logger, opts ...Option) *Engine {
	if cfg.MenuScreen == "" {
		cfg.MenuScreen = defaultMenuScreen
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = defaultPollAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	e := &Engine{
		cfg:   cfg,
		store: store,
		log:   logger,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunID returns the identifier assigned on registration, zero when the
// run-tracking store was unreachable.
func (e *Engine) RunID() int64 {
	return e.runID
}

// Initialize prepares the evidence directory, connects the store when the
// engine owns that concern, and registers the execution run. Store
// connectivity failures are warnings: the workflow continues with console
// logging only.
func (e *Engine) Initialize() {
	e.log.Infof("initializing repasse automation")
	if e.cfg.EvidenceDir != "" {
		if err := os.MkdirAll(e.cfg.EvidenceDir, 0o755); err != nil {
			e.log.Warnf("failed to create evidence dir %s: %v", e.cfg.EvidenceDir, err)
		}
	}

	if e.store == nil && e.newStore != nil {
		store, err := e.newStore()
		if err != nil {
			e.log.Warnf("database unreachable, continuing with console logging only: %v", err)
		} else {
			e.store = store
			e.ownsStore = true
		}
	}

	if e.store == nil {
		e.log.Warnf("no run-tracking store, execution run not registered")
		return
	}

	id, err := e.store.BeginRun(models.ExecutionRun{
		Unit:     e.cfg.Unit,
		Project:  e.cfg.Project,
		Script:   e.cfg.Script,
		Stage:    "-",
		Operator: e.cfg.Operator,
	})
	if err != nil {
		e.log.Warnf("failed to register execution run: %v", err)
		return
	}
	e.runID = id
	e.log.Infof("execution run registered with id %d", id)
}

// Log appends a run log entry, best-effort. Store failures are written to
// the local logger and never surface to the caller. recordKey may be empty.
func (e *Engine) Log(level, recordKey, message string) {
	switch level {
	case LevelWarn:
		e.log.Warnf("%s", message)
	case LevelError:
		e.log.Errorf("%s", message)
	default:
		e.log.Infof("%s", message)
	}

	if e.store == nil {
		return
	}
	err := e.store.AppendLog(models.LogEntry{
		RunID:     e.runID,
		Level:     level,
		RecordKey: recordKey,
		Message:   message,
	})
	if err != nil {
		e.log.Warnf("failed to append run log: %v", err)
	}
}

// login opens the browser session when the engine was not handed one and
// navigates to the ERP. Unlike per-record failures, a login failure aborts
// the whole send phase.
func (e *Engine) login() error {
	if e.browser == nil {
		if e.newBrowser == nil {
			return errors.New("no browser session and no browser factory configured")
		}
		b, err := e.newBrowser()
		if err != nil {
			e.Log(LevelError, "", "Login Tasy: False")
			return errors.Wrap(err, "start browser")
		}
		e.browser = b
		e.ownsBrowser = true
	}
	if e.cfg.BaseURL != "" {
		if err := e.browser.Navigate(e.cfg.BaseURL); err != nil {
			e.Log(LevelError, "", "Login Tasy: False")
			return errors.Wrap(err, "navigate to ERP")
		}
	}
	e.Log(LevelInfo, "", "Login Tasy: True")
	return nil
}

// navigateMenu drives the ERP menu search to open the given screen.
func (e *Engine) navigateMenu(screen string) error {
	e.log.Infof("navigating to screen %q", screen)
	if !e.browser.WaitVisible(ByXPath, selMenuSearch, e.cfg.StepTimeout) {
		return errors.New("menu search field not found")
	}
	if err := e.browser.SetValue(ByXPath, selMenuSearch, screen, e.cfg.StepTimeout); err != nil {
		return errors.Wrap(err, "fill menu search")
	}
	entry := "//span[text()='" + screen + "']"
	if !e.browser.WaitVisible(ByXPath, entry, e.cfg.StepTimeout) {
		return errors.Errorf("menu entry %q not found", screen)
	}
	if err := e.browser.Click(ByXPath, entry, e.cfg.StepTimeout, false); err != nil {
		return errors.Wrapf(err, "open menu entry %q", screen)
	}
	return nil
}

// Shutdown finalizes the run and releases owned resources. It is safe on
// every exit path, runs at most once, and never closes handles supplied by
// the caller.
func (e *Engine) Shutdown() {
	e.shutdown.Do(func() {
		e.Log(LevelInfo, "", "Fim Robô")
		if e.store != nil {
			// Finalize may be absent in test environments; never let
			// it block resource cleanup.
			if err := e.store.FinalizeRun(e.runID, models.CompletedRunStatus, "-"); err != nil {
				e.log.Warnf("failed to finalize execution run: %v", err)
			}
			if e.ownsStore {
				if err := e.store.Close(); err != nil {
					e.log.Errorf("failed to close store: %v", err)
				}
			}
		}
		if e.browser != nil && e.ownsBrowser {
			if err := e.browser.Close(); err != nil {
				e.log.Errorf("failed to close browser: %v", err)
			}
		}
	})
}

func joinFields(fields []string) string {
	return strings.Join(fields, ", ")
}
