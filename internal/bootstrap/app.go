package bootstrap

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"mpeg-transcriber/internal/clipboard"
	"mpeg-transcriber/internal/config"
	"mpeg-transcriber/internal/controller"
	"mpeg-transcriber/internal/diagnostics"
	"mpeg-transcriber/internal/domain"
	"mpeg-transcriber/internal/export"
	"mpeg-transcriber/internal/jobs"
	"mpeg-transcriber/internal/logger"
	"mpeg-transcriber/internal/models"
	"mpeg-transcriber/internal/state"
	"mpeg-transcriber/internal/transcribe"
	"mpeg-transcriber/internal/tui"
)

// logFileName receives logs while the terminal view owns the screen.
const logFileName = "mpeg-transcriber.log"

// App wires configuration, state, controller, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	State       *state.ApplicationState
	Controller  *controller.Controller
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport
	Log         *logger.Logger
	assets      fs.FS
	checker     *diagnostics.Checker
	models      modelLoader
	logFile     *os.File
	window      *frontendView

	mu         sync.Mutex
	events     *jobs.EventBus
	runtimeCtx context.Context
}

// modelLoader resolves the fixed model, downloading it when missing.
type modelLoader interface {
	Model() domain.WhisperModelOption
	LocalPath() string
	Load(ctx context.Context) (string, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	app, err := build(nil)
	if err != nil {
		return nil, err
	}
	app.assets = assets
	return app, nil
}

// NewTerminal builds the application for RunTerminal. Logs go to a file
// under the settings directory so they do not tear the terminal view.
func NewTerminal() (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	logPath := filepath.Join(homeDir, config.AppDirName, logFileName)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	app, err := build(logFile)
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}
	app.logFile = logFile
	return app, nil
}

// build loads settings and wires the production services. A nil logOut
// logs to stderr.
func build(logOut io.Writer) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	if err := ensureLocalBinOnPATH(homeDir); err != nil {
		return nil, fmt.Errorf("prepare local tool path: %w", err)
	}

	store := config.NewJSONStore(config.DefaultPath(homeDir))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	log, err := logger.New(logger.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: logOut,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	loader := models.NewLoader(models.Small, settings.ModelDir, log)
	service := transcribe.NewService(settings.FFmpegPath, settings.WhisperPath, loader, log)

	app := assemble(settings, store, diagnostics.NewChecker(), loader, service, export.NewWriter(), log)
	app.logDiagnostics()
	return app, nil
}

// assemble connects state, jobs, and controller around the given services.
func assemble(
	settings domain.Settings,
	store config.Store,
	checker *diagnostics.Checker,
	loader modelLoader,
	transcriber controller.Transcriber,
	writer controller.Writer,
	log *logger.Logger,
) *App {
	if log == nil {
		log = logger.Nop()
	}

	app := &App{
		Settings: settings,
		Store:    store,
		State:    state.New(),
		Jobs:     jobs.NewManager(),
		Log:      log,
		checker:  checker,
		models:   loader,
		events:   jobs.NewEventBus(100),
	}
	if checker != nil {
		app.Diagnostics = checker.Run(settings, loader.Model().FileName)
	}

	ctrl := controller.New(
		app.State,
		app.Jobs,
		&wailsPicker{app: app},
		&wailsNotifier{app: app},
		transcriber,
		writer,
		log,
	)
	ctrl.CopyText = app.copyTranscript
	app.Controller = ctrl

	app.window = &frontendView{app: app}
	app.State.AddView(app.window)
	return app
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	defer func() { _ = a.Log.Sync() }()

	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "MPEG Transcriber",
		Width:       520,
		Height:      220,
		MinWidth:    420,
		MinHeight:   180,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// RunTerminal runs the same controller behind a terminal interface.
func (a *App) RunTerminal() error {
	defer func() {
		_ = a.Log.Sync()
		if a.logFile != nil {
			_ = a.logFile.Close()
		}
	}()
	a.detachWindow()
	return tui.Run(a.Controller, a.State, a.Log)
}

// detachWindow stops feeding the desktop window when it is not shown.
func (a *App) detachWindow() {
	if a.window != nil {
		a.State.RemoveView(a.window)
	}
}

// Startup stores Wails runtime context for dialogs and push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// PickFile opens the media file dialog and selects the chosen file.
func (a *App) PickFile() error {
	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}
	return a.Controller.SelectFile(ctx)
}

// StartTranscription transcribes the selected file. It blocks until the
// transcript is written or the failure was reported, so the frontend calls it
// from a pending promise and renders busy mode from pushed events.
func (a *App) StartTranscription() error {
	ctx, err := a.runtimeContext()
	if err != nil {
		ctx = context.Background()
	}
	return a.Controller.InitTranscription(ctx)
}

// ViewModel returns what the window should currently display.
func (a *App) ViewModel() domain.ViewModel {
	return state.Render(a.State.Snapshot())
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.applySettings(normalizeSettings(settings)), nil
}

// GetSettings loads, normalizes and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
// Tool paths and the model directory take effect on the next start.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.applySettings(normalized)
	return normalized, nil
}

// applySettings caches settings and reruns diagnostics against them.
func (a *App) applySettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings, a.models.Model().FileName)
	}
	return a.Diagnostics
}

// copyTranscript copies text when the user enabled it in settings.
func (a *App) copyTranscript(text string) error {
	a.mu.Lock()
	enabled := a.Settings.CopyToClipboard
	a.mu.Unlock()
	if !enabled {
		return nil
	}
	return clipboard.SetText(text)
}

// logDiagnostics reports failed startup checks on the console.
func (a *App) logDiagnostics() {
	for _, item := range a.GetDiagnostics().Failures() {
		a.Log.Warn("Startup check failed",
			logger.String("check", item.ID),
			logger.String("message", item.Message),
			logger.String("hint", item.Hint))
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and fills empty fields from defaults.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.ModelDir = strings.TrimSpace(settings.ModelDir)
	if settings.ModelDir == "" {
		settings.ModelDir = defaults.ModelDir
	}
	settings.ModelDir = filepath.Clean(settings.ModelDir)

	settings.FFmpegPath = strings.TrimSpace(settings.FFmpegPath)
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = defaults.FFmpegPath
	}
	settings.WhisperPath = strings.TrimSpace(settings.WhisperPath)
	if settings.WhisperPath == "" {
		settings.WhisperPath = defaults.WhisperPath
	}

	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	if _, err := logger.ParseLevel(settings.LogLevel); err != nil || settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
	settings.LogFormat = strings.ToLower(strings.TrimSpace(settings.LogFormat))
	if settings.LogFormat != "json" {
		settings.LogFormat = defaults.LogFormat
	}
	return settings
}
