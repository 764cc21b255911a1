// Command trustmap shows a trust, entity and project structure as a
// zoomable map in the terminal, exports it as images, or serves it over
// HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/config"
	"github.com/vanderheijden86/trustmap/pkg/controller"
	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/loader"
	"github.com/vanderheijden86/trustmap/pkg/ui"
	"github.com/vanderheijden86/trustmap/pkg/version"
	"github.com/vanderheijden86/trustmap/pkg/watcher"
)

func main() {
	err := newRootCommand().Execute()
	debug.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	data     string
	config   string
	logLevel string
}

// app is what a subcommand needs after flags and config are resolved.
type app struct {
	cfg        config.Config
	configPath string
	dataPath   string // empty means the built-in demo
	src        datasource.Source
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "trustmap",
		Short: "Map trusts, the entities they hold and the projects those entities run",
		Long: `trustmap reads a structure of trusts, entities and projects from a YAML,
JSON or SQLite file and draws it as a map. Run without a subcommand in a
terminal to browse it interactively; piped, it prints an overview.

Without --data, trustmap looks for trustmap.yaml, trustmap.json or
trustmap.db in the current directory, then falls back to a demo structure.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, flags)
		},
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.data, "data", "d", "", "data file (.yaml, .json, .db); overrides config and discovery")
	pf.StringVar(&flags.config, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newExportCommand(flags),
		newServeCommand(flags),
		newEdgesCommand(flags),
		newCheckCommand(flags),
		newDiffCommand(flags),
		newInitCommand(flags),
		newVersionCommand(),
	)
	return root
}

// loadConfig reads --config or the XDG config file.
func (f *globalFlags) loadConfig() (config.Config, string, error) {
	path := f.config
	if path == "" {
		path = config.ConfigPath()
	}
	if path == "" {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.LoadFrom(path)
	return cfg, path, err
}

// setup loads config, starts the logger on logPath and resolves the data
// source.
func (f *globalFlags) setup(logPath string) (*app, error) {
	cfg, cfgPath, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	if err := debug.InitFile(level, logPath); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	explicit := f.data
	if explicit == "" {
		explicit = cfg.Data.Path
	}
	path, err := loader.ResolvePath(explicit, "")
	if err != nil {
		return nil, err
	}
	src, err := datasource.Open(path)
	if err != nil {
		return nil, err
	}
	debug.L().Debug("data source resolved",
		zap.String("source", src.Name()),
		zap.String("type", string(src.Type())),
		zap.String("config", cfgPath))
	return &app{cfg: cfg, configPath: cfgPath, dataPath: path, src: src}, nil
}

func (a *app) newStore(opts ...loader.StoreOption) *loader.Store {
	opts = append([]loader.StoreOption{loader.WithGraphOptions(graph.WithAnchors(a.cfg.Anchors()))}, opts...)
	return loader.NewStore(a.src, opts...)
}

// load builds a store and performs its first load.
func (a *app) load(ctx context.Context, opts ...loader.StoreOption) (*loader.Store, error) {
	store := a.newStore(opts...)
	if _, err := store.Reload(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// watch reloads store whenever the data file changes. The returned func
// stops watching; it is a no-op for the demo source or when watching is
// disabled.
func (a *app) watch(ctx context.Context, store *loader.Store) (func(), error) {
	if a.dataPath == "" || !a.cfg.Data.Watch {
		return func() {}, nil
	}
	w, err := watcher.New(a.dataPath,
		watcher.WithDebounce(a.cfg.Data.Debounce),
		watcher.WithOnError(func(err error) {
			debug.L().Warn("watcher error", zap.String("path", a.dataPath), zap.Error(err))
		}))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := w.Start(ctx); err != nil {
		cancel()
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Watch(ctx, w)
	}()
	return func() {
		cancel()
		w.Stop()
		<-done
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// logFile is where the TUI logs, so log lines never cover the screen.
func logFile() string {
	dir := config.StateDir()
	if dir == "" {
		return os.DevNull
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.DevNull
	}
	return filepath.Join(dir, "trustmap.log")
}

func runView(cmd *cobra.Command, flags *globalFlags) error {
	out := cmd.OutOrStdout()
	interactive := isTerminal(out)

	logPath := "stderr"
	if interactive {
		logPath = logFile()
	}
	a, err := flags.setup(logPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	feed := ui.NewSwapFeed()
	store, err := a.load(ctx, loader.WithOnSwap(feed.Publish))
	if err != nil {
		return err
	}
	defer store.Close()

	if !interactive {
		_, err := fmt.Fprint(out, ui.OverviewMarkdown(store.Graph(), a.src.Name()))
		return err
	}

	// the model starts from Current; drop the copy of the first load
	select {
	case <-feed:
	default:
	}

	stop, err := a.watch(ctx, store)
	if err != nil {
		debug.L().Warn("live reload disabled", zap.Error(err))
		stop = func() {}
	}
	defer stop()

	ctrl := controller.New(store.Graph(), a.cfg.ViewportConfig())
	m := ui.NewModel(ctrl, ui.Options{
		Store:      store,
		Feed:       feed,
		Theme:      a.cfg.UI.Theme,
		ShowDetail: a.cfg.UI.ShowDetail,
		Legend:     a.cfg.Render.Legend,
		Overview:   a.cfg.Render.Overview,
	})
	if err := runTUIProgram(m); err != nil {
		return fmt.Errorf("running trustmap: %w", err)
	}
	return nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TRUSTMAP_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TRUSTMAP_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
