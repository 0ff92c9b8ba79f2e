// Package cli wires the journal commands together. Each command opens the
// configured store, does one thing and reports with a one-line ✔/✖.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/assist"
	"github.com/idilsaglam/journal/internal/config"
	"github.com/idilsaglam/journal/internal/logging"
	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/store/jsonstore"
	"github.com/idilsaglam/journal/internal/store/sqlitestore"
	"github.com/idilsaglam/journal/internal/tui"
	"github.com/idilsaglam/journal/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks mistakes in how a command was called.
type usageError struct {
	msg  string
	hint string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app carries what every command needs. The function fields are swapped in
// tests.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	home          string
	verbose       bool
	forceColor    bool
	noColor       bool
	passwordStdin bool

	cfg    *config.Config
	logger *zap.Logger
	store  store.Store

	now          func() time.Time
	newCompleter func(ctx context.Context, cfg config.AI, logger *zap.Logger) (assist.Completer, error)
	runTUI       func(ctx context.Context, st store.Store, opts tui.Options) error
	editFile     func(editor, path string) error
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:           in,
		out:          out,
		errOut:       errOut,
		logger:       zap.NewNop(),
		now:          time.Now,
		newCompleter: assist.NewCompleter,
		runTUI:       tui.Run,
		editFile:     runEditor,
	}
}

// Run executes args against the real terminal and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(args []string) int {
	return newApp(os.Stdin, os.Stdout, os.Stderr).run(context.Background(), args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return ExitOK
	}
	ui.Fail(a.errOut, err.Error())
	if code := exitCode(err); code == ExitUsage {
		var ue *usageError
		if errors.As(err, &ue) && ue.hint != "" {
			fmt.Fprintln(a.errOut, ui.Dim("Hint: "+ue.hint))
		}
		return code
	}
	return ExitError
}

func exitCode(err error) int {
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
		a.store = nil
	}
	_ = a.logger.Sync()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "journal",
		Short: "A private journal for the terminal",
		Long: `journal keeps personal logs as markdown on your disk.

Logs have a name, a description and a body, carry tags from your own
vocabulary and keep every version. Any log can be locked with a password.
Optional AI features summarize logs, suggest tags and score the mood.

Run without arguments to open the interactive browser.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error(), hint: "run `journal --help`"}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.home, "home", "", "journal data directory (default $JOURNAL_HOME or ~/.journal)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to the application log")
	pf.BoolVar(&a.forceColor, "color", false, "force colored output")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.newCmd(), a.lsCmd(), a.showCmd(), a.editCmd(), a.historyCmd(),
		a.revertCmd(), a.rmCmd(),
		a.tagCmd(), a.tagsCmd(),
		a.lockCmd(), a.unlockCmd(),
		a.summarizeCmd(), a.suggestTagsCmd(), a.analyzeCmd(), a.moodCmd(),
		a.settingsCmd(), a.remindCmd(), a.browseCmd(),
	)
	return root
}

// usageArgs turns cobra's argument errors into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{msg: err.Error(), hint: fmt.Sprintf("run `%s --help`", cmd.CommandPath())}
		}
		return nil
	}
}

// exclusiveFlags rejects commands that set more than one of names.
func exclusiveFlags(names ...string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		var set []string
		for _, n := range names {
			if cmd.Flags().Changed(n) {
				set = append(set, "--"+n)
			}
		}
		if len(set) > 1 {
			return &usageError{
				msg:  fmt.Sprintf("%s cannot be combined", strings.Join(set, " and ")),
				hint: fmt.Sprintf("run `%s --help`", cmd.CommandPath()),
			}
		}
		return nil
	}
}

func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}
	home := a.home
	if home == "" {
		h, err := config.DefaultHome()
		if err != nil {
			return err
		}
		home = h
	}
	cfg, err := config.Load(home)
	if err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetColorForcing(a.forceColor, a.noColor)
	if err := ui.SetTheme(cfg.Preferences.Theme); err != nil {
		return err
	}

	logger, err := logging.New(cfg.AppLogDir(), a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	a.store = st
	return nil
}

// openStore opens the backend named by storage.driver.
func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlitestore.Open(cfg.Home, logger)
	case "json", "":
		return jsonstore.Open(cfg.Home, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// listLogs returns every log in the configured display order. Indexes shown
// by `ls` refer to this order.
func (a *app) listLogs(ctx context.Context) ([]*model.Log, error) {
	logs, err := a.store.ListLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	store.Sort(logs, a.cfg.LogViewer.Sort)
	return logs, nil
}

// resolve finds the log ref points to.
func (a *app) resolve(ctx context.Context, ref string) (*model.Log, error) {
	logs, err := a.listLogs(ctx)
	if err != nil {
		return nil, err
	}
	l, err := store.Resolve(logs, ref)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAmbiguous) {
		return nil, &usageError{msg: err.Error(), hint: "run `journal ls` to see valid indexes"}
	}
	return l, err
}

func (a *app) save(ctx context.Context, l *model.Log) error {
	if err := a.store.SaveLog(ctx, l); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (a *app) ok(msg string) { ui.OK(a.out, msg) }
