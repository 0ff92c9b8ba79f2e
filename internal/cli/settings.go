package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/remind"
	"github.com/idilsaglam/journal/internal/store/jsonstore"
	"github.com/idilsaglam/journal/internal/tui"
	"github.com/idilsaglam/journal/internal/ui"
	"github.com/idilsaglam/journal/internal/watch"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showSettings()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showSettings()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <group.key>",
		Short: "Print one setting",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.cfg.Get(args[0])
			if err != nil {
				return &usageError{msg: err.Error(), hint: "keys: " + strings.Join(a.cfg.Keys(), ", ")}
			}
			fmt.Fprintln(a.out, v)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "set <group.key> <value>",
		Short:   "Change one setting",
		Example: "  journal settings set preferences.theme neon\n  journal settings set ai_settings.enabled true",
		Args:    usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Set(args[0], args[1]); err != nil {
				return &usageError{msg: err.Error(), hint: "run `journal settings show` for keys and current values"}
			}
			if err := a.cfg.Save(); err != nil {
				return err
			}
			a.logger.Info("setting changed", zap.String("key", args[0]))
			a.ok(fmt.Sprintf("%s updated", args[0]))
			return nil
		},
	})
	return cmd
}

func (a *app) showSettings() error {
	settings, err := a.cfg.Settings()
	if err != nil {
		return err
	}
	t := ui.Current()
	width := 0
	for _, s := range settings {
		width = max(width, len(s.Path))
	}
	lines := []string{ui.C(t.Title, "Settings") + ui.C(t.Muted, "  "+a.cfg.Path()), ""}
	group := ""
	for _, s := range settings {
		g, _, _ := strings.Cut(s.Path, ".")
		if g != group && group != "" {
			lines = append(lines, "")
		}
		group = g
		v := s.Value
		if v == "" {
			v = ui.C(t.Muted, `""`)
		}
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, s.Path, v))
	}
	if a.cfg.AI.Key() != "" && strings.TrimSpace(a.cfg.AI.APIKey) == "" {
		lines = append(lines, "", ui.C(t.Muted, "API key provided by the environment"))
	}
	ui.Panel(a.out, lines)
	return nil
}

func (a *app) remindCmd() *cobra.Command {
	var toggle bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Nudge when today's log is missing (add to your shell profile)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toggle {
				a.cfg.ToggleNotifications()
				if err := a.cfg.Save(); err != nil {
					return err
				}
				state := "off"
				if a.cfg.Preferences.NotificationsEnabled {
					state = "on"
				}
				a.ok("notifications " + state)
				return nil
			}
			logs, err := a.store.ListLogs(cmd.Context())
			if err != nil {
				return err
			}
			r, ok := remind.Check(a.now(), logs, a.cfg.Preferences)
			if !ok {
				return nil
			}
			msg := r.Message()
			if name := a.cfg.Preferences.Username; name != "" && name != "default_user" {
				msg = name + ": " + msg
			}
			fmt.Fprintln(a.out, ui.C(ui.Current().Pending, "• "+msg))
			return nil
		},
	}
	cmd.Flags().BoolVar(&toggle, "toggle", false, "turn notifications on or off")
	return cmd
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive browser (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd.Context())
		},
	}
}

func (a *app) browse(ctx context.Context) error {
	opts := tui.Options{
		Logger:       a.logger,
		Sort:         a.cfg.LogViewer.Sort,
		ShowTags:     a.cfg.LogViewer.ShowTags,
		PreviewWidth: a.cfg.LogViewer.PreviewWidth,
		Autosave:     time.Duration(a.cfg.LogEditor.AutosaveIntervalMinutes) * time.Minute,
		Splash:       ui.Splash(nil),
	}
	// Only the json backend has per-log files worth watching.
	if js, ok := a.store.(*jsonstore.Store); ok {
		w, err := watch.New(js.LogsDir(), watch.DefaultDebounce, a.logger)
		if err != nil {
			a.logger.Warn("live reload unavailable", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			a.logger.Warn("live reload unavailable", zap.Error(err))
			w.Stop()
		} else {
			defer w.Stop()
			opts.Changes = w.C
		}
	}
	if err := a.runTUI(ctx, a.store, opts); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
