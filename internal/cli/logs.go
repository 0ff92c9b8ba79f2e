package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/ui"
	"github.com/idilsaglam/journal/internal/vault"
)

func (a *app) newCmd() *cobra.Command {
	var (
		desc, body, bodyFile string
		tags                 []string
	)
	cmd := &cobra.Command{
		Use:   "new <name...>",
		Short: "Write a new log (name can be multiple words)",
		Example: `  journal new "Monday" -d "first day back" -b "Went running."
  journal new Trip notes --body-file notes.md -t travel`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("body-file") {
				b, err := a.readBodyFile(bodyFile)
				if err != nil {
					return err
				}
				body = b
			}
			l, err := model.NewLog(strings.Join(args, " "), desc, body)
			if errors.Is(err, model.ErrEmptyName) {
				return usagef("new: empty name")
			}
			if err != nil {
				return err
			}
			if len(tags) > 0 {
				names, err := a.vocabulary(ctx, tags)
				if err != nil {
					return err
				}
				l.AddTags(names...)
			}
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.logger.Info("log created", zap.String("id", l.ID))
			a.ok(fmt.Sprintf("created %q (%s)", l.Name, shortID(l.ID)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&desc, "description", "d", "", "short description")
	f.StringVarP(&body, "body", "b", "", "markdown body")
	f.StringVar(&bodyFile, "body-file", "", "read the body from a file (- for stdin)")
	f.StringSliceVarP(&tags, "tag", "t", nil, "attach tags from the vocabulary")
	cmd.PreRunE = exclusiveFlags("body", "body-file")
	return cmd
}

func (a *app) readBodyFile(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(a.in)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

func (a *app) lsCmd() *cobra.Command {
	var (
		tag   string
		group bool
	)
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List logs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logs, err := a.listLogs(ctx)
			if err != nil {
				return err
			}
			tags, err := a.store.ListTags(ctx)
			if err != nil {
				return err
			}
			var lines []string
			lines = append(lines, headerLine(logs, tags.Len()))
			if done, total := checklistTotals(logs); total > 0 {
				lines = append(lines, ui.C(ui.Current().Muted, ui.ProgressBar(done, total, 28)+" tasks"))
			}
			lines = append(lines, "")
			idx := indexOf(logs)
			shown := store.FilterByTag(logs, tag)
			switch {
			case group:
				lines = append(lines, groupLines(shown, idx, a.cfg.LogViewer.ShowTags)...)
			default:
				lines = append(lines, flatLines(shown, idx, a.cfg.LogViewer.ShowTags)...)
			}
			lines = append(lines, "")
			lines = append(lines, ui.C(ui.Current().Muted, "Tip: read one with `journal show 1`"))
			ui.Panel(a.out, lines)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only logs carrying this tag")
	cmd.Flags().BoolVar(&group, "group", false, "group output by tag")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var (
		raw     bool
		version int
	)
	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Render a log (index, id prefix or name)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if l.Locked {
				pw, err := a.readPassword("Password: ", false)
				if err != nil {
					return err
				}
				if l, err = vault.Peek(l, pw); err != nil {
					return err
				}
			}
			name, desc, body := l.Name, l.Description, l.Body
			if cmd.Flags().Changed("version") {
				rev, err := l.Revision(version)
				if err != nil {
					return &usageError{msg: fmt.Sprintf("version %d: %v", version, err), hint: "run `journal history " + args[0] + "`"}
				}
				name, desc, body = rev.Name, rev.Description, rev.Body
			}
			if raw {
				fmt.Fprint(a.out, body)
				if !strings.HasSuffix(body, "\n") {
					fmt.Fprintln(a.out)
				}
				return nil
			}
			return a.renderLog(l, name, desc, body)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown body as is")
	cmd.Flags().IntVar(&version, "version", 0, "show an earlier version")
	a.passwordFlag(cmd)
	return cmd
}

func (a *app) renderLog(l *model.Log, name, desc, body string) error {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", name)
	if d := strings.TrimSpace(desc); d != "" {
		fmt.Fprintf(&md, "*%s*\n\n", d)
	}
	md.WriteString(body)
	out, err := ui.Markdown(md.String(), a.cfg.LogViewer.PreviewWidth+20)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, out)

	t := ui.Current()
	meta := []string{fmt.Sprintf("v%d · created %s · updated %s", l.Version,
		l.CreatedAt.Local().Format("2006-01-02 15:04"), l.UpdatedAt.Local().Format("2006-01-02 15:04"))}
	if len(l.Tags) > 0 {
		meta = append(meta, ui.C(t.Accent, "#"+strings.Join(l.Tags, " #")))
	}
	if l.Thumbnail != "" {
		meta = append(meta, "thumbnail: "+l.Thumbnail)
	}
	if done, total := ui.Checklist(body); total > 0 {
		meta = append(meta, ui.ProgressBar(done, total, 20)+fmt.Sprintf(" %d/%d tasks", done, total))
	}
	fmt.Fprintln(a.out)
	for _, m := range meta {
		fmt.Fprintln(a.out, ui.C(t.Muted, m))
	}
	return nil
}

func (a *app) editCmd() *cobra.Command {
	var (
		name, desc, body, bodyFile, thumb string
		noBump                            bool
	)
	cmd := &cobra.Command{
		Use:   "edit <ref>",
		Short: "Change a log; without field flags opens the body in your editor",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := requireUnlocked(l); err != nil {
				return err
			}
			f := cmd.Flags()
			var c model.Changes
			if f.Changed("name") {
				c.Name = &name
			}
			if f.Changed("description") {
				c.Description = &desc
			}
			if f.Changed("body") {
				c.Body = &body
			}
			if f.Changed("body-file") {
				b, err := a.readBodyFile(bodyFile)
				if err != nil {
					return err
				}
				c.Body = &b
			}
			if f.Changed("thumbnail") {
				c.Thumbnail = &thumb
			}
			if c == (model.Changes{}) {
				b, err := a.editInEditor(l.Body)
				if err != nil {
					return err
				}
				c.Body = &b
			}
			c.NoBump = noBump
			before := l.Thumbnail
			changed, err := l.Update(c)
			if errors.Is(err, model.ErrEmptyName) {
				return usagef("edit: empty name")
			}
			if err != nil {
				return err
			}
			if !changed && l.Thumbnail == before {
				a.ok("no changes")
				return nil
			}
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("updated %q (v%d)", l.Name, l.Version))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVarP(&desc, "description", "d", "", "new description")
	f.StringVarP(&body, "body", "b", "", "new markdown body")
	f.StringVar(&bodyFile, "body-file", "", "read the new body from a file (- for stdin)")
	f.StringVar(&thumb, "thumbnail", "", "thumbnail image path")
	f.BoolVar(&noBump, "no-bump", false, "save without creating a new version")
	cmd.PreRunE = exclusiveFlags("body", "body-file")
	return cmd
}

// editInEditor opens body in the configured editor and returns the result.
func (a *app) editInEditor(body string) (string, error) {
	f, err := os.CreateTemp("", "journal-*.md")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := a.editFile(a.editor(), path); err != nil {
		return "", fmt.Errorf("editor: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read temp file: %w", err)
	}
	return string(b), nil
}

func (a *app) editor() string {
	for _, e := range []string{a.cfg.LogEditor.Editor, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if e = strings.TrimSpace(e); e != "" {
			return e
		}
	}
	return "vi"
}

func runEditor(editor, path string) error {
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <ref>",
		Short: "List the versions of a log",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if l.Locked {
				pw, err := a.readPassword("Password: ", false)
				if err != nil {
					return err
				}
				if l, err = vault.Peek(l, pw); err != nil {
					return err
				}
			}
			t := ui.Current()
			lines := []string{ui.C(t.Title, l.Name) + ui.C(t.Muted, fmt.Sprintf("  current v%d", l.Version)), ""}
			for i, r := range l.Revisions {
				mark := " "
				if i == len(l.Revisions)-1 {
					mark = ui.C(t.Success, t.SymDone)
				}
				lines = append(lines, fmt.Sprintf("%s %s  %s  %s  %s",
					mark,
					ui.C(t.Accent, fmt.Sprintf("v%-3d", r.Version)),
					ui.C(t.Muted, r.Timestamp.Local().Format("2006-01-02 15:04")),
					r.Name,
					ui.C(t.Muted, fmt.Sprintf("%d chars", len([]rune(r.Body))))))
			}
			lines = append(lines, "", ui.C(t.Muted, "Tip: `journal show <ref> --version N`, `journal revert <ref> N`"))
			ui.Panel(a.out, lines)
			return nil
		},
	}
}

func (a *app) revertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <ref> <version>",
		Short: "Restore an earlier version (recorded as a new revision)",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return usagef("revert: not a number: %s", args[1])
			}
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := l.RevertTo(v); err != nil {
				if errors.Is(err, model.ErrVersionNotFound) {
					return &usageError{msg: fmt.Sprintf("revert: version %d not found", v), hint: "run `journal history " + args[0] + "`"}
				}
				return err
			}
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("reverted %q to v%d", l.Name, v))
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm <ref>",
		Short: "Delete a log",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if l.Locked && !yes {
				return &usageError{msg: fmt.Sprintf("%q is locked", l.Name), hint: "pass --yes to delete a locked log"}
			}
			if err := a.store.DeleteLog(ctx, l.ID); err != nil {
				return fmt.Errorf("remove: %w", err)
			}
			a.logger.Info("log deleted", zap.String("id", l.ID))
			a.ok(fmt.Sprintf("removed %q", l.Name))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete even when locked")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
