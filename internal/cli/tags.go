package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/ui"
)

// vocabulary maps names to their vocabulary spelling. Unknown names are a
// usage error.
func (a *app) vocabulary(ctx context.Context, names []string) ([]string, error) {
	tags, err := a.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		t, ok := tags.Get(n)
		if !ok {
			return nil, &usageError{
				msg:  fmt.Sprintf("unknown tag %q", n),
				hint: fmt.Sprintf("create it with `journal tags new %s`", strings.TrimSpace(n)),
			}
		}
		out = append(out, t.Name)
	}
	return out, nil
}

func (a *app) tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Attach or detach tags on a log",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("usage: journal tag <add|rm> <ref> <tags...>")
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <ref> <tags...>",
		Short: "Attach vocabulary tags to a log",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			names, err := a.vocabulary(ctx, args[1:])
			if err != nil {
				return err
			}
			l.AddTags(names...)
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("%q tagged #%s", l.Name, strings.Join(l.Tags, " #")))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <ref> <tags...>",
		Short: "Detach tags from a log",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			removed := 0
			for _, n := range args[1:] {
				if l.RemoveTag(n) {
					removed++
				}
			}
			if removed == 0 {
				a.ok("no changes")
				return nil
			}
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("removed %d tag(s) from %q", removed, l.Name))
			return nil
		},
	})
	return cmd
}

func (a *app) tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage the tag vocabulary",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTags(cmd.Context())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List tags with their descriptions and usage",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTags(cmd.Context())
		},
	})

	var desc string
	newCmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Add a tag to the vocabulary",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tags, err := a.store.ListTags(ctx)
			if err != nil {
				return err
			}
			if err := tags.Add(model.Tag{Name: args[0], Description: desc}); err != nil {
				if errors.Is(err, model.ErrTagExists) || errors.Is(err, model.ErrEmptyTagName) {
					return usagef("tags new: %v", err)
				}
				return err
			}
			if err := a.store.SaveTags(ctx, tags); err != nil {
				return fmt.Errorf("save tags: %w", err)
			}
			a.ok(fmt.Sprintf("tag %q added", strings.TrimSpace(args[0])))
			return nil
		},
	}
	newCmd.Flags().StringVarP(&desc, "description", "d", "", "what the tag is for (used by tag suggestions)")
	cmd.AddCommand(newCmd)

	var rename, editDesc string
	editCmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Rename a tag or change its description (renames follow on every log)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tags, err := a.store.ListTags(ctx)
			if err != nil {
				return err
			}
			cur, ok := tags.Get(args[0])
			if !ok {
				return usagef("tags edit: %v: %s", model.ErrTagNotFound, args[0])
			}
			next := cur
			if cmd.Flags().Changed("name") {
				next.Name = rename
			}
			if cmd.Flags().Changed("description") {
				next.Description = editDesc
			}
			if next == cur {
				a.ok("no changes")
				return nil
			}
			if err := store.UpdateTag(ctx, a.store, cur.Name, next); err != nil {
				if errors.Is(err, model.ErrTagExists) || errors.Is(err, model.ErrEmptyTagName) {
					return usagef("tags edit: %v", err)
				}
				return err
			}
			a.ok(fmt.Sprintf("tag %q updated", strings.TrimSpace(next.Name)))
			return nil
		},
	}
	editCmd.Flags().StringVar(&rename, "name", "", "new name")
	editCmd.Flags().StringVarP(&editDesc, "description", "d", "", "new description")
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a tag from the vocabulary and from every log",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := store.DeleteTag(cmd.Context(), a.store, args[0])
			if errors.Is(err, model.ErrTagNotFound) {
				return usagef("tags rm: %v", err)
			}
			if err != nil {
				return err
			}
			a.ok(fmt.Sprintf("tag %q removed", args[0]))
			return nil
		},
	})
	return cmd
}

func (a *app) listTags(ctx context.Context) error {
	tags, err := a.store.ListTags(ctx)
	if err != nil {
		return err
	}
	logs, err := a.store.ListLogs(ctx)
	if err != nil {
		return err
	}
	t := ui.Current()
	lines := []string{ui.C(t.Title, "Tags") + ui.C(t.Muted, fmt.Sprintf("  %d", tags.Len())), ""}
	if tags.Len() == 0 {
		lines = append(lines, ui.C(t.Muted, "no tags"))
	}
	for _, tag := range tags.All() {
		n := len(store.FilterByTag(logs, tag.Name))
		line := fmt.Sprintf("%s %s", ui.C(t.Accent, "#"+tag.Name), ui.C(t.Muted, fmt.Sprintf("(%d)", n)))
		if tag.Description != "" {
			line += "  " + ui.Truncate(tag.Description, 60)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", ui.C(t.Muted, "Tip: `journal tags new work -d \"job, meetings, colleagues\"`"))
	ui.Panel(a.out, lines)
	return nil
}
