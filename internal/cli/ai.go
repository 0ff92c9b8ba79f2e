package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/assist"
	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/ui"
)

// assistant builds the AI client from settings.
func (a *app) assistant(ctx context.Context) (*assist.Assistant, error) {
	if !a.cfg.AI.Enabled {
		return nil, &usageError{
			msg:  "AI features are disabled",
			hint: "enable them with `journal settings set ai_settings.enabled true`",
		}
	}
	c, err := a.newCompleter(ctx, a.cfg.AI, a.logger)
	if errors.Is(err, assist.ErrNoAPIKey) {
		return nil, &usageError{
			msg:  err.Error(),
			hint: "set JOURNAL_OPENAI_API_KEY / JOURNAL_GEMINI_API_KEY or ai_settings.api_key",
		}
	}
	if err != nil {
		return nil, err
	}
	return assist.New(c, a.cfg.AI, a.logger), nil
}

// gateError turns a disabled feature into a usage error with the setting to flip.
func gateError(err error, setting string) error {
	if errors.Is(err, assist.ErrDisabled) {
		return &usageError{msg: err.Error(), hint: fmt.Sprintf("run `journal settings set ai_settings.%s true`", setting)}
	}
	return err
}

func (a *app) summarizeCmd() *cobra.Command {
	var (
		prompt string
		tag    string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "summarize [refs...]",
		Short: "Summarize logs with the AI assistant",
		Example: `  journal summarize 1
  journal summarize --tag work -p "What stressed me out this month?"
  journal summarize --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 && tag == "" && !all {
				return &usageError{msg: "summarize: nothing selected", hint: "pass log refs, --tag or --all"}
			}
			logs, err := a.listLogs(ctx)
			if err != nil {
				return err
			}
			var picked []*model.Log
			switch {
			case all:
				picked = unlocked(logs)
			case tag != "":
				picked = unlocked(store.FilterByTag(logs, tag))
			}
			for _, ref := range args {
				l, err := a.resolve(ctx, ref)
				if err != nil {
					return err
				}
				// Named logs are refused when locked; selections skip them.
				if err := requireUnlocked(l); err != nil {
					return err
				}
				picked = append(picked, l)
			}
			picked = unique(picked)
			if len(picked) == 0 {
				return usagef("summarize: %v", assist.ErrNoLogs)
			}
			as, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			out, err := as.Summarize(ctx, picked, prompt)
			if err != nil {
				return gateError(err, "content_summarization")
			}
			rendered, err := ui.Markdown(out, a.cfg.LogViewer.PreviewWidth+20)
			if err != nil {
				rendered = out + "\n"
			}
			fmt.Fprint(a.out, rendered)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&prompt, "prompt", "p", "", "what to ask about the logs")
	f.StringVar(&tag, "tag", "", "summarize every unlocked log carrying this tag")
	f.BoolVar(&all, "all", false, "summarize every unlocked log")
	return cmd
}

func unlocked(logs []*model.Log) []*model.Log {
	var out []*model.Log
	for _, l := range logs {
		if !l.Locked {
			out = append(out, l)
		}
	}
	return out
}

func unique(logs []*model.Log) []*model.Log {
	seen := map[string]bool{}
	out := logs[:0:0]
	for _, l := range logs {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

func (a *app) suggestTagsCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "suggest-tags <ref>",
		Short: "Ask the AI assistant which vocabulary tags fit a log",
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
			tags, err := a.store.ListTags(ctx)
			if err != nil {
				return err
			}
			if tags.Len() == 0 {
				return &usageError{msg: "the tag vocabulary is empty", hint: "add tags with `journal tags new <name> -d <description>`"}
			}
			as, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			names, err := as.RecommendTags(ctx, l, tags)
			if err != nil {
				return gateError(err, "tag_recommendations")
			}
			var fresh []string
			for _, n := range names {
				if !l.HasTag(n) {
					fresh = append(fresh, n)
				}
			}
			if len(fresh) == 0 {
				a.ok("no new tags suggested")
				return nil
			}
			t := ui.Current()
			fmt.Fprintln(a.out, ui.C(t.Accent, "#"+strings.Join(fresh, " #")))
			if !apply {
				fmt.Fprintln(a.out, ui.Dim("Tip: rerun with --apply to attach them"))
				return nil
			}
			l.AddTags(fresh...)
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("tagged %q", l.Name))
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "attach the suggested tags")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var all, force bool
	cmd := &cobra.Command{
		Use:   "analyze [ref]",
		Short: "Score the emotions in a log (or every log with --all)",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all == (len(args) == 1) {
				return &usageError{msg: "analyze: pass exactly one of <ref> or --all", hint: "run `journal analyze --help`"}
			}
			if all {
				return a.analyzeAll(ctx, force)
			}
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := requireUnlocked(l); err != nil {
				return err
			}
			as, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			s, err := as.AnalyzeSentiment(ctx, l)
			if err != nil {
				return gateError(err, "sentiment_analysis")
			}
			if err := a.store.SaveAnalysis(ctx, s); err != nil {
				return fmt.Errorf("save analysis: %w", err)
			}
			a.printMood(l, s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "analyze every unlocked log")
	cmd.Flags().BoolVar(&force, "force", false, "with --all, also redo analyses that are up to date")
	return cmd
}

func (a *app) analyzeAll(ctx context.Context, force bool) error {
	logs, err := a.listLogs(ctx)
	if err != nil {
		return err
	}
	var todo []*model.Log
	for _, l := range logs {
		if l.Locked {
			continue
		}
		if !force {
			if s, err := a.store.GetAnalysis(ctx, l.ID); err == nil && !s.Stale(l) {
				continue
			}
		}
		todo = append(todo, l)
	}
	if len(todo) == 0 {
		a.ok("every analysis is up to date")
		return nil
	}
	as, err := a.assistant(ctx)
	if err != nil {
		return err
	}
	results, err := as.AnalyzeAll(ctx, todo, a.cfg.AI.Workers)
	if err != nil {
		return gateError(err, "sentiment_analysis")
	}
	for _, l := range todo {
		s, ok := results[l.ID]
		if !ok {
			continue
		}
		if err := a.store.SaveAnalysis(ctx, s); err != nil {
			return fmt.Errorf("save analysis %s: %w", l.Name, err)
		}
	}
	a.logger.Info("analyzed logs", zap.Int("count", len(results)))
	a.ok(fmt.Sprintf("analyzed %d log(s)", len(results)))
	return nil
}

func (a *app) moodCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "mood <ref>",
		Short: "Show the stored emotion analysis of a log",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			s, err := a.store.GetAnalysis(ctx, l.ID)
			if errors.Is(err, store.ErrNotFound) {
				return &usageError{msg: fmt.Sprintf("%q has not been analyzed", l.Name), hint: "run `journal analyze " + args[0] + "`"}
			}
			if err != nil {
				return err
			}
			a.printMoodTop(l, s, top)
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "only the n strongest emotions")
	return cmd
}

func (a *app) printMood(l *model.Log, s model.Sentiment) { a.printMoodTop(l, s, 0) }

func (a *app) printMoodTop(l *model.Log, s model.Sentiment, top int) {
	t := ui.Current()
	lines := []string{ui.C(t.Title, "Mood of "+l.Name) + ui.C(t.Muted, fmt.Sprintf("  v%d · %s", s.Version, s.AnalyzedAt.Local().Format("2006-01-02 15:04"))), ""}
	if s.Stale(l) {
		lines = append(lines, ui.C(t.Pending, fmt.Sprintf("analysis is for v%d, log is at v%d", s.Version, l.Version)), "")
	}

	labels := s.Dominant(len(model.EmotionLabels))
	if top > 0 && top < len(labels) {
		labels = labels[:top]
	}
	if len(labels) == 0 {
		lines = append(lines, ui.C(t.Muted, "no emotion could be scored"))
	}
	width := 0
	for _, l := range labels {
		width = max(width, len(l))
	}
	for _, label := range labels {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, label, ui.C(t.Accent, bar(s.Score(label), 20))))
	}
	if top == 0 {
		var unknown []string
		for _, label := range model.EmotionLabels {
			if s.Score(label) == model.Undetermined {
				unknown = append(unknown, label)
			}
		}
		sort.Strings(unknown)
		if len(unknown) > 0 {
			lines = append(lines, "", ui.C(t.Muted, "undetermined: "+strings.Join(unknown, ", ")))
		}
	}
	if s.RiskToSelf || s.RiskToOthers {
		lines = append(lines, "", ui.C(t.Error, "This entry reads as distressing."))
		if s.RiskToSelf {
			lines = append(lines, ui.C(t.Error, fmt.Sprintf("risk to self: %.0f/10", s.RiskSeveritySelf)))
		}
		if s.RiskToOthers {
			lines = append(lines, ui.C(t.Error, fmt.Sprintf("risk to others: %.0f/10", s.RiskSeverityOthers)))
		}
		lines = append(lines, "If you are struggling, please reach out to someone you trust or a local crisis line.")
	}
	ui.Panel(a.out, lines)
}
