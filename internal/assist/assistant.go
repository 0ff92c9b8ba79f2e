package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/journal/internal/config"
	"github.com/idilsaglam/journal/internal/model"
)

// Assistant runs the AI features allowed by the settings.
type Assistant struct {
	llm    Completer
	cfg    config.AI
	logger *zap.Logger
	now    func() time.Time
}

func New(llm Completer, cfg config.AI, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		llm:    llm,
		cfg:    cfg,
		logger: logger.Named("assist"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Summarize returns a markdown summary of logs following instruction.
func (a *Assistant) Summarize(ctx context.Context, logs []*model.Log, instruction string) (string, error) {
	if !a.cfg.SummarizationEnabled() {
		return "", fmt.Errorf("content summarization: %w", ErrDisabled)
	}
	if len(logs) == 0 {
		return "", ErrNoLogs
	}
	for _, l := range logs {
		if l.Locked {
			return "", fmt.Errorf("%s: %w", l.Name, model.ErrLocked)
		}
	}
	a.logger.Info("summarizing", zap.Int("logs", len(logs)))
	return a.llm.Complete(ctx, Request{
		System: summarySystemPrompt,
		User:   summaryUserPrompt(logs, instruction),
	})
}

// RecommendTags asks the model which vocabulary tags fit l. Names the model
// invents are dropped and the vocabulary's spelling is returned.
func (a *Assistant) RecommendTags(ctx context.Context, l *model.Log, tags model.TagSet) ([]string, error) {
	if !a.cfg.TagsEnabled() {
		return nil, fmt.Errorf("tag recommendations: %w", ErrDisabled)
	}
	if l.Locked {
		return nil, model.ErrLocked
	}
	if tags.Len() == 0 {
		return nil, nil
	}
	reply, err := a.llm.Complete(ctx, Request{
		System: tagsSystemPrompt,
		User:   tagsUserPrompt(l, tags.All()),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	names, err := parseSelectedTags(reply)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := map[string]bool{}
	for _, n := range names {
		t, ok := tags.Get(n)
		if !ok {
			a.logger.Debug("model suggested unknown tag", zap.String("tag", n))
			continue
		}
		if seen[t.Key()] {
			continue
		}
		seen[t.Key()] = true
		out = append(out, t.Name)
	}
	return out, nil
}

func parseSelectedTags(reply string) ([]string, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(reply)), &data); err != nil {
		return nil, fmt.Errorf("%w: tag recommendations: %v", ErrBadResponse, err)
	}
	raw, ok := data["selected"]
	if !ok {
		return nil, nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: 'selected' must be a list", ErrBadResponse)
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("%w: each selected tag must be a string tag name", ErrBadResponse)
		}
		names = append(names, s)
	}
	return names, nil
}

// AnalyzeSentiment scores l's emotions. The caller decides where to store
// the result.
func (a *Assistant) AnalyzeSentiment(ctx context.Context, l *model.Log) (model.Sentiment, error) {
	if !a.cfg.SentimentEnabled() {
		return model.Sentiment{}, fmt.Errorf("sentiment analysis: %w", ErrDisabled)
	}
	if l.Locked {
		return model.Sentiment{}, model.ErrLocked
	}
	reply, err := a.llm.Complete(ctx, Request{
		System: sentimentSystemPrompt,
		User:   formatLog(l),
		JSON:   true,
	})
	if err != nil {
		return model.Sentiment{}, err
	}
	s, err := parseSentiment(reply)
	if err != nil {
		return model.Sentiment{}, err
	}
	s.LogID = l.ID
	s.Version = l.Version
	s.AnalyzedAt = a.now()
	return s, nil
}

func parseSentiment(reply string) (model.Sentiment, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(reply)), &data); err != nil {
		return model.Sentiment{}, fmt.Errorf("%w: sentiment analysis: %v", ErrBadResponse, err)
	}
	s := model.Sentiment{Emotions: make(map[string]float64, len(model.EmotionLabels))}
	for _, label := range model.EmotionLabels {
		v, ok := data[label]
		if !ok {
			s.Emotions[label] = model.Undetermined
			continue
		}
		f, ok := v.(float64)
		if !ok {
			return model.Sentiment{}, fmt.Errorf("%w: %s is not a number", ErrBadResponse, label)
		}
		s.Emotions[label] = f
	}

	var err error
	if s.RiskToSelf, err = boolField(data, "riskToSelf"); err != nil {
		return model.Sentiment{}, err
	}
	if s.RiskToOthers, err = boolField(data, "riskToOthers"); err != nil {
		return model.Sentiment{}, err
	}
	if s.RiskSeveritySelf, err = numberField(data, "riskSeveritySelf"); err != nil {
		return model.Sentiment{}, err
	}
	if s.RiskSeverityOthers, err = numberField(data, "riskSeverityOthers"); err != nil {
		return model.Sentiment{}, err
	}
	if err := s.Validate(); err != nil {
		return model.Sentiment{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return s, nil
}

func boolField(data map[string]any, key string) (bool, error) {
	v, ok := data[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is not a boolean", ErrBadResponse, key)
	}
	return b, nil
}

func numberField(data map[string]any, key string) (float64, error) {
	v, ok := data[key]
	if !ok {
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrBadResponse, key)
	}
	return f, nil
}

// AnalyzeAll scores every unlocked log with at most workers requests in
// flight. The first failure cancels the remaining work.
func (a *Assistant) AnalyzeAll(ctx context.Context, logs []*model.Log, workers int) (map[string]model.Sentiment, error) {
	if !a.cfg.SentimentEnabled() {
		return nil, fmt.Errorf("sentiment analysis: %w", ErrDisabled)
	}
	if workers < 1 {
		workers = 1
	}
	var (
		mu  sync.Mutex
		out = make(map[string]model.Sentiment, len(logs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, l := range logs {
		if l.Locked {
			a.logger.Debug("skipping locked log", zap.String("id", l.ID))
			continue
		}
		g.Go(func() error {
			s, err := a.AnalyzeSentiment(gctx, l)
			if err != nil {
				return fmt.Errorf("%s: %w", l.Name, err)
			}
			mu.Lock()
			out[l.ID] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
