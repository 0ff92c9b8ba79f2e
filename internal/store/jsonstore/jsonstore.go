package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
)

// JSON-backed storage. Human-readable and portable:
//
//	<home>/tags.json
//	<home>/logs/<id>.json
//	<home>/logs/<id>_analysis.json
//
// Writes go through a temp file and a rename so a crash never leaves a
// half-written log behind.

const (
	tagsFileName   = "tags.json"
	logsDirName    = "logs"
	analysisSuffix = "_analysis"
)

type Store struct {
	home   string
	logger *zap.Logger
	mu     sync.Mutex
}

var _ store.Store = (*Store)(nil)

// Open prepares home for use.
func Open(home string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{home: home, logger: logger.Named("jsonstore")}
	if err := os.MkdirAll(s.LogsDir(), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return s, nil
}

// LogsDir is the directory holding one file per log.
func (s *Store) LogsDir() string { return filepath.Join(s.home, logsDirName) }

func (s *Store) logPath(id string) string {
	return filepath.Join(s.LogsDir(), id+".json")
}

func (s *Store) analysisPath(id string) string {
	return filepath.Join(s.LogsDir(), id+analysisSuffix+".json")
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.ErrNotFound
		}
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("json unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context) ([]*model.Log, error) {
	entries, err := os.ReadDir(s.LogsDir())
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	logs := make([]*model.Log, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasSuffix(name, analysisSuffix+".json") {
			continue
		}
		var l model.Log
		if err := readJSON(filepath.Join(s.LogsDir(), name), &l); err != nil {
			// One bad file should not hide the rest of the journal.
			s.logger.Warn("skipping unreadable log", zap.String("file", name), zap.Error(err))
			continue
		}
		logs = append(logs, &l)
	}
	store.Sort(logs, "newest")
	return logs, nil
}

func (s *Store) GetLog(_ context.Context, id string) (*model.Log, error) {
	if !validID(id) {
		return nil, fmt.Errorf("log %q: %w", id, store.ErrNotFound)
	}
	var l model.Log
	if err := readJSON(s.logPath(id), &l); err != nil {
		return nil, fmt.Errorf("log %s: %w", id, err)
	}
	return &l, nil
}

func (s *Store) SaveLog(_ context.Context, l *model.Log) error {
	if !validID(l.ID) {
		return fmt.Errorf("invalid log id %q", l.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.logPath(l.ID), l); err != nil {
		return err
	}
	s.logger.Debug("saved log", zap.String("id", l.ID), zap.Int("version", l.Version))
	return nil
}

func (s *Store) DeleteLog(_ context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("log %q: %w", id, store.ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.logPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("log %s: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("remove: %w", err)
	}
	if err := os.Remove(s.analysisPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove analysis: %w", err)
	}
	s.logger.Debug("deleted log", zap.String("id", id))
	return nil
}

func (s *Store) ListTags(_ context.Context) (model.TagSet, error) {
	var tags []model.Tag
	err := readJSON(filepath.Join(s.home, tagsFileName), &tags)
	if errors.Is(err, store.ErrNotFound) {
		return model.TagSet{}, nil
	}
	if err != nil {
		return model.TagSet{}, err
	}
	return model.NewTagSet(tags...)
}

func (s *Store) SaveTags(_ context.Context, tags model.TagSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := tags.All()
	if all == nil {
		all = []model.Tag{}
	}
	return writeJSON(filepath.Join(s.home, tagsFileName), all)
}

func (s *Store) SaveAnalysis(_ context.Context, a model.Sentiment) error {
	if !validID(a.LogID) {
		return fmt.Errorf("invalid log id %q", a.LogID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.analysisPath(a.LogID), a)
}

func (s *Store) GetAnalysis(_ context.Context, logID string) (model.Sentiment, error) {
	if !validID(logID) {
		return model.Sentiment{}, fmt.Errorf("analysis %q: %w", logID, store.ErrNotFound)
	}
	var a model.Sentiment
	if err := readJSON(s.analysisPath(logID), &a); err != nil {
		return model.Sentiment{}, fmt.Errorf("analysis %s: %w", logID, err)
	}
	return a, nil
}

func (s *Store) Close() error { return nil }
