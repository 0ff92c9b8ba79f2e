// Package store defines how journal logs, the tag vocabulary and sentiment
// analyses are persisted. Backends live in subpackages.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/idilsaglam/journal/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("reference matches more than one log")
)

// Store is implemented by jsonstore and sqlitestore.
type Store interface {
	// ListLogs returns every log, newest first.
	ListLogs(ctx context.Context) ([]*model.Log, error)
	GetLog(ctx context.Context, id string) (*model.Log, error)
	SaveLog(ctx context.Context, l *model.Log) error
	// DeleteLog removes the log and its stored analysis.
	DeleteLog(ctx context.Context, id string) error

	ListTags(ctx context.Context) (model.TagSet, error)
	SaveTags(ctx context.Context, tags model.TagSet) error

	SaveAnalysis(ctx context.Context, s model.Sentiment) error
	GetAnalysis(ctx context.Context, logID string) (model.Sentiment, error)

	Close() error
}

// Sort orders logs in place: "newest", "oldest" or "name".
func Sort(logs []*model.Log, order string) {
	switch order {
	case "oldest":
		sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })
	case "name":
		sort.SliceStable(logs, func(i, j int) bool {
			return strings.ToLower(logs[i].Name) < strings.ToLower(logs[j].Name)
		})
	default:
		sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	}
}

// Resolve finds one log by a 1-based index into logs, an exact id, a unique
// id prefix or a unique case-insensitive name.
func Resolve(logs []*model.Log, ref string) (*model.Log, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty reference: %w", ErrNotFound)
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(logs) {
			return nil, fmt.Errorf("index out of range: have %d, got %d: %w", len(logs), n, ErrNotFound)
		}
		return logs[n-1], nil
	}
	var byPrefix, byName []*model.Log
	for _, l := range logs {
		if l.ID == ref {
			return l, nil
		}
		if strings.HasPrefix(l.ID, ref) {
			byPrefix = append(byPrefix, l)
		}
		if strings.EqualFold(l.Name, ref) {
			byName = append(byName, l)
		}
	}
	for _, matches := range [][]*model.Log{byPrefix, byName} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return nil, fmt.Errorf("%q: %w", ref, ErrAmbiguous)
		}
	}
	return nil, fmt.Errorf("log %q: %w", ref, ErrNotFound)
}

// FilterByTag keeps logs carrying tag. An empty tag keeps everything.
func FilterByTag(logs []*model.Log, tag string) []*model.Log {
	if strings.TrimSpace(tag) == "" {
		return logs
	}
	var out []*model.Log
	for _, l := range logs {
		if l.HasTag(tag) {
			out = append(out, l)
		}
	}
	return out
}

// DeleteTag removes name from the vocabulary and from every log.
func DeleteTag(ctx context.Context, s Store, name string) error {
	tags, err := s.ListTags(ctx)
	if err != nil {
		return err
	}
	if err := tags.Remove(name); err != nil {
		return err
	}
	if err := s.SaveTags(ctx, tags); err != nil {
		return err
	}
	return eachLog(ctx, s, func(l *model.Log) bool { return l.RemoveTag(name) })
}

// UpdateTag replaces the vocabulary entry called name and renames it on
// every log that carries it.
func UpdateTag(ctx context.Context, s Store, name string, t model.Tag) error {
	tags, err := s.ListTags(ctx)
	if err != nil {
		return err
	}
	if err := tags.Update(name, t); err != nil {
		return err
	}
	if err := s.SaveTags(ctx, tags); err != nil {
		return err
	}
	if model.TagKey(name) == t.Key() && name == strings.TrimSpace(t.Name) {
		return nil
	}
	return eachLog(ctx, s, func(l *model.Log) bool { return l.RenameTag(name, strings.TrimSpace(t.Name)) })
}

func eachLog(ctx context.Context, s Store, fn func(*model.Log) bool) error {
	logs, err := s.ListLogs(ctx)
	if err != nil {
		return err
	}
	for _, l := range logs {
		if !fn(l) {
			continue
		}
		if err := s.SaveLog(ctx, l); err != nil {
			return fmt.Errorf("save %s: %w", l.ID, err)
		}
	}
	return nil
}
