package model

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

var (
	ErrVersionNotFound = errors.New("version not found")
	ErrLocked          = errors.New("log is locked")
	ErrEmptyName       = errors.New("log name cannot be empty")
)

// Revision is a snapshot of a log's content at one version.
type Revision struct {
	Version     int       `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
}

// Log is the domain model for a journal entry.
//
// When Locked is true, Description, Body, Thumbnail and Revisions are empty
// and their encrypted form lives in Sealed (see package vault).
type Log struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Body        string     `json:"body"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
	Revisions   []Revision `json:"revisions"`
	Locked      bool       `json:"locked,omitempty"`
	Sealed      string     `json:"sealed,omitempty"`
}

// Changes lists the fields an Update should touch. Nil means "leave as is".
type Changes struct {
	Name        *string
	Description *string
	Body        *string
	Thumbnail   *string
	NoBump      bool
}

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// NewLog builds a version-1 log with its initial revision.
func NewLog(name, description, body string) (*Log, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ts := now()
	l := &Log{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Body:        body,
		Tags:        []string{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Version:     1,
	}
	l.Revisions = []Revision{l.snapshot(ts)}
	return l, nil
}

func (l *Log) snapshot(ts time.Time) Revision {
	return Revision{
		Version:     l.Version,
		Timestamp:   ts,
		Name:        l.Name,
		Description: l.Description,
		Body:        l.Body,
	}
}

// Update applies c and reports whether any content field changed.
// Thumbnail changes are saved but never bump the version.
func (l *Log) Update(c Changes) (bool, error) {
	if l.Locked {
		return false, ErrLocked
	}
	changed := false
	if c.Name != nil && *c.Name != l.Name {
		name := strings.TrimSpace(*c.Name)
		if name == "" {
			return false, ErrEmptyName
		}
		if name != l.Name {
			l.Name = name
			changed = true
		}
	}
	if c.Description != nil && *c.Description != l.Description {
		l.Description = *c.Description
		changed = true
	}
	if c.Body != nil && *c.Body != l.Body {
		l.Body = *c.Body
		changed = true
	}
	if c.Thumbnail != nil && *c.Thumbnail != l.Thumbnail {
		l.Thumbnail = *c.Thumbnail
		l.UpdatedAt = now()
	}
	if changed {
		ts := now()
		l.UpdatedAt = ts
		if !c.NoBump {
			l.Version++
			l.Revisions = append(l.Revisions, l.snapshot(ts))
		}
	}
	return changed, nil
}

// Commit records the current content as a new version when it differs from
// the latest revision. Used after saves made with NoBump.
func (l *Log) Commit() bool {
	if l.Locked {
		return false
	}
	if rev, ok := l.LatestRevision(); ok &&
		rev.Name == l.Name && rev.Description == l.Description && rev.Body == l.Body {
		return false
	}
	ts := now()
	l.UpdatedAt = ts
	l.Version++
	l.Revisions = append(l.Revisions, l.snapshot(ts))
	return true
}

// RevertTo restores the content of the most recent revision carrying version
// and records the revert as a new revision with that same version number.
func (l *Log) RevertTo(version int) error {
	if l.Locked {
		return ErrLocked
	}
	for i := len(l.Revisions) - 1; i >= 0; i-- {
		rev := l.Revisions[i]
		if rev.Version != version {
			continue
		}
		ts := now()
		l.Name = rev.Name
		l.Description = rev.Description
		l.Body = rev.Body
		l.Version = rev.Version
		l.UpdatedAt = ts
		l.Revisions = append(l.Revisions, l.snapshot(ts))
		return nil
	}
	return ErrVersionNotFound
}

// LatestRevision returns the last recorded revision, or false for a log
// without history (locked logs).
func (l *Log) LatestRevision() (Revision, bool) {
	if len(l.Revisions) == 0 {
		return Revision{}, false
	}
	return l.Revisions[len(l.Revisions)-1], true
}

// Revision returns the most recent revision with the given version.
func (l *Log) Revision(version int) (Revision, error) {
	for i := len(l.Revisions) - 1; i >= 0; i-- {
		if l.Revisions[i].Version == version {
			return l.Revisions[i], nil
		}
	}
	return Revision{}, ErrVersionNotFound
}

// AddTags attaches names, ignoring case duplicates. The first spelling wins.
func (l *Log) AddTags(names ...string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || l.HasTag(n) {
			continue
		}
		l.Tags = append(l.Tags, n)
	}
	sortTags(l.Tags)
}

// RemoveTag detaches name and reports whether it was attached.
func (l *Log) RemoveTag(name string) bool {
	key := TagKey(name)
	for i, t := range l.Tags {
		if TagKey(t) == key {
			l.Tags = append(l.Tags[:i], l.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// RenameTag replaces old with name, keeping the tag list unique.
func (l *Log) RenameTag(old, name string) bool {
	if !l.RemoveTag(old) {
		return false
	}
	l.AddTags(name)
	return true
}

func (l *Log) HasTag(name string) bool {
	key := TagKey(name)
	for _, t := range l.Tags {
		if TagKey(t) == key {
			return true
		}
	}
	return false
}

// Summary is a one-line teaser for list views.
func (l *Log) Summary() string {
	if l.Locked {
		return "locked"
	}
	d := strings.TrimSpace(l.Description)
	if d == "" {
		d = firstLine(l.Body)
	}
	return runewidth.Truncate(d, 80, "…")
}

// Clone returns a deep copy.
func (l *Log) Clone() *Log {
	c := *l
	c.Tags = append([]string(nil), l.Tags...)
	c.Revisions = append([]Revision(nil), l.Revisions...)
	return &c
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimLeft(s, "# ")
}

func sortTags(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool { return TagKey(tags[i]) < TagKey(tags[j]) })
}
