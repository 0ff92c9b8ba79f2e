package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTagName = errors.New("tag name cannot be empty")
	ErrTagExists    = errors.New("tag already exists")
	ErrTagNotFound  = errors.New("tag not found")
)

// Tag is one entry of the user's tag vocabulary.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewTag trims and validates a tag.
func NewTag(name, description string) (Tag, error) {
	t := Tag{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if t.Name == "" {
		return Tag{}, ErrEmptyTagName
	}
	return t, nil
}

// Key is the identity of the tag; names compare case-insensitively.
func (t Tag) Key() string { return TagKey(t.Name) }

func TagKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// TagSet is the ordered tag vocabulary. The zero value is ready to use.
type TagSet struct {
	tags []Tag
}

func NewTagSet(tags ...Tag) (TagSet, error) {
	var s TagSet
	for _, t := range tags {
		if err := s.Add(t); err != nil {
			return TagSet{}, err
		}
	}
	return s, nil
}

func (s *TagSet) index(name string) int {
	key := TagKey(name)
	for i, t := range s.tags {
		if t.Key() == key {
			return i
		}
	}
	return -1
}

func (s *TagSet) Add(t Tag) error {
	t, err := NewTag(t.Name, t.Description)
	if err != nil {
		return err
	}
	if s.index(t.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrTagExists, t.Name)
	}
	s.tags = append(s.tags, t)
	return nil
}

// Update replaces the tag called name with t. Renaming onto another
// existing tag is rejected.
func (s *TagSet) Update(name string, t Tag) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	t, err := NewTag(t.Name, t.Description)
	if err != nil {
		return err
	}
	if j := s.index(t.Name); j >= 0 && j != i {
		return fmt.Errorf("%w: %s", ErrTagExists, t.Name)
	}
	s.tags[i] = t
	return nil
}

func (s *TagSet) Remove(name string) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	s.tags = append(s.tags[:i], s.tags[i+1:]...)
	return nil
}

func (s TagSet) Get(name string) (Tag, bool) {
	if i := s.index(name); i >= 0 {
		return s.tags[i], true
	}
	return Tag{}, false
}

// All returns a copy of the vocabulary in insertion order.
func (s TagSet) All() []Tag {
	return append([]Tag(nil), s.tags...)
}

func (s TagSet) Len() int { return len(s.tags) }
