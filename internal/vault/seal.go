package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idilsaglam/journal/internal/model"
)

var ErrNotLocked = errors.New("log is not locked")

// sealedContent is what a locked log hides.
type sealedContent struct {
	Description string           `json:"description"`
	Body        string           `json:"body"`
	Thumbnail   string           `json:"thumbnail,omitempty"`
	Revisions   []model.Revision `json:"revisions"`
}

// Seal encrypts l's private fields under password and clears them.
// Name, tags, timestamps and version stay readable for listing.
func Seal(l *model.Log, password string) error {
	if l.Locked {
		return model.ErrLocked
	}
	if password == "" {
		return errors.New("empty password")
	}
	payload, err := json.Marshal(sealedContent{
		Description: l.Description,
		Body:        l.Body,
		Thumbnail:   l.Thumbnail,
		Revisions:   l.Revisions,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	sealed, err := EncryptToBase64(password, payload)
	if err != nil {
		return err
	}
	l.Sealed = sealed
	l.Locked = true
	l.Description, l.Body, l.Thumbnail = "", "", ""
	l.Revisions = nil
	return nil
}

// Open restores a sealed log. A wrong password leaves l untouched.
func Open(l *model.Log, password string) error {
	if !l.Locked {
		return ErrNotLocked
	}
	plain, err := DecryptFromBase64(password, l.Sealed)
	if err != nil {
		return err
	}
	var c sealedContent
	if err := json.Unmarshal(plain, &c); err != nil {
		return fmt.Errorf("unmarshal sealed content: %w", err)
	}
	l.Description = c.Description
	l.Body = c.Body
	l.Thumbnail = c.Thumbnail
	l.Revisions = c.Revisions
	l.Sealed = ""
	l.Locked = false
	return nil
}

// Peek decrypts a copy of l, leaving the stored log locked.
func Peek(l *model.Log, password string) (*model.Log, error) {
	c := l.Clone()
	if err := Open(c, password); err != nil {
		return nil, err
	}
	return c, nil
}
