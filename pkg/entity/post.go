package entity

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Post is the authoring service's entity. It is owned exclusively by the
// primary store and mutated only through the post service's write API.
type Post struct {
	Id        string    `json:"id,omitempty"`
	AuthorId  string    `json:"authorId,omitempty"`
	Body      string    `json:"body,omitempty"`
	MediaRefs []string  `json:"mediaRefs,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

const (
	minBodyLen = 3
	maxBodyLen = 5000
)

var (
	ErrBodyTooShort = errors.New("post body is shorter than 3 characters")
	ErrBodyTooLong  = errors.New("post body is longer than 5000 characters")
	ErrNoAuthor     = errors.New("post has no author")
)

// Validate checks the write-API constraints on a post before it is persisted.
func (p Post) Validate() error {
	if strings.TrimSpace(p.AuthorId) == "" {
		return ErrNoAuthor
	}

	// Limits count characters, not bytes, so multibyte bodies are not
	// penalized.
	switch l := utf8.RuneCountInString(p.Body); {
	case l < minBodyLen:
		return ErrBodyTooShort
	case l > maxBodyLen:
		return ErrBodyTooLong
	}

	return nil
}
