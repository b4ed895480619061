package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftline/driftline/pkg/entity"
)

// Type doubles as the routing key on the shared topic exchange.
// Keys form a dot-separated <entity>.<action> taxonomy.
type Type string

const (
	ContentCreated Type = "content.created"
	ContentDeleted Type = "content.deleted"
)

// Event is sent to the broker as a flat, self-describing JSON snapshot.
// The routing key carries the type; Body is the payload on the wire.
// Events are immutable once published.
type Event struct {
	Type      Type      `json:"type,omitempty"`
	Body      []byte    `json:"body,omitempty"` // Payload marshaled to JSON.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ContentCreatedBody is the payload published under "content.created".
// It holds every field the derived stores need so consumers never have
// to query back to the source.
type ContentCreatedBody struct {
	ContentId string    `json:"contentId"`
	AuthorId  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentDeletedBody is the payload published under "content.deleted".
type ContentDeletedBody struct {
	ContentId string   `json:"contentId"`
	AuthorId  string   `json:"authorId"`
	MediaRefs []string `json:"mediaRefs"`
}

var (
	ErrUnknownType    = errors.New("unknown event type")
	ErrInvalidPayload = errors.New("invalid event payload")
)

func MakeContentCreated(post entity.Post) Event {
	body, err := json.Marshal(ContentCreatedBody{
		ContentId: post.Id,
		AuthorId:  post.AuthorId,
		Body:      post.Body,
		CreatedAt: post.CreatedAt,
	})
	if err != nil {
		panic(fmt.Sprintf("invalid JSON tags on ContentCreatedBody: %v", err))
	}

	return Event{
		Type:      ContentCreated,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func MakeContentDeleted(post entity.Post) Event {
	body, err := json.Marshal(ContentDeletedBody{
		ContentId: post.Id,
		AuthorId:  post.AuthorId,
		MediaRefs: post.MediaRefs,
	})
	if err != nil {
		panic(fmt.Sprintf("invalid JSON tags on ContentDeletedBody: %v", err))
	}

	return Event{
		Type:      ContentDeleted,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// Validate checks an inbound event against the schema registered for its
// routing key. It is called at the subscription boundary before dispatch;
// events failing it are dead-lettered rather than retried.
func Validate(e Event) error {
	switch e.Type {
	case ContentCreated:
		_, err := DecodeContentCreated(e)
		return err
	case ContentDeleted:
		_, err := DecodeContentDeleted(e)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
}

func DecodeContentCreated(e Event) (ContentCreatedBody, error) {
	if e.Type != ContentCreated {
		return ContentCreatedBody{}, fmt.Errorf("%w: want %q, got %q", ErrInvalidPayload, ContentCreated, e.Type)
	}

	var body ContentCreatedBody
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ContentCreatedBody{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if body.ContentId == "" {
		return ContentCreatedBody{}, fmt.Errorf("%w: missing contentId", ErrInvalidPayload)
	}

	return body, nil
}

func DecodeContentDeleted(e Event) (ContentDeletedBody, error) {
	if e.Type != ContentDeleted {
		return ContentDeletedBody{}, fmt.Errorf("%w: want %q, got %q", ErrInvalidPayload, ContentDeleted, e.Type)
	}

	var body ContentDeletedBody
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ContentDeletedBody{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if body.ContentId == "" {
		return ContentDeletedBody{}, fmt.Errorf("%w: missing contentId", ErrInvalidPayload)
	}

	return body, nil
}
