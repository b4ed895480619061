package entity

import "time"

// Media describes an uploaded asset. ObjectKey is the reference carried in
// post.MediaRefs and in content.deleted events.
type Media struct {
	Id           string    `json:"id,omitempty"`
	AuthorId     string    `json:"authorId,omitempty"`
	ObjectKey    string    `json:"objectKey,omitempty"`
	OriginalName string    `json:"originalName,omitempty"`
	MimeType     string    `json:"mimeType,omitempty"`
	URL          string    `json:"url,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}
