package entity_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/driftline/driftline/pkg/entity"
)

func TestPost_Validate(t *testing.T) {
	testCases := []struct {
		desc    string
		post    entity.Post
		wantErr error
	}{
		{
			desc: "Test if simple valid post passes",
			post: entity.Post{
				Id:       "b92cf2d8-9f13-4b9a-9ec1-5a7b0f0a0a01",
				AuthorId: "0e7b8f55-3b24-4a64-9571-8d7a917b1e7d",
				Body:     "hello world",
			},
			wantErr: nil,
		},
		{
			desc: "Test if body at minimum length passes",
			post: entity.Post{
				AuthorId: "author",
				Body:     "abc",
			},
			wantErr: nil,
		},
		{
			desc: "Test if body below minimum length is rejected",
			post: entity.Post{
				AuthorId: "author",
				Body:     "ab",
			},
			wantErr: entity.ErrBodyTooShort,
		},
		{
			desc: "Test if empty body is rejected",
			post: entity.Post{
				AuthorId: "author",
			},
			wantErr: entity.ErrBodyTooShort,
		},
		{
			desc: "Test if body at maximum length passes",
			post: entity.Post{
				AuthorId: "author",
				Body:     strings.Repeat("a", 5000),
			},
			wantErr: nil,
		},
		{
			desc: "Test if body above maximum length is rejected",
			post: entity.Post{
				AuthorId: "author",
				Body:     strings.Repeat("a", 5001),
			},
			wantErr: entity.ErrBodyTooLong,
		},
		{
			desc: "Test if multibyte body is measured in characters, not bytes",
			post: entity.Post{
				AuthorId: "author",
				Body:     "日本語",
			},
			wantErr: nil,
		},
		{
			desc: "Test if two multibyte characters are below the minimum",
			post: entity.Post{
				AuthorId: "author",
				Body:     "日本",
			},
			wantErr: entity.ErrBodyTooShort,
		},
		{
			desc: "Test if maximum-length multibyte body passes despite its byte size",
			post: entity.Post{
				AuthorId: "author",
				Body:     strings.Repeat("ß", 5000),
			},
			wantErr: nil,
		},
		{
			desc: "Test if missing author is rejected",
			post: entity.Post{
				Body: "hello world",
			},
			wantErr: entity.ErrNoAuthor,
		},
		{
			desc: "Test if whitespace-only author is rejected",
			post: entity.Post{
				AuthorId: "   ",
				Body:     "hello world",
			},
			wantErr: entity.ErrNoAuthor,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			err := tC.post.Validate()
			if !errors.Is(err, tC.wantErr) {
				t.Errorf("Post.Validate() error = %v, want %v", err, tC.wantErr)
			}
		})
	}
}
