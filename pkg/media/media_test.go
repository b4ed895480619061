package media_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/media"
)

func TestService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("Test if uploaded asset is stored under the author's prefix", func(t *testing.T) {
		objects := newFakeObjects()
		metadata := newFakeMetadata()
		svc := media.NewService(objects, metadata, logging.NullLogger{})

		got, err := svc.Upload(ctx, "u1", "cat.png", "image/png", strings.NewReader("bytes"))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		if !strings.HasPrefix(got.ObjectKey, "u1/") {
			t.Errorf("ObjectKey = %q, want author prefix u1/", got.ObjectKey)
		}
		if !strings.HasSuffix(got.ObjectKey, ".png") {
			t.Errorf("ObjectKey = %q, want original extension preserved", got.ObjectKey)
		}
		if got.URL == "" {
			t.Errorf("Upload() returned no URL")
		}
		if _, ok := metadata.records[got.ObjectKey]; !ok {
			t.Errorf("No metadata record for %q", got.ObjectKey)
		}
	})

	t.Run("Test if metadata failure removes the orphaned object", func(t *testing.T) {
		objects := newFakeObjects()
		metadata := newFakeMetadata()
		metadata.createErr = errors.New("constraint violation")
		svc := media.NewService(objects, metadata, logging.NullLogger{})

		_, err := svc.Upload(ctx, "u1", "cat.png", "image/png", strings.NewReader("bytes"))
		if !errors.Is(err, metadata.createErr) {
			t.Fatalf("Upload() error = %v, want %v", err, metadata.createErr)
		}

		if len(objects.objects) != 0 {
			t.Errorf("Objects left behind after metadata failure: %v", objects.objects)
		}
	})
}

func TestService_GetByAuthor(t *testing.T) {
	ctx := context.Background()

	objects := newFakeObjects()
	metadata := newFakeMetadata()
	svc := media.NewService(objects, metadata, logging.NullLogger{})

	if _, err := svc.Upload(ctx, "u1", "a.png", "image/png", strings.NewReader("a")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := svc.Upload(ctx, "u2", "b.png", "image/png", strings.NewReader("b")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	got, err := svc.GetByAuthor(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByAuthor() error = %v", err)
	}
	if len(got) != 1 || got[0].AuthorId != "u1" {
		t.Errorf("GetByAuthor() = %+v, want exactly u1's asset", got)
	}
}
