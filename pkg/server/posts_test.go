package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/driftline/driftline/pkg/cache"
	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/server"
	"github.com/driftline/driftline/pkg/service"
	"github.com/driftline/driftline/pkg/storage"
)

type stubStorage struct {
	mu    sync.Mutex
	posts map[string]entity.Post
}

func newStubStorage() *stubStorage {
	return &stubStorage{posts: make(map[string]entity.Post)}
}

func (s *stubStorage) Create(_ context.Context, post entity.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.Id] = post
	return nil
}

func (s *stubStorage) Get(_ context.Context, id string) (entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return entity.Post{}, storage.ErrNotFound
	}
	return post, nil
}

func (s *stubStorage) GetMultiple(_ context.Context, page, pageSize int) ([]entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]entity.Post, 0, len(s.posts))
	for _, post := range s.posts {
		all = append(all, post)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *stubStorage) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts), nil
}

func (s *stubStorage) Delete(_ context.Context, id, authorId string) (entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok || post.AuthorId != authorId {
		return entity.Post{}, storage.ErrNotFound
	}
	delete(s.posts, id)
	return post, nil
}

type passCache struct{}

func (passCache) GetOrLoad(ctx context.Context, _ string, _ time.Duration, loader cache.Loader) ([]byte, error) {
	return loader(ctx)
}

func (passCache) Invalidate(context.Context, string) error { return nil }

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, event.Event) error          { return nil }
func (stubPublisher) ResilientPublish(context.Context, event.Event) error { return nil }

func setUpPostServer(t *testing.T) (*httptest.Server, *stubStorage) {
	t.Helper()

	store := newStubStorage()
	posts := service.NewPosts(store, passCache{}, stubPublisher{}, logging.NullLogger{})
	handler := server.NewPostHandler(posts, logging.NullLogger{})

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, userId, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userId != "" {
		req.Header.Set("x-user-id", userId)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPostHandler_Create(t *testing.T) {
	t.Run("Test if anonymous request is rejected", func(t *testing.T) {
		srv, _ := setUpPostServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/", "", `{"body":"hello world"}`)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
		}
	})

	t.Run("Test if valid post is created for the authenticated user", func(t *testing.T) {
		srv, store := setUpPostServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/", "u1", `{"body":"hello world"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var body struct {
			Success bool   `json:"success"`
			PostId  string `json:"postId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !body.Success || body.PostId == "" {
			t.Fatalf("Response = %+v, want success with a post id", body)
		}

		post, err := store.Get(context.Background(), body.PostId)
		if err != nil {
			t.Fatalf("Created post not in storage: %v", err)
		}
		if post.AuthorId != "u1" {
			t.Errorf("AuthorId = %q, want the header identity", post.AuthorId)
		}
	})

	t.Run("Test if too-short body is a client error", func(t *testing.T) {
		srv, _ := setUpPostServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/", "u1", `{"body":"ab"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("Test if malformed JSON is a client error", func(t *testing.T) {
		srv, _ := setUpPostServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/", "u1", `{"body":`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})
}

func TestPostHandler_Get(t *testing.T) {
	t.Run("Test if existing post is returned", func(t *testing.T) {
		srv, store := setUpPostServer(t)
		store.Create(context.Background(), entity.Post{Id: "p1", AuthorId: "u1", Body: "hello world"})

		resp := doJSON(t, http.MethodGet, srv.URL+"/p1", "u1", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var post entity.Post
		if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if post.Id != "p1" {
			t.Errorf("Post id = %q, want p1", post.Id)
		}
	})

	t.Run("Test if missing post is not found", func(t *testing.T) {
		srv, _ := setUpPostServer(t)

		resp := doJSON(t, http.MethodGet, srv.URL+"/missing", "u1", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
	})
}

func TestPostHandler_List(t *testing.T) {
	srv, store := setUpPostServer(t)
	for _, id := range []string{"p1", "p2", "p3"} {
		store.Create(context.Background(), entity.Post{Id: id, AuthorId: "u1", Body: "hello world"})
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/?page=1&limit=2", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result service.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Posts) != 2 || result.TotalPosts != 3 || result.TotalPages != 2 {
		t.Errorf("ListResult = %+v, want 2 of 3 posts over 2 pages", result)
	}
}

func TestPostHandler_Delete(t *testing.T) {
	t.Run("Test if owner can delete their post", func(t *testing.T) {
		srv, store := setUpPostServer(t)
		store.Create(context.Background(), entity.Post{Id: "p1", AuthorId: "u1", Body: "hello world"})

		resp := doJSON(t, http.MethodDelete, srv.URL+"/p1", "u1", "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("Test if non-owner's delete is not found", func(t *testing.T) {
		srv, store := setUpPostServer(t)
		store.Create(context.Background(), entity.Post{Id: "p1", AuthorId: "u1", Body: "hello world"})

		resp := doJSON(t, http.MethodDelete, srv.URL+"/p1", "intruder", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}

		if _, err := store.Get(context.Background(), "p1"); err != nil {
			t.Errorf("Post removed by non-owner: %v", err)
		}
	})
}
