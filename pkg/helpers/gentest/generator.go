package gentest

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/event"
	"github.com/gofrs/uuid"
)

func RandomString(length int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	v := make([]rune, length)
	for i := range v {
		v[i] = letters[rand.Intn(len(letters))]
	}
	return string(v)
}

// RandomPost panics on hardware error.
// It should be used ONLY for testing.
func RandomPost() entity.Post {
	id := uuid.Must(uuid.NewV4())
	authorId := uuid.Must(uuid.NewV4())

	return entity.Post{
		Id:        id.String(),
		AuthorId:  authorId.String(),
		Body:      RandomString(20),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// RandomJSONPost returns a random post marshaled
// to JSON and panics on error.
// It should be used ONLY for testing.
func RandomJSONPost() []byte {
	post := RandomPost()
	json, err := json.Marshal(post)
	if err != nil {
		panic(err)
	}
	return json
}

// RandomContentCreated returns a content.created event
// for a random post. It should be used ONLY for testing.
func RandomContentCreated() event.Event {
	post := RandomPost()
	return event.MakeContentCreated(post)
}

// RandomContentDeleted returns a content.deleted event
// for a random post. It should be used ONLY for testing.
func RandomContentDeleted() event.Event {
	post := RandomPost()
	return event.MakeContentDeleted(post)
}
