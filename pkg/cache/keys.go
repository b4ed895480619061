package cache

import (
	"fmt"
	"time"
)

// Two key shapes exist: a singular-entity key and a parametrized
// collection key. Mutations delete the singular key plus every
// collection key, since any mutation can shift pagination of any listing.
const (
	itemPrefix  = "content"
	listPrefix  = "contents"
	listPattern = listPrefix + ":*"
)

// Cached values are non-authoritative; TTLs follow the original
// platform's choices: an hour for single items, minutes for listings.
const (
	ItemTTL = time.Hour
	ListTTL = 5 * time.Minute
)

func ItemKey(id string) string {
	return fmt.Sprintf("%s:%s", itemPrefix, id)
}

func ListKey(page, pageSize int) string {
	return fmt.Sprintf("%s:%d:%d", listPrefix, page, pageSize)
}
