package remote

import (
	"context"
	"encoding/json"
)

// Collection names in the shared remote store.
const (
	CollectionUsers    = "users"
	CollectionRequests = "blood_requests"
	CollectionCenters  = "donation_centers"
)

// Collections lists every collection the sync engine reconciles.
var Collections = []string{CollectionUsers, CollectionRequests, CollectionCenters}

// Store is the thin collection/document abstraction over the shared remote
// database. It is eventually consistent and may be slow or unreachable;
// callers treat every error as retryable on the next sync pass.
type Store interface {
	Create(ctx context.Context, collection, key string, doc interface{}) error
	Update(ctx context.Context, collection, key string, doc interface{}) error
	Delete(ctx context.Context, collection, key string) error
	Get(ctx context.Context, collection, key string, out interface{}) error
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
}
