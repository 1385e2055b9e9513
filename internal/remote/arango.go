package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	errs "bloodlink/internal/errors"
)

// ArangoConfig holds remote store connection settings.
type ArangoConfig struct {
	URL      string
	User     string
	Pass     string
	Database string
}

// ArangoStore implements Store on top of an ArangoDB database, one document
// collection per entity type.
type ArangoStore struct {
	db          arangodb.Database
	collections map[string]arangodb.Collection
}

var _ Store = (*ArangoStore)(nil)

func httpConfiguration(endpoint connection.Endpoint, user, pass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(user, pass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:    100,
			IdleConnTimeout: 90 * time.Second,
		},
	}
}

// NewArangoStore connects with exponential backoff, then ensures the
// database and the three entity collections exist.
func NewArangoStore(ctx context.Context, cfg ArangoConfig, logger *zap.Logger) (*ArangoStore, error) {
	var client arangodb.Client

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute

	err := backoff.RetryNotify(func() error {
		endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
		conn := connection.NewHttpConnection(httpConfiguration(endpoint, cfg.User, cfg.Pass))
		client = arangodb.NewClient(conn)

		_, err := client.Version(ctx)
		return err
	}, bo, func(err error, _ time.Duration) {
		logger.Warn("retrying remote store connection", zap.Error(err))
	})
	if err != nil {
		return nil, fmt.Errorf("connect remote store: %w", err)
	}

	var db arangodb.Database
	exists, err := client.DatabaseExists(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("check database: %w", err)
	}
	if exists {
		if db, err = client.GetDatabase(ctx, cfg.Database, nil); err != nil {
			return nil, fmt.Errorf("get database: %w", err)
		}
	} else {
		if db, err = client.CreateDatabase(ctx, cfg.Database, nil); err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
	}

	collections := make(map[string]arangodb.Collection, len(Collections))
	for _, name := range Collections {
		var col arangodb.Collection
		colExists, err := db.CollectionExists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check collection %s: %w", name, err)
		}
		if colExists {
			if col, err = db.GetCollection(ctx, name, nil); err != nil {
				return nil, fmt.Errorf("get collection %s: %w", name, err)
			}
		} else {
			if col, err = db.CreateCollectionV2(ctx, name, nil); err != nil {
				return nil, fmt.Errorf("create collection %s: %w", name, err)
			}
		}
		collections[name] = col
	}

	return &ArangoStore{db: db, collections: collections}, nil
}

func (s *ArangoStore) collection(name string) (arangodb.Collection, error) {
	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	return col, nil
}

// Create writes a document under the given key. The key is the record's
// local id, so a re-upload after a crashed stamp replaces the same document
// instead of creating a second one.
func (s *ArangoStore) Create(ctx context.Context, collection, key string, doc interface{}) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	mode := arangodb.CollectionDocumentCreateOverwriteModeReplace
	_, err = col.CreateDocumentWithOptions(ctx, doc, &arangodb.CollectionDocumentCreateOptions{
		OverwriteMode: &mode,
	})
	if err != nil {
		return errs.NewRemoteError("create", collection, key, err)
	}
	return nil
}

// Update replaces the document stored under key.
func (s *ArangoStore) Update(ctx context.Context, collection, key string, doc interface{}) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	if _, err := col.ReplaceDocument(ctx, key, doc); err != nil {
		if shared.IsNotFound(err) {
			return errs.NewRemoteError("update", collection, key, errs.ErrRemoteNotFound)
		}
		return errs.NewRemoteError("update", collection, key, err)
	}
	return nil
}

// Delete removes the document stored under key. A missing document is not
// an error: the desired end state already holds.
func (s *ArangoStore) Delete(ctx context.Context, collection, key string) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	if _, err := col.DeleteDocument(ctx, key); err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return errs.NewRemoteError("delete", collection, key, err)
	}
	return nil
}

// Get reads the document stored under key into out.
func (s *ArangoStore) Get(ctx context.Context, collection, key string, out interface{}) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	if _, err := col.ReadDocument(ctx, key, out); err != nil {
		if shared.IsNotFound(err) {
			return errs.ErrRemoteNotFound
		}
		return errs.NewRemoteError("get", collection, key, err)
	}
	return nil
}

// List returns every document in the collection as raw JSON; the sync
// engine decodes each through the entity codec.
func (s *ArangoStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if _, err := s.collection(collection); err != nil {
		return nil, err
	}
	cursor, err := s.db.Query(ctx, "FOR d IN @@col RETURN d", &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"@col": collection},
	})
	if err != nil {
		return nil, errs.NewRemoteError("list", collection, "", err)
	}
	defer cursor.Close()

	var docs []json.RawMessage
	for cursor.HasMore() {
		var raw json.RawMessage
		if _, err := cursor.ReadDocument(ctx, &raw); err != nil {
			return nil, errs.NewRemoteError("list", collection, "", err)
		}
		docs = append(docs, raw)
	}
	return docs, nil
}
