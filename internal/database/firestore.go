package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/mamiri/firedump/internal/config"
)

// Collection is the traversal's view of a Firestore collection.
type Collection interface {
	// ID returns the collection's ID (the last path segment).
	ID() string
	// Documents fetches the collection's documents in store order. A limit
	// of zero or less fetches everything. This is a single fetch per
	// collection, not pagination.
	Documents(ctx context.Context, limit int) ([]Document, error)
}

// Document is the traversal's view of a document snapshot.
type Document interface {
	ID() string
	Data() map[string]interface{}
	// Collections lists the document's immediate child collections in
	// store order.
	Collections(ctx context.Context) ([]Collection, error)
}

// Client wraps the Firestore connection for one dump run.
type Client struct {
	fs        *firestore.Client
	projectID string
}

// Connect builds the Firestore client from the loaded credentials. It is
// called exactly once by the entry point and the handle is passed down from
// there; there is no package-level connection state.
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, option.WithCredentialsJSON(cfg.KeyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &Client{fs: client, projectID: cfg.ProjectID}, nil
}

// ProjectID returns the project the client is connected to.
func (c *Client) ProjectID() string { return c.projectID }

// Close releases the underlying connection.
func (c *Client) Close() error { return c.fs.Close() }

// RootCollections lists the database's top-level collections.
func (c *Client) RootCollections(ctx context.Context) ([]Collection, error) {
	return collectRefs(c.fs.Collections(ctx))
}

type fsCollection struct {
	ref *firestore.CollectionRef
}

func (c fsCollection) ID() string { return c.ref.ID }

func (c fsCollection) Documents(ctx context.Context, limit int) ([]Document, error) {
	query := c.ref.Query
	if limit > 0 {
		query = c.ref.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, fsDocument{snap: snap})
	}
	return docs, nil
}

type fsDocument struct {
	snap *firestore.DocumentSnapshot
}

func (d fsDocument) ID() string { return d.snap.Ref.ID }

func (d fsDocument) Data() map[string]interface{} { return d.snap.Data() }

func (d fsDocument) Collections(ctx context.Context) ([]Collection, error) {
	return collectRefs(d.snap.Ref.Collections(ctx))
}

func collectRefs(iter *firestore.CollectionIterator) ([]Collection, error) {
	var cols []Collection
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		cols = append(cols, fsCollection{ref: ref})
	}
	return cols, nil
}
