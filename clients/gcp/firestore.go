package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"styleSphere/docstore"
)

func CreateFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	slog.Info("Firestore client created", "projectID", projectID)
	return client, nil
}

// FirestoreStore implements docstore.Store on top of Cloud Firestore.
type FirestoreStore struct {
	db *firestore.Client
}

var _ docstore.Store = (*FirestoreStore)(nil)

func NewFirestoreStore(db *firestore.Client) *FirestoreStore {
	return &FirestoreStore{db: db}
}

func (s *FirestoreStore) Subscribe(ctx context.Context, q docstore.Query) (*docstore.Feed, error) {
	query := s.db.Collection(q.Path).Query
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}

	var iter *firestore.QuerySnapshotIterator
	next := func(ctx context.Context) (docstore.Snapshot, error) {
		if iter == nil {
			iter = query.Snapshots(ctx)
		}
		qs, err := iter.Next()
		if err != nil {
			return docstore.Snapshot{}, err
		}
		docs, err := qs.Documents.GetAll()
		if err != nil {
			return docstore.Snapshot{}, err
		}
		result := docstore.Snapshot{
			Docs:     make([]docstore.Document, 0, len(docs)),
			ReadTime: qs.ReadTime,
		}
		for _, doc := range docs {
			result.Docs = append(result.Docs, docstore.Document{ID: doc.Ref.ID, Data: doc.Data()})
		}
		return result, nil
	}
	cleanup := func() {
		if iter != nil {
			iter.Stop()
		}
	}
	return docstore.NewFeed(ctx, next, cleanup), nil
}

func (s *FirestoreStore) Get(ctx context.Context, path, id string) (*docstore.Document, error) {
	snap, err := s.db.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, docstore.ErrNotFound
		}
		return nil, err
	}
	return &docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Add(ctx context.Context, path string, fields map[string]any) (string, error) {
	ref, _, err := s.db.Collection(path).Add(ctx, toFirestore(fields))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, path, id string, fields map[string]any, merge bool) error {
	ref := s.db.Collection(path).Doc(id)
	var err error
	if merge {
		_, err = ref.Set(ctx, toFirestore(fields), firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, toFirestore(fields))
	}
	return err
}

func (s *FirestoreStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range toFirestore(fields) {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := s.db.Collection(path).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("update %s/%s: %w", path, id, docstore.ErrNotFound)
	}
	return err
}

func (s *FirestoreStore) Delete(ctx context.Context, path, id string) error {
	_, err := s.db.Collection(path).Doc(id).Delete(ctx)
	return err
}

func toFirestore(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if docstore.IsServerTimestamp(v) {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
