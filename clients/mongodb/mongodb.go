// Package mongodb implements the document store on MongoDB. A slash separated
// path maps to the collection named by its last segment, and every document
// carries its full path in "_path". Live watches need a replica set because
// they are built on change streams.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"styleSphere/docstore"
)

const (
	idField   = "_id"
	pathField = "_path"
)

// Connect opens a client and pings the deployment.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	slog.Info("Connected to MongoDB")
	return client, nil
}

type Store struct {
	db  *mongo.Database
	now func() time.Time
}

var _ docstore.Store = (*Store)(nil)

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) collection(p string) *mongo.Collection {
	return s.db.Collection(path.Base(p))
}

func scope(p, id string) bson.D {
	return bson.D{{Key: idField, Value: id}, {Key: pathField, Value: p}}
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query) (*docstore.Feed, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "fullDocument." + pathField, Value: q.Path}},
			bson.D{{Key: "operationType", Value: "delete"}},
		}}}}},
	}
	stream, err := s.collection(q.Path).Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", q.Path, err)
	}

	first := true
	next := func(ctx context.Context) (docstore.Snapshot, error) {
		if !first {
			if !stream.Next(ctx) {
				if err := stream.Err(); err != nil {
					return docstore.Snapshot{}, err
				}
				if ctx.Err() != nil {
					return docstore.Snapshot{}, ctx.Err()
				}
				return docstore.Snapshot{}, errors.New("change stream closed")
			}
		}
		first = false
		docs, err := s.find(ctx, q)
		if err != nil {
			return docstore.Snapshot{}, err
		}
		return docstore.Snapshot{Docs: docs, ReadTime: s.now()}, nil
	}
	cleanup := func() {
		if err := stream.Close(context.Background()); err != nil {
			slog.With("error", err.Error()).Warn("failed to close change stream", "path", q.Path)
		}
	}
	return docstore.NewFeed(ctx, next, cleanup), nil
}

func (s *Store) find(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	cursor, err := s.collection(q.Path).Find(ctx, bson.D{{Key: pathField, Value: q.Path}}, opts)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, toDocument(m))
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, p, id string) (*docstore.Document, error) {
	var m bson.M
	err := s.collection(p).FindOne(ctx, scope(p, id)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc := toDocument(m)
	return &doc, nil
}

func (s *Store) Add(ctx context.Context, p string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	doc := s.fieldsDoc(fields)
	doc[idField] = id
	doc[pathField] = p
	if _, err := s.collection(p).InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, p, id string, fields map[string]any, merge bool) error {
	doc := s.fieldsDoc(fields)
	doc[pathField] = p
	var err error
	if merge {
		_, err = s.collection(p).UpdateOne(ctx, scope(p, id), bson.M{"$set": doc}, options.Update().SetUpsert(true))
	} else {
		doc[idField] = id
		_, err = s.collection(p).ReplaceOne(ctx, scope(p, id), doc, options.Replace().SetUpsert(true))
	}
	return err
}

func (s *Store) Update(ctx context.Context, p, id string, fields map[string]any) error {
	res, err := s.collection(p).UpdateOne(ctx, scope(p, id), bson.M{"$set": s.fieldsDoc(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s/%s: %w", p, id, docstore.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, p, id string) error {
	_, err := s.collection(p).DeleteOne(ctx, scope(p, id))
	return err
}

func (s *Store) fieldsDoc(fields map[string]any) bson.M {
	doc := bson.M{}
	for k, v := range docstore.ResolveTimestamps(fields, s.now()) {
		doc[k] = v
	}
	return doc
}

func toDocument(m bson.M) docstore.Document {
	doc := docstore.Document{Data: map[string]any{}}
	for k, v := range m {
		switch k {
		case idField:
			doc.ID = fmt.Sprint(normalize(v))
		case pathField:
		default:
			doc.Data[k] = normalize(v)
		}
	}
	return doc
}

// normalize turns driver specific values into plain Go values.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalize(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalize(inner)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	}
	return v
}
