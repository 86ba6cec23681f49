package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// DocumentsCollection is the MongoDB collection documents are stored in,
// keyed by name.
const DocumentsCollection = "documents"

// MongoStore keeps documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(DocumentsCollection),
	}, nil
}

// Load reads the named document.
func (s *MongoStore) Load(ctx context.Context, name string) (*Document, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	doc := NewDocument(name)
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.New(errs.ErrCodeDocumentNotFound, "document %q not found", name)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "load document %q", name)
	}
	if doc.Pages == nil {
		doc.Pages = make(map[string]PageRecord)
	}
	return doc, nil
}

// Save upserts doc.
func (s *MongoStore) Save(ctx context.Context, doc *Document) error {
	if err := errs.ValidateDocumentName(doc.Name); err != nil {
		return err
	}
	if doc.Pages == nil {
		doc.Pages = make(map[string]PageRecord)
	}
	doc.UpdatedAt = time.Now().UTC()
	doc.Revision = uuid.NewString()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.Name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "save document %q", doc.Name)
	}
	return nil
}

// Delete removes the named document.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "delete document %q", name)
	}
	return nil
}

// List returns all document names, sorted.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list documents")
	}
	var rows []struct {
		Name string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode document names: %w", err)
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
