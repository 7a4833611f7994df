// Package mongo provides a MongoDB-backed conversation.Store. It is a
// drop-in replacement for the in-memory store: the correlation lookups are
// served by indexed fields on the conversation document, so the secondary
// indexes can never drift from the primary record.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultCollection = "conversations"

// Store implements conversation.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

var _ conversation.Store = (*Store)(nil)

// New returns a store writing to the "conversations" collection of db.
func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(defaultCollection)}
}

// Connect dials uri, pings the deployment, and returns a store on the named
// database along with the client so the caller controls disconnect.
func Connect(ctx context.Context, uri, database string) (*Store, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return New(client.Database(database)), client, nil
}

// EnsureIndexes creates the correlation and listing indexes. Call once at
// startup; index creation is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "call_sid", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "message_sid", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "channel", Value: 1}, {Key: "started_at", Value: -1}}},
	})
	return err
}

type document struct {
	ID         string                 `bson:"_id"`
	Channel    string                 `bson:"channel"`
	Status     string                 `bson:"status"`
	Messages   []conversation.Message `bson:"messages"`
	CallSID    string                 `bson:"call_sid,omitempty"`
	MessageSID string                 `bson:"message_sid,omitempty"`
	StartedAt  time.Time              `bson:"started_at"`
	Metadata   map[string]string      `bson:"metadata,omitempty"`
}

func toDocument(c conversation.Conversation) document {
	return document{
		ID:         c.ID,
		Channel:    string(c.Channel),
		Status:     string(c.Status),
		Messages:   c.Messages,
		CallSID:    c.CallSID,
		MessageSID: c.MessageSID,
		StartedAt:  c.StartedAt.UTC(),
		Metadata:   c.Metadata,
	}
}

func (d document) toConversation() conversation.Conversation {
	return conversation.Conversation{
		ID:         d.ID,
		Channel:    channel.Channel(d.Channel),
		Status:     conversation.Status(d.Status),
		Messages:   d.Messages,
		CallSID:    d.CallSID,
		MessageSID: d.MessageSID,
		StartedAt:  d.StartedAt,
		Metadata:   d.Metadata,
	}
}

func (s *Store) Save(ctx context.Context, conv conversation.Conversation) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": conv.ID},
		toDocument(conv),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (conversation.Conversation, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByCallID(ctx context.Context, callSID string) (conversation.Conversation, error) {
	return s.findOne(ctx, bson.M{"call_sid": callSID})
}

func (s *Store) GetByMessageID(ctx context.Context, messageSID string) (conversation.Conversation, error) {
	return s.findOne(ctx, bson.M{"message_sid": messageSID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (conversation.Conversation, error) {
	var doc document
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return conversation.Conversation{}, conversation.ErrNotFound
	}
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("find conversation: %w", err)
	}
	return doc.toConversation(), nil
}

func (s *Store) Update(ctx context.Context, id string, update conversation.Update) (conversation.Conversation, error) {
	set := bson.M{}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}
	if update.CallSID != nil {
		set["call_sid"] = *update.CallSID
	}
	if update.MessageSID != nil {
		set["message_sid"] = *update.MessageSID
	}
	for k, v := range update.Metadata {
		set["metadata."+k] = v
	}

	mods := bson.M{}
	if len(set) > 0 {
		mods["$set"] = set
	}
	if len(update.AppendMessages) > 0 {
		mods["$push"] = bson.M{"messages": bson.M{"$each": update.AppendMessages}}
	}
	if len(mods) == 0 {
		return s.Get(ctx, id)
	}

	var doc document
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		mods,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return conversation.Conversation{}, conversation.ErrNotFound
	}
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("update conversation %s: %w", id, err)
	}
	return doc.toConversation(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return conversation.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter conversation.Filter) ([]conversation.Conversation, error) {
	query := bson.M{}
	if filter.Channel != "" {
		query["channel"] = string(filter.Channel)
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	window := bson.M{}
	if !filter.StartedAfter.IsZero() {
		window["$gte"] = filter.StartedAfter.UTC()
	}
	if !filter.StartedBefore.IsZero() {
		window["$lte"] = filter.StartedBefore.UTC()
	}
	if len(window) > 0 {
		query["started_at"] = window
	}

	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}

	out := make([]conversation.Conversation, len(docs))
	for i, doc := range docs {
		out[i] = doc.toConversation()
	}
	return out, nil
}
