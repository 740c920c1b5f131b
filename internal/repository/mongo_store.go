package repository

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wastelink/internal/model"
)

// MongoStore implements DocumentStore on top of a MongoDB database.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	findOpts := options.Find()
	if q.Sort != nil {
		dir := 1
		if q.Sort.Desc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: q.Sort.Field, Value: dir}})
	}
	if q.Limit > 0 {
		findOpts.SetLimit(q.Limit)
	}

	cur, err := s.db.Collection(collection).Find(ctx, buildFilter(q.Predicates), findOpts)
	if err != nil {
		return nil, storeErr("query "+collection, err)
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, storeErr("decode "+collection, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (s *MongoStore) Watch(ctx context.Context, collection string, q Query, fn func([]Document)) (UnsubscribeFunc, error) {
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		if isPermissionDenied(err) {
			return nil, ErrPermissionDenied
		}
		return nil, storeErr("watch "+collection, err)
	}

	snapshot, err := s.Query(ctx, collection, q)
	if err != nil {
		_ = stream.Close(ctx)
		return nil, err
	}
	fn(snapshot)

	wctx, cancel := context.WithCancel(ctx)
	go func() {
		defer stream.Close(context.Background())
		for stream.Next(wctx) {
			// Any change event triggers a re-query so fn always sees a
			// consistent point-in-time snapshot of the matched query.
			docs, qerr := s.Query(wctx, collection, q)
			if qerr != nil {
				continue
			}
			fn(docs)
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

func (s *MongoStore) GetByID(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &model.NotFoundError{Collection: collection, ID: id}
	}
	if err != nil {
		return nil, storeErr("get "+collection, err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	payload := data.Clone()
	delete(payload, "id")

	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(payload))
	if err != nil {
		return "", storeErr("create "+collection, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	if sid, ok := res.InsertedID.(string); ok {
		return sid, nil
	}
	return "", storeErr("create "+collection, errors.New("unexpected inserted id type"))
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, data Document) error {
	payload := data.Clone()
	delete(payload, "id")

	res, err := s.db.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M(payload)})
	if err != nil {
		return storeErr("update "+collection, err)
	}
	if res.MatchedCount == 0 {
		return &model.NotFoundError{Collection: collection, ID: id}
	}
	return nil
}

func (s *MongoStore) BatchUpdate(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return storeErr("batch update", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, u := range updates {
			payload := u.Data.Clone()
			delete(payload, "id")
			res, uerr := s.db.Collection(u.Collection).UpdateOne(sc, idFilter(u.ID), bson.M{"$set": bson.M(payload)})
			if uerr != nil {
				return nil, uerr
			}
			if res.MatchedCount == 0 {
				return nil, &model.NotFoundError{Collection: u.Collection, ID: u.ID}
			}
		}
		return nil, nil
	})
	if err != nil {
		var nf *model.NotFoundError
		if errors.As(err, &nf) {
			return nf
		}
		return storeErr("batch update", err)
	}
	return nil
}

// --- helpers ---

func buildFilter(preds []Predicate) bson.M {
	filter := bson.M{}
	for _, p := range preds {
		switch p.Op {
		case "==", "":
			filter[p.Field] = p.Value
		case ">=":
			filter[p.Field] = mergeRange(filter[p.Field], "$gte", p.Value)
		case "<=":
			filter[p.Field] = mergeRange(filter[p.Field], "$lte", p.Value)
		case "in":
			filter[p.Field] = bson.M{"$in": p.Value}
		}
	}
	return filter
}

func mergeRange(existing any, op string, value any) bson.M {
	m, ok := existing.(bson.M)
	if !ok {
		m = bson.M{}
	}
	m[op] = value
	return m
}

// fromBSON flattens the driver id into a plain "id" field so callers never
// touch ObjectIDs directly.
func fromBSON(m bson.M) Document {
	doc := make(Document, len(m)+1)
	for k, v := range m {
		doc[k] = v
	}
	switch id := m["_id"].(type) {
	case primitive.ObjectID:
		doc["id"] = id.Hex()
	case string:
		doc["id"] = id
	}
	delete(doc, "_id")
	return doc
}

func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func isPermissionDenied(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == 13
}

func storeErr(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: err}
}
