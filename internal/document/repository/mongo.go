package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
)

// MongoStore implements Store on two collections: documents and versions.
type MongoStore struct {
	docs     *mongo.Collection
	versions *mongo.Collection
}

// NewMongoStore wires the collections and ensures the (docId, version)
// uniqueness index that keeps snapshot numbers from ever colliding.
func NewMongoStore(docs, versions *mongo.Collection) *MongoStore {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "docId", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = versions.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{docs: docs, versions: versions}
}

func (m *MongoStore) Create(ctx context.Context, d *document.Document) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Collaborators == nil {
		d.Collaborators = []document.Collaborator{}
	}
	if d.OnlineUsers == nil {
		d.OnlineUsers = []string{}
	}
	_, err := m.docs.InsertOne(ctx, d)
	return err
}

func (m *MongoStore) FindByID(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	if err := m.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoStore) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"collaborators.userId": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := m.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoStore) update(ctx context.Context, filter, update bson.M) error {
	res, err := m.docs.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) SetContent(ctx context.Context, id, content, data string) error {
	set := bson.M{"content": content, "data": data, "updatedAt": time.Now().UTC()}
	return m.update(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (m *MongoStore) Rename(ctx context.Context, id, title string) error {
	set := bson.M{"title": title, "updatedAt": time.Now().UTC()}
	return m.update(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AdvanceVersion is the CAS step of snapshotting: the filter pins the
// observed counter so a concurrent snapshot can never double-allocate a
// version number.
func (m *MongoStore) AdvanceVersion(ctx context.Context, id string, observed int64) error {
	filter := bson.M{"_id": id, "currentVersion": observed}
	update := bson.M{"$set": bson.M{"currentVersion": observed + 1, "updatedAt": time.Now().UTC()}}
	res, err := m.docs.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish a missing document from a lost race
		if _, ferr := m.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return ErrVersionConflict
	}
	return nil
}

func (m *MongoStore) AddCollaborator(ctx context.Context, id string, c document.Collaborator) error {
	// update in place when the user already has an entry
	res, err := m.docs.UpdateOne(ctx,
		bson.M{"_id": id, "collaborators.userId": c.UserID},
		bson.M{"$set": bson.M{"collaborators.$.permission": c.Permission, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	// otherwise append, guarding against a concurrent insert of the same user
	return m.update(ctx,
		bson.M{"_id": id, "collaborators.userId": bson.M{"$ne": c.UserID}},
		bson.M{"$push": bson.M{"collaborators": c}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
}

func (m *MongoStore) RemoveCollaborator(ctx context.Context, id, userID string) error {
	update := bson.M{
		"$pull": bson.M{"collaborators": bson.M{"userId": userID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return m.update(ctx, bson.M{"_id": id}, update)
}

func (m *MongoStore) AddOnlineUser(ctx context.Context, id, userID string) error {
	return m.update(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"onlineUsers": userID}})
}

func (m *MongoStore) RemoveOnlineUser(ctx context.Context, id, userID string) error {
	return m.update(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"onlineUsers": userID}})
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.docs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	// cascade: versions exist only while their document does
	_, err = m.versions.DeleteMany(ctx, bson.M{"docId": id})
	return err
}

func (m *MongoStore) InsertVersion(ctx context.Context, v *document.Version) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if _, err := m.versions.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateVersion
		}
		return err
	}
	return nil
}

func (m *MongoStore) GetVersion(ctx context.Context, docID string, n int64) (*document.Version, error) {
	var v document.Version
	if err := m.versions.FindOne(ctx, bson.M{"docId": docID, "version": n}).Decode(&v); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (m *MongoStore) ListVersions(ctx context.Context, docID string) ([]*document.Version, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})
	cur, err := m.versions.Find(ctx, bson.M{"docId": docID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Version{}
	for cur.Next(ctx) {
		var v document.Version
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
