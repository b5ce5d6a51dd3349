package access

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func findIDOnly() *options.FindOneOptions {
	return options.FindOne().SetProjection(bson.M{"_id": 1})
}

// PresenceAudience resolves who should hear about a user's presence
// transitions: the contacts array on the user document.
func (s *Store) PresenceAudience(ctx context.Context, userID string) ([]string, error) {
	db, err := s.mgr.Database()
	if err != nil {
		return nil, errors.Wrap(err, "audience store")
	}

	var doc struct {
		Contacts []string `bson:"contacts"`
	}
	err = db.Collection("users").
		FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"contacts": 1})).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "audience lookup %s", userID)
	}
	return doc.Contacts, nil
}
