package access

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"GateLink/service/mgo"
)

// Room types the authorization store knows about. Anything else is denied.
const (
	TypeSite       = "site"
	TypeDepartment = "department"
	TypeChat       = "chat"
)

// Store answers membership questions against the shared document store.
// It is consulted on every join; results are never cached here because
// membership can change between joins.
type Store struct {
	mgr *mgo.MongoManager
}

func NewStore(mgr *mgo.MongoManager) *Store {
	return &Store{mgr: mgr}
}

// HasAccess reports whether userID may join roomID of the given type.
// Unknown room types are a deny, not an error.
func (s *Store) HasAccess(ctx context.Context, userID, roomID, roomType string) (bool, error) {
	var coll, field string
	switch roomType {
	case TypeSite:
		coll, field = "sites", "members"
	case TypeDepartment:
		coll, field = "departments", "members"
	case TypeChat:
		coll, field = "chats", "participants"
	default:
		return false, nil
	}

	db, err := s.mgr.Database()
	if err != nil {
		return false, errors.Wrap(err, "access store")
	}

	filter := bson.M{"_id": roomID, field: userID}
	err = db.Collection(coll).FindOne(ctx, filter, findIDOnly()).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "access check %s/%s", coll, roomID)
	}
	return true, nil
}
