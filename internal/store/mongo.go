package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"userflow-backend/internal/models"
	"userflow-backend/internal/shared"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(dbName), nil
}

// MongoStore implements Store on a MongoDB collection with a unique email
// index. Duplicate-key errors on insert surface as shared.ErrConflict.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection("users"),
	}
}

// userDoc is the persisted shape. The store-assigned ObjectID maps to the
// canonical string ID on the way out.
type userDoc struct {
	ID           bson.ObjectID  `bson:"_id,omitempty"`
	Email        string         `bson:"email"`
	PasswordHash string         `bson:"password_hash"`
	Name         string         `bson:"name"`
	PhoneNumber  string         `bson:"phone_number,omitempty"`
	City         string         `bson:"city,omitempty"`
	Pincode      string         `bson:"pincode,omitempty"`
	PhotoURL     string         `bson:"photo_url,omitempty"`
	Provider     string         `bson:"provider"`
	Profile      models.Profile `bson:"profile"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

func (d userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		PhoneNumber:  d.PhoneNumber,
		City:         d.City,
		Pincode:      d.Pincode,
		PhotoURL:     d.PhotoURL,
		Provider:     d.Provider,
		Profile:      d.Profile,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *MongoStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		PhoneNumber:  user.PhoneNumber,
		City:         user.City,
		Pincode:      user.Pincode,
		PhotoURL:     user.PhotoURL,
		Provider:     user.Provider,
		Profile:      user.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, shared.ErrConflict
		}
		return nil, err
	}
	doc.ID = result.InsertedID.(bson.ObjectID)
	return doc.toModel(), nil
}

func (r *MongoStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	var doc userDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDoc
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.PhoneNumber != nil {
		set["phone_number"] = *patch.PhoneNumber
	}
	if patch.City != nil {
		set["city"] = *patch.City
	}
	if patch.Pincode != nil {
		set["pincode"] = *patch.Pincode
	}
	if patch.PhotoURL != nil {
		set["photo_url"] = *patch.PhotoURL
	}
	if patch.Profile != nil {
		if patch.Profile.Bio != nil {
			set["profile.bio"] = *patch.Profile.Bio
		}
		if patch.Profile.Avatar != nil {
			set["profile.avatar"] = *patch.Profile.Avatar
		}
	}

	var doc userDoc
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return shared.ErrNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *MongoStore) List(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, *doc.toModel())
	}
	return users, cursor.Err()
}

// EnsureIndexes creates the unique email index for the users collection.
func (r *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
