package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/chetan-code/concentraction/internal/models"
)

const usersCollection = "users"

type userDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Username   string             `bson:"username"`
	Password   string             `bson:"password"`
	Email      string             `bson:"email"`
	Tasks      []taskDoc          `bson:"tasks"`
	Objectives []objectiveDoc     `bson:"objectives"`
}

type taskDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Priority  string             `bson:"priority,omitempty"`
	Category  string             `bson:"category"`
	Status    string             `bson:"status"`
	StartDate *time.Time         `bson:"startDate,omitempty"`
	EndDate   *time.Time         `bson:"endDate,omitempty"`
	Desc      string             `bson:"desc,omitempty"`
}

type objectiveDoc struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Title  string             `bson:"title"`
	Status bool               `bson:"status"`
}

// MongoStore keeps each account as one document in the users collection with
// tasks and objectives embedded as arrays.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// OpenMongo connects, pings and ensures the unique indexes.
func OpenMongo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, unavailableError("connect mongo", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, unavailableError("ping mongo", err)
	}

	store := NewMongoStore(client, client.Database(database))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	slog.Info("mongo_connection_success", "database", database)
	return store, nil
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, users: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes on username, password and email.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("username"),
		unique("password"),
		unique("email"),
	})
	if err != nil {
		return mongoError("create indexes", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Account{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) FindOne(ctx context.Context, filter Filter) (models.Account, error) {
	if filter.Email == "" {
		return models.Account{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"email": filter.Email})
}

func (s *MongoStore) findOne(ctx context.Context, query bson.M) (models.Account, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, query).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, mongoError("find account", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Insert(ctx context.Context, account models.Account) (models.Account, error) {
	doc := userDoc{
		Username:   account.Username,
		Password:   account.PasswordHash,
		Email:      account.Email,
		Tasks:      []taskDoc{},
		Objectives: []objectiveDoc{},
	}
	for _, t := range account.Tasks {
		doc.Tasks = append(doc.Tasks, newTaskDoc(t))
	}
	for _, o := range account.Objectives {
		doc.Objectives = append(doc.Objectives, objectiveDoc{ID: primitive.NewObjectID(), Title: o.Title, Status: o.Status})
	}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return models.Account{}, mongoError("insert account", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.Account{}, fmt.Errorf("insert account: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toModel(), nil
}

func (s *MongoStore) PushTask(ctx context.Context, accountID string, task models.Task) (UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return UpdateResult{Acknowledged: true}, nil
	}
	doc := newTaskDoc(task)
	res, err := s.update(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"tasks": doc}})
	if err != nil {
		return UpdateResult{}, err
	}
	if res.ModifiedCount == 1 {
		res.InsertedID = doc.ID.Hex()
	}
	return res, nil
}

func (s *MongoStore) SetTaskFields(ctx context.Context, accountID, taskID string, fields TaskFields) (UpdateResult, error) {
	aid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return UpdateResult{Acknowledged: true}, nil
	}
	tid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return UpdateResult{Acknowledged: true}, nil
	}
	return s.update(ctx,
		bson.M{"_id": aid, "tasks._id": tid},
		bson.M{"$set": bson.M{
			"tasks.$.name":     fields.Name,
			"tasks.$.category": string(fields.Category),
			"tasks.$.status":   string(fields.Status),
		}},
	)
}

func (s *MongoStore) SetAccountFields(ctx context.Context, accountID string, fields AccountFields) (UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return UpdateResult{Acknowledged: true}, nil
	}
	set := bson.M{}
	if fields.Username != nil {
		set["username"] = *fields.Username
	}
	if fields.Email != nil {
		set["email"] = *fields.Email
	}
	if fields.PasswordHash != nil {
		set["password"] = *fields.PasswordHash
	}
	if len(set) == 0 {
		return UpdateResult{Acknowledged: true}, nil
	}
	return s.update(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
}

func (s *MongoStore) update(ctx context.Context, filter, update bson.M) (UpdateResult, error) {
	res, err := s.users.UpdateOne(ctx, filter, update)
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return UpdateResult{Acknowledged: false}, nil
	}
	if err != nil {
		return UpdateResult{}, mongoError("update account", err)
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// mongoError maps driver failures onto the store error taxonomy.
func mongoError(op string, err error) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return duplicateError(err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return unavailableError(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func newTaskDoc(t models.Task) taskDoc {
	return taskDoc{
		ID:        primitive.NewObjectID(),
		Name:      t.Name,
		Priority:  string(t.Priority),
		Category:  string(t.Category),
		Status:    string(t.Status),
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		Desc:      t.Desc,
	}
}

func (d userDoc) toModel() models.Account {
	acc := models.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		Email:        d.Email,
		Tasks:        make([]models.Task, 0, len(d.Tasks)),
		Objectives:   make([]models.Objective, 0, len(d.Objectives)),
	}
	for _, t := range d.Tasks {
		acc.Tasks = append(acc.Tasks, models.Task{
			ID:        t.ID.Hex(),
			Name:      t.Name,
			Priority:  models.Priority(t.Priority),
			Category:  models.Category(t.Category),
			Status:    models.Status(t.Status),
			StartDate: utcPtr(t.StartDate),
			EndDate:   utcPtr(t.EndDate),
			Desc:      t.Desc,
		})
	}
	for _, o := range d.Objectives {
		acc.Objectives = append(acc.Objectives, models.Objective{Title: o.Title, Status: o.Status})
	}
	return acc
}

// utcPtr normalizes decoded BSON dates, which come back in local time.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
