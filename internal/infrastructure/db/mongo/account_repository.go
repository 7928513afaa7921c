package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

const accountCollection = "accounts"

// MongoAccountRepository persists accounts in MongoDB. All reads and
// conditional writes are scoped to deleted_at == null, so soft-deleted
// records are invisible to normal operations and cannot be resurrected.
type MongoAccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{coll: db.Collection(accountCollection)}
}

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Phone        string             `bson:"phone,omitempty"`
	Address      string             `bson:"address,omitempty"`
	Image        string             `bson:"image,omitempty"`
	CompanyName  string             `bson:"company_name,omitempty"`
	GPSPosition  string             `bson:"gps_position,omitempty"`
	Zone         string             `bson:"zone,omitempty"`
	IsValid      bool               `bson:"is_valid"`
	CreatedBy    string             `bson:"created_by,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
	DeletedAt    *int64             `bson:"deleted_at"`
}

func toDoc(a *domain.Account) accountDoc {
	doc := accountDoc{
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		Phone:        a.Phone,
		Address:      a.Address,
		Image:        a.Image,
		CompanyName:  a.CompanyName,
		GPSPosition:  a.GPSPosition,
		Zone:         string(a.Zone),
		IsValid:      a.IsValid,
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt.Unix(),
		UpdatedAt:    a.UpdatedAt.Unix(),
	}
	if a.DeletedAt != nil {
		ts := a.DeletedAt.Unix()
		doc.DeletedAt = &ts
	}
	return doc
}

func (d accountDoc) toDomain() *domain.Account {
	acc := &domain.Account{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		Phone:        d.Phone,
		Address:      d.Address,
		Image:        d.Image,
		CompanyName:  d.CompanyName,
		GPSPosition:  d.GPSPosition,
		Zone:         domain.Region(d.Zone),
		IsValid:      d.IsValid,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
	if d.DeletedAt != nil {
		t := unixToTime(*d.DeletedAt)
		acc.DeletedAt = &t
	}
	return acc
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// notDeleted is the predicate applied to every read and conditional write.
func notDeleted() bson.M {
	return bson.M{"deleted_at": nil}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

// EnsureIndexes creates the partial unique index enforcing email uniqueness
// among non-deleted accounts only.
func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"deleted_at": bson.M{"$type": "null"}}),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoAccountRepository) Insert(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	doc := toDoc(acc)

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *acc
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := notDeleted()
	filter["_id"] = oid

	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	filter := notDeleted()
	filter["email"] = email

	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return doc.toDomain(), nil
}

func buildFilter(f ports.AccountFilter) bson.M {
	filter := notDeleted()
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Zone != "" {
		filter["zone"] = string(f.Zone)
	}
	if f.CreatedBy != "" {
		filter["created_by"] = f.CreatedBy
	}
	if f.OnlyValid {
		filter["is_valid"] = true
	}
	return filter
}

func (r *MongoAccountRepository) List(ctx context.Context, f ports.AccountFilter) ([]*domain.Account, error) {
	cursor, err := r.coll.Find(ctx, buildFilter(f), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []*domain.Account
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *MongoAccountRepository) Count(ctx context.Context, f ports.AccountFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// findOneAndUpdate runs a conditional match-and-set on {_id, not deleted}
// and returns the post-update document. A vanished or already-deleted target
// is ErrAccountNotFound.
func (r *MongoAccountRepository) findOneAndUpdate(ctx context.Context, id string, set bson.M) (*domain.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := notDeleted()
	filter["_id"] = oid

	var doc accountDoc
	err = r.coll.FindOneAndUpdate(
		ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoAccountRepository) Update(ctx context.Context, id string, patch ports.AccountPatch) (*domain.Account, error) {
	set := bson.M{"updated_at": time.Now().UTC().Unix()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.CompanyName != nil {
		set["company_name"] = *patch.CompanyName
	}
	if patch.GPSPosition != nil {
		set["gps_position"] = *patch.GPSPosition
	}
	return r.findOneAndUpdate(ctx, id, set)
}

func (r *MongoAccountRepository) SetValidity(ctx context.Context, id string, valid bool) (*domain.Account, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{
		"is_valid":   valid,
		"updated_at": time.Now().UTC().Unix(),
	})
}

func (r *MongoAccountRepository) SoftDelete(ctx context.Context, id string, at time.Time) (*domain.Account, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{
		"deleted_at": at.Unix(),
		"updated_at": at.Unix(),
	})
}
