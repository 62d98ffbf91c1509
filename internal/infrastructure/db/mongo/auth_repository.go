package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

const authCollection = "auth_users"

type MongoAuthRepository struct {
	coll *mongo.Collection
}

func NewAuthRepository(db *mongo.Database) *MongoAuthRepository {
	return &MongoAuthRepository{coll: db.Collection(authCollection)}
}

type mongoTenantRef struct {
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	Subdomain string `bson:"subdomain"`
}

type mongoUserGroup struct {
	GroupID    string `bson:"groupId"`
	GroupName  string `bson:"groupName"`
	Role       string `bson:"role"`
	AssignedAt string `bson:"assignedAt,omitempty"`
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username"`
	FirstName    string             `bson:"firstName,omitempty"`
	LastName     string             `bson:"lastName,omitempty"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	Department   string             `bson:"department,omitempty"`
	TenantID     string             `bson:"tenantId,omitempty"`
	Tenant       *mongoTenantRef    `bson:"tenant,omitempty"`
	UserGroups   []mongoUserGroup   `bson:"userGroups,omitempty"`
	CreatedAt    int64              `bson:"createdAt"`
	UpdatedAt    int64              `bson:"updatedAt"`
}

func (r *MongoAuthRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *MongoAuthRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// EnsureIndexes creates the unique email index on the users collection.
func (r *MongoAuthRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Department:   u.Department,
		TenantID:     u.TenantID,
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
	if u.Tenant != nil {
		doc.Tenant = &mongoTenantRef{ID: u.Tenant.ID, Name: u.Tenant.Name, Subdomain: u.Tenant.Subdomain}
	}
	for _, g := range u.UserGroups {
		doc.UserGroups = append(doc.UserGroups, mongoUserGroup{
			GroupID:    g.GroupID,
			GroupName:  g.GroupName,
			Role:       g.Role,
			AssignedAt: g.AssignedAt,
		})
	}
	return doc
}

func (mu mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:           mu.ID.Hex(),
		Email:        mu.Email,
		Username:     mu.Username,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		PasswordHash: mu.PasswordHash,
		Role:         domain.Role(mu.Role),
		Department:   mu.Department,
		TenantID:     mu.TenantID,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
	if mu.Tenant != nil {
		u.Tenant = &domain.TenantRef{ID: mu.Tenant.ID, Name: mu.Tenant.Name, Subdomain: mu.Tenant.Subdomain}
	}
	for _, g := range mu.UserGroups {
		u.UserGroups = append(u.UserGroups, domain.UserGroup{
			GroupID:    g.GroupID,
			GroupName:  g.GroupName,
			Role:       g.Role,
			AssignedAt: g.AssignedAt,
		})
	}
	return u
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
