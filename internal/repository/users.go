package repository

import (
	"context"
	"time"

	"askyaguy/internal/domain"

	"gorm.io/gorm"
)

const userNotFound = "user not found"

// UserRepository stores accounts
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user; a taken email yields a CONFLICT error
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	defer observe("users.create", time.Now(), &err)
	return translate(r.db.WithContext(ctx).Create(u).Error, userNotFound)
}

// FindByID loads a user by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (u *domain.User, err error) {
	defer observe("users.find", time.Now(), &err)

	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, userNotFound)
	}
	return &user, nil
}

// FindByEmail loads a user by normalized email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	defer observe("users.find_email", time.Now(), &err)

	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate(err, userNotFound)
	}
	return &user, nil
}

// TouchLastLogin stamps a successful login
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) (err error) {
	defer observe("users.touch_login", time.Now(), &err)

	err = r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"last_login": at, "updated_at": at}).Error
	return translate(err, userNotFound)
}

// SetRole changes a user's role
func (r *UserRepository) SetRole(ctx context.Context, id string, role domain.Role) (err error) {
	defer observe("users.set_role", time.Now(), &err)

	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"role": string(role), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error, userNotFound)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, userNotFound)
	}
	return nil
}
