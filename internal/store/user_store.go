package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/diewo77/go-assets/internal/db"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/passwd"
	"gorm.io/gorm"
)

// UserUpdate carries the fields to overwrite. Password is plain text and is
// hashed before it is stored.
type UserUpdate struct {
	Username *string
	Password *string
	Role     *models.Role
	Email    *string
	FullName *string
}

// UserStore reads and writes user accounts.
type UserStore struct {
	gw  *db.Gateway
	now Clock
}

// NewUserStore creates a user store over gw.
func NewUserStore(gw *db.Gateway) *UserStore {
	return &UserStore{gw: gw, now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *UserStore) WithClock(c Clock) *UserStore {
	s.now = c
	return s
}

// Authenticate returns the user when password matches, and records the
// login time. It returns (nil, nil) for an unknown user or a wrong password.
// Legacy digests are upgraded to bcrypt on a successful login.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil || u == nil {
		return nil, err
	}
	if !passwd.Verify(u.Password, password) {
		return nil, nil
	}

	now := s.now()
	values := map[string]any{"last_login": now}
	if passwd.NeedsRehash(u.Password) {
		if hash, err := passwd.Hash(password); err == nil {
			values["password"] = hash
			u.Password = hash
		} else {
			log.Printf("[Repo] rehash password for %s: %v", username, err)
		}
	}
	err = s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(values).Error
	})
	if err != nil {
		return nil, storageErr("record login", err)
	}
	u.LastLogin = &now
	return u, nil
}

// VerifyPassword reports whether password matches user id's current one.
// It does not touch last_login.
func (s *UserStore) VerifyPassword(ctx context.Context, id uint, password string) (bool, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil || u == nil {
		return false, err
	}
	return passwd.Verify(u.Password, password), nil
}

// Add hashes u.Password (plain text on input), inserts u and returns its id.
func (s *UserStore) Add(ctx context.Context, u *models.User) (uint, error) {
	hash, err := passwd.Hash(u.Password)
	if err != nil {
		return 0, storageErr("hash password", err)
	}
	err = s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
				return storageErr("add user", err)
			}
			if count > 0 {
				return duplicate("username", u.Username)
			}
			u.ID = 0
			u.Password = hash
			u.CreatedAt = s.now()
			u.LastLogin = nil
			if err := tx.Create(u).Error; err != nil {
				return writeErr("add user", "username", u.Username, err)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// Update overwrites the supplied fields of user id.
func (s *UserStore) Update(ctx context.Context, id uint, u UserUpdate) error {
	values := make(map[string]any)
	if u.Username != nil {
		values["username"] = *u.Username
	}
	if u.Role != nil {
		values["role"] = string(*u.Role)
	}
	if u.Email != nil {
		values["email"] = *u.Email
	}
	if u.FullName != nil {
		values["full_name"] = *u.FullName
	}
	if u.Password != nil {
		hash, err := passwd.Hash(*u.Password)
		if err != nil {
			return storageErr("hash password", err)
		}
		values["password"] = hash
	}

	return s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return storageErr("update user", err)
			}
			if count == 0 {
				return notFound("user", id)
			}
			if len(values) == 0 {
				return nil
			}
			if u.Username != nil {
				if err := tx.Model(&models.User{}).
					Where("username = ? AND id <> ?", *u.Username, id).
					Count(&count).Error; err != nil {
					return storageErr("update user", err)
				}
				if count > 0 {
					return duplicate("username", *u.Username)
				}
			}
			name := ""
			if u.Username != nil {
				name = *u.Username
			}
			if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(values).Error; err != nil {
				return writeErr("update user", "username", name, err)
			}
			return nil
		})
	})
}

// Delete removes user id.
func (s *UserStore) Delete(ctx context.Context, id uint) error {
	return s.gw.Do(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return storageErr("delete user", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("user", id)
		}
		return nil
	})
}

// GetByID returns user id, or nil when it does not exist.
func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.first(ctx, "get user", "id = ?", id)
}

// GetByUsername returns the named user, or nil.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.first(ctx, "get user by name", "username = ?", username)
}

func (s *UserStore) first(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Where(query, arg).First(&u).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &u, nil
}

// All returns every user ordered by username.
func (s *UserStore) All(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Order("username").Find(&users).Error
	})
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// CheckPermission reports whether user id holds one of roles. An unknown
// user or a lookup failure yields false.
func (s *UserStore) CheckPermission(ctx context.Context, id uint, roles ...models.Role) bool {
	u, err := s.GetByID(ctx, id)
	if err != nil || u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
