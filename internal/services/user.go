package services

import (
	"context"
	"strings"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/obs"
	"github.com/diewo77/go-assets/internal/passwd"
	"github.com/diewo77/go-assets/internal/store"
	"github.com/diewo77/go-assets/validation"
)

// NewUser is the input for creating an account. Password is plain text.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func roleNames() []string {
	roles := models.Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

type UserService struct {
	users *store.UserStore
	authz Authorizer
}

func NewUserService(users *store.UserStore, authz Authorizer) *UserService {
	return &UserService{users: users, authz: authz}
}

// Login checks the credentials and returns the account. A wrong username
// or password yields apperr.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.Authenticate(ctx, strings.TrimSpace(username), password)
	if err != nil {
		obs.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if u == nil {
		obs.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, apperr.ErrInvalidCredentials
	}
	obs.LoginAttempts.WithLabelValues("success").Inc()
	return u, nil
}

// Add creates an account. Only administrators may add users.
func (s *UserService) Add(ctx context.Context, actor *models.User, in NewUser) (uint, error) {
	v := validation.Violations{}
	validation.Required("username", in.Username, v)
	validation.Required("password", in.Password, v)
	validation.MaxLen("password", in.Password, passwd.MaxLen, v)
	validation.Required("role", in.Role, v)
	validation.Required("full_name", in.FullName, v)
	validation.OneOf("role", in.Role, roleNames(), v)
	validation.MaxLen("username", in.Username, 100, v)
	if err := v.Err(); err != nil {
		return 0, err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionCreate, gate.ResourceUser, nil); err != nil {
		return 0, err
	}
	return s.users.Add(ctx, &models.User{
		Username: strings.TrimSpace(in.Username),
		Password: in.Password,
		Role:     models.Role(in.Role),
		Email:    in.Email,
		FullName: in.FullName,
	})
}

func (s *UserService) mustGet(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user", id)
	}
	return u, nil
}

// Update changes an account. Users may update their own profile;
// changing a role or setting another password takes an administrator.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, u store.UserUpdate) error {
	target, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionUpdate, gate.ResourceUser, target); err != nil {
		return err
	}

	v := validation.Violations{}
	if u.Username != nil {
		validation.Required("username", *u.Username, v)
		validation.MaxLen("username", *u.Username, 100, v)
	}
	if u.FullName != nil {
		validation.Required("full_name", *u.FullName, v)
	}
	if u.Password != nil {
		validation.Required("password", *u.Password, v)
		validation.MaxLen("password", *u.Password, passwd.MaxLen, v)
	}
	if u.Role != nil {
		validation.OneOf("role", string(*u.Role), roleNames(), v)
		validation.Required("role", string(*u.Role), v)
	}
	if err := v.Err(); err != nil {
		return err
	}

	if u.Role != nil && *u.Role != target.Role {
		if err := s.authz.Authorize(ctx, actor, gate.ActionAssign, gate.ResourceUser, target); err != nil {
			return denied("only administrators can change user roles")
		}
	}
	if u.Password != nil && !actor.IsAdmin() {
		return denied("use the change password operation to set your password")
	}

	if err := s.users.Update(ctx, id, u); err != nil {
		return err
	}
	if u.Role != nil {
		s.authz.InvalidateUser(id)
	}
	return nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uint) error {
	target, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionDelete, gate.ResourceUser, target); err != nil {
		return err
	}
	if actor.ID == id {
		return denied("you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.authz.InvalidateUser(id)
	return nil
}

// Get returns account id when the actor may see it.
func (s *UserService) Get(ctx context.Context, actor *models.User, id uint) (*models.User, error) {
	target, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionView, gate.ResourceUser, target); err != nil {
		return nil, err
	}
	return target, nil
}

// Current returns the account of userID without a permission check.
func (s *UserService) Current(ctx context.Context, userID uint) (*models.User, error) {
	return s.mustGet(ctx, userID)
}

// All lists every account.
func (s *UserService) All(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionList, gate.ResourceUser, nil); err != nil {
		return nil, err
	}
	return s.users.All(ctx)
}

// ChangePassword sets a new password on account id. Changing one's own
// password requires the current one; an administrator may reset anyone
// else's without it.
func (s *UserService) ChangePassword(ctx context.Context, actor *models.User, id uint, current, next string) error {
	target, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionUpdate, gate.ResourceUser, target); err != nil {
		return err
	}
	v := validation.Violations{}
	validation.Required("new_password", next, v)
	validation.MaxLen("new_password", next, passwd.MaxLen, v)
	if err := v.Err(); err != nil {
		return err
	}
	if actor.ID == id {
		ok, err := s.users.VerifyPassword(ctx, id, current)
		if err != nil {
			return err
		}
		if !ok {
			return &validation.Error{Fields: validation.Violations{"current_password": "incorrect"}}
		}
	}
	return s.users.Update(ctx, id, store.UserUpdate{Password: &next})
}

// CheckPermission reports whether user id holds one of roles.
func (s *UserService) CheckPermission(ctx context.Context, id uint, roles ...models.Role) bool {
	return s.users.CheckPermission(ctx, id, roles...)
}
