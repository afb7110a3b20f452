package services

import (
	"context"

	"github.com/diewo77/go-assets/internal/backup"
	"github.com/diewo77/go-assets/internal/models"
)

// RoleChecker reports whether a user currently holds one of roles.
type RoleChecker interface {
	CheckPermission(ctx context.Context, userID uint, roles ...models.Role) bool
}

// BackupService restricts the backup manager to administrators. The role
// is read from the database on every call. A nil manager means the
// database is not a sqlite file and every call is refused.
type BackupService struct {
	mgr   *backup.Manager
	roles RoleChecker
	authz Authorizer
}

func NewBackupService(mgr *backup.Manager, roles RoleChecker, authz Authorizer) *BackupService {
	return &BackupService{mgr: mgr, roles: roles, authz: authz}
}

func (s *BackupService) requireAdmin(ctx context.Context, actor *models.User, what string) error {
	if actor == nil || !s.roles.CheckPermission(ctx, actor.ID, models.RoleAdministrator) {
		return denied("you don't have permission to %s backups", what)
	}
	if s.mgr == nil {
		return invalid("backups require a file-backed sqlite database")
	}
	return nil
}

// Create takes a snapshot now.
func (s *BackupService) Create(ctx context.Context, actor *models.User) (*models.Backup, error) {
	if err := s.requireAdmin(ctx, actor, "create"); err != nil {
		return nil, err
	}
	return s.mgr.CreateBackup(ctx)
}

// List returns every recorded snapshot, newest first.
func (s *BackupService) List(ctx context.Context, actor *models.User) ([]models.Backup, error) {
	if err := s.requireAdmin(ctx, actor, "view"); err != nil {
		return nil, err
	}
	return s.mgr.ListBackups(ctx)
}

// Restore replaces the live database with snapshot id. Cached permission
// profiles are dropped since the users table may have changed.
func (s *BackupService) Restore(ctx context.Context, actor *models.User, id uint) error {
	if err := s.requireAdmin(ctx, actor, "restore"); err != nil {
		return err
	}
	if err := s.mgr.RestoreBackup(ctx, id); err != nil {
		return err
	}
	s.authz.InvalidateAll()
	return nil
}

// Cleanup runs the retention sweep and returns how many snapshots expired.
func (s *BackupService) Cleanup(ctx context.Context, actor *models.User) (int, error) {
	if err := s.requireAdmin(ctx, actor, "clean up"); err != nil {
		return 0, err
	}
	return s.mgr.CleanupOldBackups(ctx)
}
