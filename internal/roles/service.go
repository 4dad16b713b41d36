package roles

import (
	"context"
	"log/slog"
	"strings"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]access.Role, error)
	GetRole(ctx context.Context, id int64) (access.Role, error)
	CreateRole(ctx context.Context, in RoleInput) (access.Role, error)
	UpdateRole(ctx context.Context, id int64, in RoleInput) (access.Role, error)
	SetActive(ctx context.Context, id int64, active bool) (access.Role, error)
	DeleteRole(ctx context.Context, id int64) error
	RoleUsers(ctx context.Context, id int64) ([]access.User, error)
}

// AccessPort exposes the catalog and resolved grants.
type AccessPort interface {
	Catalog(ctx context.Context) ([]access.Permission, error)
	RoleSelection(ctx context.Context, roleID int64) (*access.Selection, error)
}

// AccessRefresher drops cached privileges after a role changes.
type AccessRefresher interface {
	RefreshRole(ctx context.Context, roleID int64) error
}

// Auditor records role changes.
type Auditor interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
}

// Service handles role business logic.
type Service struct {
	repo      RepositoryPort
	access    AccessPort
	refresher AccessRefresher
	auditor   Auditor
	logger    *slog.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithAuditor records every role change through a.
func WithAuditor(a Auditor) ServiceOption {
	return func(s *Service) { s.auditor = a }
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, access AccessPort, refresher AccessRefresher, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, access: access, refresher: refresher, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]access.Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, id int64) (access.Role, error) {
	return s.repo.GetRole(ctx, id)
}

// RolePermissions returns a role with its grants resolved against the
// catalog. Grants missing from the catalog are dropped.
func (s *Service) RolePermissions(ctx context.Context, id int64) (access.Role, *access.Selection, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return access.Role{}, nil, err
	}
	sel, err := s.access.RoleSelection(ctx, id)
	if err != nil {
		return access.Role{}, nil, err
	}
	role.PrivilegeIDs = sel.SelectedPrivilegeIDs()
	return role, sel, nil
}

// CreateRole validates and stores a new role.
func (s *Service) CreateRole(ctx context.Context, payload access.RolePayload) (access.Role, error) {
	in, err := s.reconcile(ctx, payload)
	if err != nil {
		return access.Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, in)
	if err != nil {
		return access.Role{}, err
	}
	s.log().Info("role created", slog.Int64("role_id", role.ID), slog.Int("privileges", len(in.PrivilegeIDs)))
	s.audit(ctx, shared.AuditRoleCreated, role.ID, map[string]any{"name": in.Name, "privileges": in.PrivilegeIDs})
	return role, nil
}

// UpdateRole validates and replaces a role and its grants.
func (s *Service) UpdateRole(ctx context.Context, id int64, payload access.RolePayload) (access.Role, error) {
	in, err := s.reconcile(ctx, payload)
	if err != nil {
		return access.Role{}, err
	}
	role, err := s.repo.UpdateRole(ctx, id, in)
	if err != nil {
		return access.Role{}, err
	}
	s.log().Info("role updated", slog.Int64("role_id", id), slog.Int("privileges", len(in.PrivilegeIDs)))
	s.audit(ctx, shared.AuditRoleUpdated, id, map[string]any{"name": in.Name, "active": in.Active, "privileges": in.PrivilegeIDs})
	s.refresh(ctx, id)
	return role, nil
}

// SetActive activates or deactivates a role.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (access.Role, error) {
	role, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return access.Role{}, err
	}
	s.log().Info("role state changed", slog.Int64("role_id", id), slog.Bool("active", active))
	action := shared.AuditRoleDeactivated
	if active {
		action = shared.AuditRoleActivated
	}
	s.audit(ctx, action, id, nil)
	s.refresh(ctx, id)
	return role, nil
}

// DeleteRole removes a role without users.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.log().Info("role deleted", slog.Int64("role_id", id))
	s.audit(ctx, shared.AuditRoleDeleted, id, nil)
	return nil
}

// RoleUsers lists the holders of an existing role.
func (s *Service) RoleUsers(ctx context.Context, id int64) ([]access.User, error) {
	if _, err := s.repo.GetRole(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.RoleUsers(ctx, id)
}

// reconcile checks a write against the catalog. Only privilege grants are
// stored; permisos must match the permissions owning them.
func (s *Service) reconcile(ctx context.Context, payload access.RolePayload) (RoleInput, error) {
	catalog, err := s.access.Catalog(ctx)
	if err != nil {
		return RoleInput{}, err
	}
	sel, err := access.ReconcilePayload(catalog, payload)
	if err != nil {
		return RoleInput{}, err
	}
	return RoleInput{
		Name:         strings.TrimSpace(payload.Nombre),
		Description:  strings.TrimSpace(payload.Descripcion),
		Active:       payload.Estado,
		PrivilegeIDs: sel.SelectedPrivilegeIDs(),
	}, nil
}

func (s *Service) refresh(ctx context.Context, roleID int64) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.RefreshRole(ctx, roleID); err != nil {
		s.log().Warn("refresh role access", slog.Int64("role_id", roleID), slog.Any("error", err))
	}
}

// audit failures never undo a committed change.
func (s *Service) audit(ctx context.Context, action string, roleID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	entry := shared.AuditEntry{Action: action, RoleID: roleID, Meta: meta}
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.log().Warn("record role audit", slog.String("action", action), slog.Int64("role_id", roleID), slog.Any("error", err))
	}
}

func (s *Service) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
