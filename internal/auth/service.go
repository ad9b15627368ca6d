package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Service wraps authentication against the backend.
type Service struct {
	backend backend.Caller
	audit   shared.AuditSink
	logger  *slog.Logger
}

// NewService constructs a new Service.
func NewService(caller backend.Caller, audit shared.AuditSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: caller, audit: audit, logger: logger}
}

// Login checks credentials with the backend. A staff member asking for the
// admin portal must hold the admin level.
func (s *Service) Login(ctx context.Context, creds Credentials) (Identity, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	creds.Role = strings.ToLower(strings.TrimSpace(creds.Role))
	if err := shared.Validate(creds); err != nil {
		return Identity{}, err
	}

	ep, action := backend.Customer, "customerLogin"
	if creds.staff() {
		ep, action = backend.Admin, "login"
	}
	resp, err := s.backend.Call(ctx, ep, action, map[string]any{
		"username": creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("login: %w", err)
	}
	if err := resp.Check(); err != nil {
		return Identity{}, s.denied(creds, err)
	}
	rec, err := decodeLogin(resp)
	if err != nil || rec.id() == "" {
		return Identity{}, s.denied(creds, err)
	}

	role := shared.RoleCustomer
	if creds.staff() {
		role = rec.staffRole()
		if shared.Role(creds.Role) == shared.RoleAdmin && role != shared.RoleAdmin {
			return Identity{}, s.denied(creds, errors.New("not an admin account"))
		}
	}
	id := Identity{
		UserID:      rec.id(),
		Role:        role,
		Name:        rec.name(),
		TwoFactor:   bool(rec.TwoFactor),
		Permissions: rbac.PermissionsFor(role),
	}
	s.record(ctx, id.UserID, id.Role, "auth.login", nil)
	return id, nil
}

// SetTwoFactor stores the two-factor preference. It is only a flag: no
// second factor is challenged at login.
func (s *Service) SetTwoFactor(ctx context.Context, userID string, role shared.Role, enabled bool) error {
	ep, action, idField := backend.Customer, "updateCustomerTwoFactor", "customers_id"
	if role.Staff() {
		ep, action, idField = backend.Admin, "updateTwoFactor", "employee_id"
	}
	flag := 0
	if enabled {
		flag = 1
	}
	resp, err := s.backend.Call(ctx, ep, action, map[string]any{
		idField:              userID,
		"two_factor_enabled": flag,
	})
	if err != nil {
		return fmt.Errorf("two-factor setting: %w", err)
	}
	if err := resp.Check(); err != nil {
		return fmt.Errorf("two-factor setting: %w", err)
	}
	s.record(ctx, userID, role, "auth.two_factor", map[string]any{"enabled": enabled})
	return nil
}

// Logout records the sign-out.
func (s *Service) Logout(ctx context.Context, userID string, role shared.Role) {
	if userID == "" {
		return
	}
	s.record(ctx, userID, role, "auth.logout", nil)
}

func (s *Service) denied(creds Credentials, cause error) error {
	s.logger.Info("login denied", slog.String("role", creds.Role), slog.String("username", creds.Username), slog.Any("reason", cause))
	return shared.ErrInvalidCredentials
}

func (s *Service) record(ctx context.Context, userID string, role shared.Role, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: userID, Role: role, Action: action, Entity: "user", EntityID: userID, Meta: meta}); err != nil {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}

func decodeLogin(resp backend.Response) (loginRecord, error) {
	var env loginEnvelope
	if err := resp.DecodeObject(&env); err == nil && env.User != nil {
		return *env.User, nil
	}
	var rec loginRecord
	if err := resp.DecodeObject(&rec); err != nil {
		return loginRecord{}, err
	}
	return rec, nil
}
