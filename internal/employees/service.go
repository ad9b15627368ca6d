package employees

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Service manages employees through the admin endpoint.
type Service struct {
	backend backend.Caller
	audit   shared.AuditSink
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(caller backend.Caller, audit shared.AuditSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: caller, audit: audit, logger: logger}
}

// List returns every employee ordered by name.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	resp, err := s.backend.Call(ctx, backend.Admin, "getEmployees", nil)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	var records []employeeRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]Employee, 0, len(records))
	for _, r := range records {
		out = append(out, r.employee())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FullName()) < strings.ToLower(out[j].FullName())
	})
	return out, nil
}

// Get returns one employee.
func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Employee{}, err
	}
	for _, e := range list {
		if e.ID == id {
			return e, nil
		}
	}
	return Employee{}, fmt.Errorf("employee %s: %w", id, shared.ErrNotFound)
}

// Create registers an employee.
func (s *Service) Create(ctx context.Context, actor string, input CreateInput) (Employee, error) {
	input.normalize()
	if err := shared.Validate(input); err != nil {
		return Employee{}, err
	}
	payload := input.payload()
	payload["employee_password"] = input.Password
	resp, err := s.backend.Call(ctx, backend.Admin, "addEmployee", payload)
	if err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	if err := resp.Check(); err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	var rec employeeRecord
	_ = resp.DecodeObject(&rec)
	created := Employee{
		ID:        rec.ID.String(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      shared.Role(input.Role),
		Active:    true,
	}
	s.record(ctx, actor, "employee.create", firstNonEmpty(created.ID, created.Username), map[string]any{"username": created.Username, "role": input.Role})
	return created, nil
}

// Update edits an employee's profile.
func (s *Service) Update(ctx context.Context, actor, id string, input UpdateInput) (Employee, error) {
	input.normalize()
	if err := shared.Validate(input); err != nil {
		return Employee{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	payload := input.payload()
	payload["employee_id"] = id
	if input.Password != "" {
		payload["employee_password"] = input.Password
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "updateEmployee", payload)
	if err != nil {
		return Employee{}, fmt.Errorf("update employee %s: %w", id, err)
	}
	if err := resp.Check(); err != nil {
		return Employee{}, fmt.Errorf("update employee %s: %w", id, err)
	}
	current.FirstName = input.FirstName
	current.LastName = input.LastName
	current.Username = input.Username
	current.Email = input.Email
	current.Phone = input.Phone
	current.Role = shared.Role(input.Role)
	s.record(ctx, actor, "employee.update", id, map[string]any{"role": input.Role, "password_changed": input.Password != ""})
	return current, nil
}

// SetActive enables or disables an employee. Staff cannot disable themselves.
func (s *Service) SetActive(ctx context.Context, actor, id string, active bool) (Employee, error) {
	if !active && actor != "" && actor == id {
		return Employee{}, fmt.Errorf("%w: cannot deactivate your own account", shared.ErrConflict)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	status := 0
	if active {
		status = 1
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "changeEmployeeStatus", map[string]any{
		"employee_id":     id,
		"employee_status": status,
	})
	if err != nil {
		return Employee{}, fmt.Errorf("employee %s status: %w", id, err)
	}
	if err := resp.Check(); err != nil {
		return Employee{}, fmt.Errorf("employee %s status: %w", id, err)
	}
	current.Active = active
	action := "employee.deactivate"
	if active {
		action = "employee.activate"
	}
	s.record(ctx, actor, action, id, nil)
	return current, nil
}

func (s *Service) record(ctx context.Context, actor, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_, role := shared.Actor(ctx)
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor, Role: role, Action: action, Entity: "employee", EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
