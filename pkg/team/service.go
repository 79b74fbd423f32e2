package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/logger"
)

// Limiter reports the team size allowed by a user's plan, owner included.
// A limit <= 0 is unlimited.
type Limiter interface {
	TeamLimit(ctx context.Context, userID string) (plan string, limit int, err error)
}

// Inviter delivers invite emails
type Inviter interface {
	SendTeamInvite(ctx context.Context, toEmail, inviterName, companyName, role string) error
}

// Workspace describes the inviting owner for the invite email
type Workspace interface {
	Names(ctx context.Context, userID string) (fullName, companyName string, err error)
}

// Service manages workspace members
type Service struct {
	repo      Repository
	limiter   Limiter
	inviter   Inviter
	workspace Workspace
	log       logger.Logger
	now       func() time.Time
}

// NewService creates a team service. limiter, inviter and workspace may be nil.
func NewService(repo Repository, limiter Limiter, inviter Inviter, workspace Workspace, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		limiter:   limiter,
		inviter:   inviter,
		workspace: workspace,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func self(owner Owner, at time.Time) Member {
	return Member{ID: owner.ID, Email: owner.Email, Name: SelfName, Role: RoleAdmin, Status: StatusActive, JoinedAt: at}
}

// List returns the owner followed by invited members. When the store cannot
// be read the owner alone is returned.
func (s *Service) List(ctx context.Context, owner Owner) []Member {
	members, err := s.repo.List(ctx, owner.ID)
	if err != nil {
		s.log.Warn("failed to load team, showing owner only", "user_id", owner.ID, "error", err)
		return []Member{self(owner, s.now())}
	}
	return append([]Member{self(owner, s.now())}, members...)
}

// Invite adds a Pending member and emails them
func (s *Service) Invite(ctx context.Context, owner Owner, req InviteRequest) (*Member, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if !req.Role.Valid() {
		return nil, domain.NewValidationError("role must be Admin, Agent or Viewer")
	}
	if strings.EqualFold(addr, owner.Email) {
		return nil, domain.NewValidationError("you are already the owner of this workspace")
	}

	if err := s.checkLimit(ctx, owner.ID); err != nil {
		return nil, err
	}

	m := &Member{
		ID:       uuid.NewString(),
		Email:    addr,
		Name:     strings.TrimSpace(req.Name),
		Role:     req.Role,
		Status:   StatusPending,
		JoinedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, owner.ID, m); err != nil {
		if errors.Is(err, ErrAlreadyInvited) {
			return nil, domain.NewConflictError(fmt.Sprintf("%s is already on the team", addr))
		}
		return nil, err
	}
	s.log.Info("team member invited", "user_id", owner.ID, "email", addr, "role", string(m.Role))

	s.sendInvite(ctx, owner, m)
	return m, nil
}

func (s *Service) checkLimit(ctx context.Context, ownerID string) error {
	if s.limiter == nil {
		return nil
	}
	plan, limit, err := s.limiter.TeamLimit(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to resolve plan: %w", err)
	}
	if limit <= 0 {
		return nil
	}
	n, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return err
	}
	if n+1 >= limit {
		return domain.NewPlanLimitError(plan, limit, "team members")
	}
	return nil
}

// sendInvite failures leave the member Pending; the owner can re-invite
func (s *Service) sendInvite(ctx context.Context, owner Owner, m *Member) {
	if s.inviter == nil {
		return
	}
	inviter, company := owner.Email, ""
	if s.workspace != nil {
		name, comp, err := s.workspace.Names(ctx, owner.ID)
		if err == nil {
			if name != "" {
				inviter = name
			}
			company = comp
		}
	}
	if err := s.inviter.SendTeamInvite(ctx, m.Email, inviter, company, string(m.Role)); err != nil {
		s.log.Warn("failed to send team invite", "user_id", owner.ID, "email", m.Email, "error", err)
	}
}

// Remove deletes a member. The owner cannot be removed.
func (s *Service) Remove(ctx context.Context, owner Owner, id string) error {
	if id == owner.ID {
		return domain.NewValidationError("the workspace owner cannot be removed")
	}
	err := s.repo.Delete(ctx, owner.ID, id)
	if errors.Is(err, ErrMemberNotFound) {
		return domain.NewNotFoundError("team member")
	}
	return err
}
