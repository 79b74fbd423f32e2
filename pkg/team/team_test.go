package team

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/database/dbtest"
	"github.com/levrixhq/levrix/pkg/domain"
)

var owner = Owner{ID: "owner-1", Email: "maria@levrix.io"}

type fixedLimit struct {
	plan  string
	limit int
}

func (f fixedLimit) TeamLimit(ctx context.Context, userID string) (string, int, error) {
	return f.plan, f.limit, nil
}

type inviteRecorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *inviteRecorder) SendTeamInvite(ctx context.Context, toEmail, inviterName, companyName, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, toEmail+"|"+inviterName+"|"+companyName+"|"+role)
	return r.err
}

type workspaceNames struct{}

func (workspaceNames) Names(ctx context.Context, userID string) (string, string, error) {
	return "Maria Lopez", "Lopez Realty", nil
}

func newTestService(t *testing.T, limit Limiter, inv Inviter) *Service {
	t.Helper()
	db := dbtest.NewClient(t)
	dbtest.SeedUser(t, db, owner.ID, owner.Email)
	svc := NewService(NewSQLRepository(db), limit, inv, workspaceNames{}, nil)
	svc.SetClock(func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) })
	return svc
}

func TestList_SelfFirst(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Invite(ctx, owner, InviteRequest{Email: "Agent@Levrix.io", Name: "Sam", Role: RoleAgent})
	require.NoError(t, err)

	members := svc.List(ctx, owner)
	require.Len(t, members, 2)
	assert.Equal(t, Member{ID: owner.ID, Email: owner.Email, Name: SelfName, Role: RoleAdmin, Status: StatusActive,
		JoinedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}, members[0])
	assert.Equal(t, "agent@levrix.io", members[1].Email)
	assert.Equal(t, StatusPending, members[1].Status)
	assert.Equal(t, RoleAgent, members[1].Role)
}

type brokenRepo struct{ Repository }

func (brokenRepo) List(ctx context.Context, ownerID string) ([]Member, error) {
	return nil, errors.New("connection refused")
}

func TestList_FallsBackToSelf(t *testing.T) {
	svc := NewService(brokenRepo{}, nil, nil, nil, nil)

	members := svc.List(context.Background(), owner)
	require.Len(t, members, 1)
	assert.Equal(t, SelfName, members[0].Name)
}

func TestInvite_SendsEmail(t *testing.T) {
	inv := &inviteRecorder{}
	svc := newTestService(t, nil, inv)

	m, err := svc.Invite(context.Background(), owner, InviteRequest{Email: "viewer@levrix.io", Role: RoleViewer})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, []string{"viewer@levrix.io|Maria Lopez|Lopez Realty|Viewer"}, inv.calls)
}

func TestInvite_EmailFailureKeepsMember(t *testing.T) {
	svc := newTestService(t, nil, &inviteRecorder{err: errors.New("smtp down")})

	_, err := svc.Invite(context.Background(), owner, InviteRequest{Email: "x@levrix.io", Role: RoleAgent})
	require.NoError(t, err)
	assert.Len(t, svc.List(context.Background(), owner), 2)
}

func TestInvite_Validation(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  InviteRequest
	}{
		{"missing email", InviteRequest{Role: RoleAgent}},
		{"bad role", InviteRequest{Email: "a@levrix.io", Role: "Owner"}},
		{"self", InviteRequest{Email: "MARIA@levrix.io", Role: RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Invite(ctx, owner, tt.req)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestInvite_Duplicate(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Invite(ctx, owner, InviteRequest{Email: "dup@levrix.io", Role: RoleAgent})
	require.NoError(t, err)
	_, err = svc.Invite(ctx, owner, InviteRequest{Email: "DUP@levrix.io", Role: RoleViewer})
	assert.True(t, domain.IsConflict(err))
}

func TestInvite_PlanLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("starter allows only the owner", func(t *testing.T) {
		svc := newTestService(t, fixedLimit{"Starter", 1}, nil)
		_, err := svc.Invite(ctx, owner, InviteRequest{Email: "a@levrix.io", Role: RoleAgent})
		assert.True(t, domain.IsPlanLimitExceeded(err))
	})

	t.Run("growth allows four invites", func(t *testing.T) {
		svc := newTestService(t, fixedLimit{"Growth", 5}, nil)
		for _, addr := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"} {
			_, err := svc.Invite(ctx, owner, InviteRequest{Email: addr, Role: RoleAgent})
			require.NoError(t, err)
		}
		_, err := svc.Invite(ctx, owner, InviteRequest{Email: "e@x.io", Role: RoleAgent})
		assert.True(t, domain.IsPlanLimitExceeded(err))
		assert.Len(t, svc.List(ctx, owner), 5)
	})

	t.Run("enterprise is unlimited", func(t *testing.T) {
		svc := newTestService(t, fixedLimit{"Enterprise", 0}, nil)
		for _, addr := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io", "f@x.io"} {
			_, err := svc.Invite(ctx, owner, InviteRequest{Email: addr, Role: RoleViewer})
			require.NoError(t, err)
		}
	})
}

func TestRemove(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	m, err := svc.Invite(ctx, owner, InviteRequest{Email: "gone@levrix.io", Role: RoleAgent})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, owner, m.ID))
	assert.Len(t, svc.List(ctx, owner), 1)

	assert.True(t, domain.IsNotFound(svc.Remove(ctx, owner, m.ID)))
	assert.True(t, domain.IsValidation(svc.Remove(ctx, owner, owner.ID)))
	assert.True(t, domain.IsNotFound(svc.Remove(ctx, Owner{ID: "someone-else"}, "nope")))
}
