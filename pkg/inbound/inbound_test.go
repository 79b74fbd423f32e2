package inbound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/database/dbtest"
	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/leads"
)

type owners map[string]string

func (o owners) Email(ctx context.Context, userID string) (string, error) {
	e, ok := o[userID]
	if !ok {
		return "", domain.NewNotFoundError("user")
	}
	return e, nil
}

func newTestService(t *testing.T) (*Service, *leads.Service) {
	t.Helper()
	db := dbtest.NewClient(t)
	dbtest.SeedUser(t, db, "u1", "jane.agent@levrix.io")
	leadSvc := leads.NewService(leads.NewSQLRepository(db), nil, nil, nil, nil)
	svc := NewService(owners{"u1": "jane.agent@levrix.io"}, leadSvc, "https://api.levrix.io/", nil)
	return svc, leadSvc
}

func TestVerifyToken(t *testing.T) {
	assert.Equal(t, "levrix_secure_jane.agent", VerifyToken("jane.agent@levrix.io"))
	assert.Equal(t, "levrix_secure_nobody", VerifyToken("nobody"))
}

func TestInfo(t *testing.T) {
	svc, _ := newTestService(t)
	info := svc.Info("u1", "jane.agent@levrix.io")
	assert.Equal(t, "https://api.levrix.io/api/v1/webhooks/lead-inbound/u1", info.URL)
	assert.Equal(t, "levrix_secure_jane.agent", info.VerifyToken)
}

func TestParseSource(t *testing.T) {
	assert.Equal(t, leads.SourceFacebook, ParseSource("facebook"))
	assert.Equal(t, leads.SourceGoogle, ParseSource(" GOOGLE "))
	assert.Equal(t, leads.SourceReferral, ParseSource("Referral"))
	assert.Equal(t, leads.SourceManual, ParseSource("tiktok"))
	assert.Equal(t, leads.SourceManual, ParseSource(""))
}

func TestHandshake(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.Handshake(ctx, "u1", "subscribe", "levrix_secure_jane.agent", "1158201444")
	require.NoError(t, err)
	assert.Equal(t, "1158201444", got)

	_, err = svc.Handshake(ctx, "u1", "unsubscribe", "levrix_secure_jane.agent", "x")
	assert.True(t, domain.IsBadRequest(err))

	_, err = svc.Handshake(ctx, "u1", "subscribe", "levrix_secure_someone", "x")
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Handshake(ctx, "ghost", "subscribe", "levrix_secure_jane.agent", "x")
	assert.True(t, domain.IsForbidden(err))
}

func TestReceive(t *testing.T) {
	svc, leadSvc := newTestService(t)
	ctx := context.Background()

	view, err := svc.Receive(ctx, "u1", "levrix_secure_jane.agent", Payload{
		Name:     "carlos MENDEZ",
		Email:    "carlos@mendez.mx",
		Phone:    "+52 55 1234 9876",
		Source:   "facebook",
		Campaign: "Spring Open House",
		Property: "88 Bay Rd",
		Message:  "Is the unit still available?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Carlos Mendez", view.Name)
	assert.Equal(t, leads.SourceFacebook, view.Source)
	assert.Equal(t, "Spring Open House", view.CampaignSource)
	assert.Equal(t, "88 Bay Rd", view.PropertyAddress)
	assert.Equal(t, "Is the unit still available?", view.Notes)
	assert.Equal(t, leads.StatusNew, view.Status)

	stored, err := leadSvc.Get(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, stored.ID)
}

func TestReceive_Rejections(t *testing.T) {
	svc, leadSvc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Receive(ctx, "u1", "wrong", Payload{Name: "A"})
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Receive(ctx, "u1", "", Payload{Name: "A"})
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Receive(ctx, "u1", "levrix_secure_jane.agent", Payload{Name: "   "})
	assert.True(t, domain.IsValidation(err))

	all, err := leadSvc.Raw(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)
}
