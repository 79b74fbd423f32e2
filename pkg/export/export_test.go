package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/leads"
)

func sampleViews() []leads.LeadView {
	score := 82
	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	return []leads.LeadView{
		{
			Lead: leads.Lead{
				ID: "l1", Name: "Sarah Johnson", Email: "sarah@realty.com", Phone: "555-0101",
				Source: leads.SourceGoogle, Status: leads.StatusQualified, Stage: leads.StageOfferMade,
				PropertyAddress: "12 Oak St", PriorityScore: &score, CreatedAt: created,
			},
			Health:      leads.Health{IsDuplicate: true, DuplicateIDs: []string{"l2"}},
			AgingStatus: leads.AgingCritical,
		},
		{
			Lead:        leads.Lead{ID: "l2", Name: "sarah j", Phone: "5550101", CreatedAt: created},
			Health:      leads.Health{IsDuplicate: true, NeedsStandardization: true},
			AgingStatus: leads.AgingHealthy,
		},
	}
}

type staticViews []leads.LeadView

func (s staticViews) All(ctx context.Context, userID string) ([]leads.LeadView, error) {
	return s, nil
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleViews()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, headers, records[0])

	first := records[1]
	assert.Equal(t, "Sarah Johnson", first[1])
	assert.Equal(t, "82", first[9])
	assert.Equal(t, "2026-01-05T10:00:00Z", first[14])
	assert.Equal(t, "critical", first[16])
	assert.Equal(t, "true", first[17])
	assert.Equal(t, "false", first[19])

	second := records[2]
	assert.Empty(t, second[9])
	assert.Empty(t, second[15])
	assert.Equal(t, "true", second[19])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleViews()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Aging", rows[0][16])
	assert.Equal(t, "Sarah Johnson", rows[1][1])
	assert.Equal(t, "82", rows[1][9])
	assert.Equal(t, "critical", rows[1][16])
	assert.Equal(t, "healthy", rows[2][16])
}

func TestService_Export(t *testing.T) {
	svc := NewService(staticViews(sampleViews()))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), "u1", FormatCSV, &buf))
	assert.Contains(t, buf.String(), "Sarah Johnson")

	err := svc.Export(context.Background(), "u1", "pdf", &buf)
	assert.True(t, domain.IsValidation(err))
}

func TestContentTypeAndFilename(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
	assert.Equal(t, "levrix-leads-2026-03-09.xlsx", Filename(FormatXLSX, time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)))
}
