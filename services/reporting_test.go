package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

// insertSession stores a closed session of the given worked minutes.
func insertSession(t *testing.T, db *gorm.DB, employeeID string, projectID *string, clockIn time.Time, minutes int) *models.TimeTrackingSession {
	t.Helper()
	out := clockIn.Add(time.Duration(minutes) * time.Minute)
	total, hours := SessionTotals(clockIn, out, 0)
	session := &models.TimeTrackingSession{
		EmployeeID:   employeeID,
		ProjectID:    projectID,
		ClockIn:      clockIn,
		ClockOut:     &out,
		TotalMinutes: &total,
		TotalHours:   &hours,
		IsActive:     true,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	svc := NewReportService(fx.db, fx.policy)

	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	insertSession(t, fx.db, fx.worker.ID, &fx.project.ID, day, 65)
	insertSession(t, fx.db, fx.worker.ID, nil, day.Add(24*time.Hour), 55)
	insertSession(t, fx.db, fx.peer.ID, &fx.project.ID, day.Add(2*time.Hour), 30)
	// Outside the range.
	insertSession(t, fx.db, fx.peer.ID, nil, day.Add(-72*time.Hour), 120)
	// Soft-deleted.
	deleted := insertSession(t, fx.db, fx.peer.ID, nil, day.Add(3*time.Hour), 45)
	require.NoError(t, fx.db.Model(deleted).Update("is_active", false).Error)

	req := ReportRequest{
		OrganizationID: fx.org.ID,
		StartDate:      day.Add(-time.Hour),
		EndDate:        day.Add(48 * time.Hour),
	}

	t.Run("aggregates sessions in range", func(t *testing.T) {
		report, err := svc.Report(ctx, fx.owner, req)
		require.NoError(t, err)

		assert.Equal(t, 3, report.Summary.TotalEntries)
		assert.Equal(t, 150, report.Summary.TotalMinutes)
		assert.InDelta(t, 1.08+0.92+0.5, report.Summary.TotalHours, 0.0001)
		assert.Equal(t, 2, report.Summary.UniqueEmployees)
		require.Contains(t, report.EmployeeBreakdown, fx.worker.ID)
		assert.Equal(t, 2, report.EmployeeBreakdown[fx.worker.ID].Entries)
		assert.Equal(t, 120, report.EmployeeBreakdown[fx.worker.ID].TotalMinutes)
		assert.Equal(t, "Website", report.TimeLogs[0].ProjectName)
		assert.Equal(t, fx.worker.Email, report.TimeLogs[0].EmployeeEmail)
	})

	t.Run("filters by project", func(t *testing.T) {
		filtered := req
		filtered.ProjectID = fx.project.ID
		report, err := svc.Report(ctx, fx.owner, filtered)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Summary.TotalEntries)
		assert.Equal(t, 95, report.Summary.TotalMinutes)
	})

	t.Run("empty range is not an error", func(t *testing.T) {
		empty := req
		empty.StartDate = day.Add(30 * 24 * time.Hour)
		empty.EndDate = empty.StartDate.Add(time.Hour)
		report, err := svc.Report(ctx, fx.owner, empty)
		require.NoError(t, err)
		assert.Zero(t, report.Summary.TotalEntries)
		assert.Empty(t, report.TimeLogs)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		bad := req
		bad.StartDate, bad.EndDate = req.EndDate, req.StartDate
		_, err := svc.Report(ctx, fx.owner, bad)
		requireKind(t, err, utils.KindValidation)
	})

	t.Run("non-managers are forbidden", func(t *testing.T) {
		_, err := svc.Report(ctx, fx.stranger, req)
		requireKind(t, err, utils.KindForbidden)
		_, err = svc.Report(ctx, fx.worker, req)
		requireKind(t, err, utils.KindForbidden)
	})

	t.Run("organization is optional for admins only", func(t *testing.T) {
		global := req
		global.OrganizationID = ""
		report, err := svc.Report(ctx, fx.admin, global)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Summary.TotalEntries)

		_, err = svc.Report(ctx, fx.owner, global)
		requireKind(t, err, utils.KindValidation)
	})
}

func TestEmployeesSummary(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	svc := NewReportService(fx.db, fx.policy)

	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	insertSession(t, fx.db, fx.worker.ID, nil, day, 60)
	insertSession(t, fx.db, fx.worker.ID, nil, day.Add(2*time.Hour), 30)
	require.NoError(t, fx.db.Create(&models.TimeTrackingSession{
		EmployeeID: fx.worker.ID,
		ClockIn:    day.Add(4 * time.Hour),
		IsActive:   true,
	}).Error)

	rows, err := svc.EmployeesSummary(ctx, fx.owner, fx.org.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]EmployeeSummary{}
	for _, r := range rows {
		byID[r.EmployeeID] = r
	}
	w := byID[fx.worker.ID]
	assert.Equal(t, 3, w.TotalEntries)
	assert.Equal(t, 90, w.TotalMinutes)
	assert.InDelta(t, 1.5, w.TotalHours, 0.0001)
	assert.Equal(t, 2, w.ClockOutCount)
	assert.Equal(t, 1, w.ActiveSessions)
	assert.Zero(t, byID[fx.peer.ID].TotalEntries)

	_, err = svc.EmployeesSummary(ctx, fx.worker, fx.org.ID, nil, nil)
	requireKind(t, err, utils.KindForbidden)
}
