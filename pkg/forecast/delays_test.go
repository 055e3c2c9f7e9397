package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/testhelpers"
)

func TestDelayScan_Categorizes(t *testing.T) {
	f := newTestForecaster(testForecastConfig())

	report, err := f.DelayScan(context.Background(), testhelpers.Snapshot())
	require.NoError(t, err)

	// ord-001 delivered, ord-005 cancelled: not pending.
	assert.Equal(t, 4, report.PendingCount)
	assert.Equal(t, 2, report.OverdueCount)
	assert.Equal(t, 1, report.AtRiskCount)
	assert.Equal(t, 1, report.OnTrackCount)
	assert.Equal(t, testhelpers.FixtureNow, report.AnalysisDate)
}

func TestDelayScan_OverdueSortedByDelayDescending(t *testing.T) {
	f := newTestForecaster(testForecastConfig())

	report, err := f.DelayScan(context.Background(), testhelpers.Snapshot())
	require.NoError(t, err)

	require.Len(t, report.Overdue, 2)
	// ord-004 promised Aug 1 (14 days late) before ord-002 (2 days late).
	assert.Equal(t, "ord-004", report.Overdue[0].OrderID)
	assert.Equal(t, 14, report.Overdue[0].DaysOverdue)
	assert.Equal(t, "ord-002", report.Overdue[1].OrderID)
	assert.Equal(t, 2, report.Overdue[1].DaysOverdue)
}

func TestDelayScan_AtRiskWithinGraceWindow(t *testing.T) {
	f := newTestForecaster(testForecastConfig())

	report, err := f.DelayScan(context.Background(), testhelpers.Snapshot())
	require.NoError(t, err)

	require.Len(t, report.AtRisk, 1)
	at := report.AtRisk[0]
	assert.Equal(t, "ord-003", at.OrderID)
	assert.Equal(t, models.OrderPlaced, at.Status)
	// Due the day after the analysis date.
	assert.Equal(t, -1, at.DaysOverdue)
}

func TestDaysBetween(t *testing.T) {
	a := testhelpers.FixtureNow
	assert.Equal(t, 0, daysBetween(a, a))
	assert.Equal(t, 3, daysBetween(a.AddDate(0, 0, -3), a))
	assert.Equal(t, -2, daysBetween(a.AddDate(0, 0, 2), a))
}
