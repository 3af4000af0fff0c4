package processors

import (
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/slipfolio/src/models"
)

func newTestSummaryProcessor() *SummaryProcessor {
	return NewSummaryProcessor(newTestBalanceProcessor())
}

func TestFilterRecords(t *testing.T) {
	records := []models.EntryRecord{
		record("m1", "2024-01-01", 1, 1),
		record("m1", "2024-01-05", 1, 1),
		record("m2", "2024-01-03", 1, 1),
	}
	assert.Len(t, FilterRecords(records, "", "", nil), 3)
	assert.Len(t, FilterRecords(records, "2024-01-02", "", nil), 2)
	assert.Len(t, FilterRecords(records, "2024-01-01", "2024-01-03", nil), 2)
	assert.Len(t, FilterRecords(records, "", "", []string{"m2"}), 1)
	assert.Empty(t, FilterRecords(records, "2024-02-01", "", []string{"m1"}))
}

func TestDaySummarySingleEntries(t *testing.T) {
	p := newTestSummaryProcessor()
	records := []models.EntryRecord{
		record("m1", "2024-01-01", 100, 110),
		record("m2", "2024-01-01", 200, 190),
		record("m1", "2024-01-02", 50, 50),
	}
	day := p.DaySummary("2024-01-01", FilterRecords(records, "2024-01-01", "2024-01-01", nil), records)

	require.Len(t, day.Rows, 2)
	m1 := day.Rows[0]
	assert.Equal(t, "m1", m1.MachineID)
	assert.Equal(t, 1, m1.EntryCount)
	assert.Equal(t, 100.0, m1.SlipTotal)
	assert.Equal(t, 110.0, m1.StatementTotal)
	assert.Equal(t, 10.0, m1.Difference)
	assert.Equal(t, 0.0, m1.OpeningBalance)
	assert.Equal(t, 10.0, m1.ClosingBalance)

	assert.Equal(t, 300.0, day.Totals.SlipTotal)
	assert.Equal(t, 300.0, day.Totals.StatementTotal)
	assert.Equal(t, 0.0, day.Totals.Difference)
	assert.Equal(t, 0.0, day.Totals.ClosingBalance)
}

func TestDaySummaryMergesMultipleEntries(t *testing.T) {
	p := newTestSummaryProcessor()
	first := record("m1", "2024-01-02", 100, 120) // +20
	first.Timestamp = 1
	second := record("m1", "2024-01-02", 50, 55) // +5
	second.ID = "m1-2024-01-02-b"
	second.Timestamp = 2
	prior := record("m1", "2024-01-01", 10, 13) // opening carry of +3
	records := []models.EntryRecord{second, first, prior}

	day := p.DaySummary("2024-01-02", FilterRecords(records, "2024-01-02", "2024-01-02", nil), records)
	require.Len(t, day.Rows, 1)
	row := day.Rows[0]

	assert.Equal(t, 2, row.EntryCount)
	// Flow quantities sum across the merged entries.
	assert.Equal(t, 150.0, row.SlipTotal)
	assert.Equal(t, 175.0, row.StatementTotal)
	assert.Equal(t, 25.0, row.Difference)
	// Opening anchor from the first entry, closing anchor from the last
	// entry (opening plus that entry's own difference).
	assert.Equal(t, 3.0, row.OpeningBalance)
	assert.Equal(t, 8.0, row.ClosingBalance)
}

func TestRangeReport(t *testing.T) {
	p := newTestSummaryProcessor()
	records := []models.EntryRecord{
		record("m1", "2024-01-03", 50, 45),
		record("m1", "2024-01-01", 100, 110),
		record("m2", "2024-01-01", 10, 10),
	}
	report := p.RangeReport("2024-01-01", "2024-01-31", nil, records)

	require.Len(t, report.Days, 2)
	assert.Equal(t, "2024-01-01", report.Days[0].Date)
	assert.Equal(t, "2024-01-03", report.Days[1].Date)

	assert.Equal(t, 160.0, report.Totals.SlipTotal)
	assert.Equal(t, 165.0, report.Totals.StatementTotal)
	assert.Equal(t, 5.0, report.Totals.Difference)
}

func TestRangeReportMachineFilter(t *testing.T) {
	p := newTestSummaryProcessor()
	records := []models.EntryRecord{
		record("m1", "2024-01-01", 100, 110),
		record("m2", "2024-01-01", 10, 10),
	}
	report := p.RangeReport("", "", []string{"m2"}, records)
	require.Len(t, report.Days, 1)
	require.Len(t, report.Days[0].Rows, 1)
	assert.Equal(t, "m2", report.Days[0].Rows[0].MachineID)
}

func TestChartSeriesWindow(t *testing.T) {
	p := newTestSummaryProcessor()
	records := []models.EntryRecord{
		record("m1", "2024-01-01", 1, 2),
		record("m1", "2024-01-02", 3, 4),
		record("m2", "2024-01-02", 5, 6),
		record("m1", "2024-01-04", 7, 8),
	}
	points := p.ChartSeries(records, 2)

	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-02", points[0].Date)
	assert.Equal(t, 8.0, points[0].TotalSlip)
	assert.Equal(t, 10.0, points[0].TotalStatement)
	assert.Equal(t, 2.0, points[0].TotalDifference)
	assert.Equal(t, "2024-01-04", points[1].Date)

	// Window larger than the data returns everything, ascending.
	all := p.ChartSeries(records, 10)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-01", all[0].Date)
}

func TestSummariesShareBalanceMemo(t *testing.T) {
	memo := cache.New(cache.NoExpiration, 0)
	balances := NewBalanceProcessor(memo)
	p := NewSummaryProcessor(balances)

	records := []models.EntryRecord{record("m1", "2024-01-01", 100, 110)}
	_ = balances.ClosingBalance("m1", "2024-01-01", records)

	// A mutation without ClearCache would leave the memo stale; the service
	// layer always flushes, after which summaries see the new history.
	records = append(records, record("m1", "2024-01-02", 10, 30))
	balances.ClearCache()
	day := p.DaySummary("2024-01-02", FilterRecords(records, "2024-01-02", "2024-01-02", nil), records)
	require.Len(t, day.Rows, 1)
	assert.Equal(t, 10.0, day.Rows[0].OpeningBalance)
	assert.Equal(t, 30.0, day.Rows[0].ClosingBalance)
}
