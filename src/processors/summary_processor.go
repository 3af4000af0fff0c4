package processors

import (
	"sort"

	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/utils"
)

// SummaryProcessor turns the raw record list into day-level and
// period-level rows for tables, statements and charts. It owns no balance
// math of its own; opening and closing anchors come from the balance
// processor and flow fields from the amount aggregation.
type SummaryProcessor struct {
	balances *BalanceProcessor
}

func NewSummaryProcessor(balances *BalanceProcessor) *SummaryProcessor {
	return &SummaryProcessor{balances: balances}
}

// FilterRecords restricts records to an inclusive date range and an
// optional machine subset. Empty bounds and an empty machine list mean
// "no restriction".
func FilterRecords(records []models.EntryRecord, from, to string, machineIDs []string) []models.EntryRecord {
	allowed := map[string]bool{}
	for _, id := range machineIDs {
		allowed[id] = true
	}
	var out []models.EntryRecord
	for _, r := range records {
		if from != "" && r.Date < from {
			continue
		}
		if to != "" && r.Date > to {
			continue
		}
		if len(allowed) > 0 && !allowed[r.MachineID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DaySummary builds the merged machine rows for one calendar date. The
// full record history is passed alongside so the opening balances still
// see every prior day.
func (p *SummaryProcessor) DaySummary(date string, dayRecords, allRecords []models.EntryRecord) models.DayGroup {
	byMachine := map[string][]models.EntryRecord{}
	var machineOrder []string
	for _, r := range dayRecords {
		if r.Date != date {
			continue
		}
		if _, seen := byMachine[r.MachineID]; !seen {
			machineOrder = append(machineOrder, r.MachineID)
		}
		byMachine[r.MachineID] = append(byMachine[r.MachineID], r)
	}
	sort.Strings(machineOrder)

	group := models.DayGroup{Date: date}
	for _, machineID := range machineOrder {
		group.Rows = append(group.Rows, p.machineRow(date, machineID, byMachine[machineID], allRecords))
	}
	group.Totals = totalsForRows(group.Rows)
	return group
}

// machineRow merges all of one machine's entries for a date into a single
// row. Flow quantities are summed across the entries; the opening anchor
// belongs to the first-chronological entry and the closing anchor to the
// last one (opening plus that entry's own difference).
func (p *SummaryProcessor) machineRow(date, machineID string, entries, allRecords []models.EntryRecord) models.MachineDayRow {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})

	row := models.MachineDayRow{
		Date:       date,
		MachineID:  machineID,
		EntryCount: len(entries),
	}
	var slipTotals, statementTotals, differences []float64
	for _, e := range entries {
		row.Mada = utils.Add(row.Mada, utils.ParseAmount(e.Mada))
		row.Visa = utils.Add(row.Visa, utils.ParseAmount(e.Visa))
		row.Mastercard = utils.Add(row.Mastercard, utils.ParseAmount(e.Mastercard))
		row.GCC = utils.Add(row.GCC, utils.ParseAmount(e.GCC))
		row.BankMada = utils.Add(row.BankMada, utils.ParseAmount(e.BankMada))
		row.BankVisa = utils.Add(row.BankVisa, utils.ParseAmount(e.BankVisa))
		row.BankMastercard = utils.Add(row.BankMastercard, utils.ParseAmount(e.BankMastercard))
		row.BankGCC = utils.Add(row.BankGCC, utils.ParseAmount(e.BankGCC))
		slipTotals = append(slipTotals, SlipTotal(e))
		statementTotals = append(statementTotals, StatementTotal(e))
		differences = append(differences, Difference(e))
		if e.Notes != "" {
			if row.Notes != "" {
				row.Notes += "; "
			}
			row.Notes += e.Notes
		}
	}
	row.SlipTotal = utils.Add(slipTotals...)
	row.StatementTotal = utils.Add(statementTotals...)
	row.Difference = utils.Add(differences...)

	row.OpeningBalance = p.balances.OpeningBalance(machineID, date, allRecords)
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		row.ClosingBalance = utils.Add(row.OpeningBalance, Difference(last))
	} else {
		row.ClosingBalance = row.OpeningBalance
	}
	return row
}

// RangeReport builds the period statement: one DayGroup per distinct date
// present in the filtered set, ascending, plus grand totals re-derived from
// the rows themselves.
func (p *SummaryProcessor) RangeReport(from, to string, machineIDs []string, allRecords []models.EntryRecord) models.RangeReport {
	filtered := FilterRecords(allRecords, from, to, machineIDs)

	byDate := map[string][]models.EntryRecord{}
	for _, r := range filtered {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	report := models.RangeReport{From: from, To: to}
	var allRows []models.MachineDayRow
	for _, d := range dates {
		group := p.DaySummary(d, byDate[d], allRecords)
		report.Days = append(report.Days, group)
		allRows = append(allRows, group.Rows...)
	}
	report.Totals = totalsForRows(allRows)
	return report
}

// ChartSeries projects a bounded trailing window for the dashboard chart:
// the last n distinct dates present in the filtered set, ascending, with
// the slip/statement/difference totals of each.
func (p *SummaryProcessor) ChartSeries(records []models.EntryRecord, n int) []models.ChartPoint {
	byDate := map[string][]models.EntryRecord{}
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if n > 0 && len(dates) > n {
		dates = dates[len(dates)-n:]
	}

	points := make([]models.ChartPoint, 0, len(dates))
	for _, d := range dates {
		var slips, statements, diffs []float64
		for _, r := range byDate[d] {
			slips = append(slips, SlipTotal(r))
			statements = append(statements, StatementTotal(r))
			diffs = append(diffs, Difference(r))
		}
		points = append(points, models.ChartPoint{
			Date:            d,
			TotalSlip:       utils.Add(slips...),
			TotalStatement:  utils.Add(statements...),
			TotalDifference: utils.Add(diffs...),
		})
	}
	return points
}

func totalsForRows(rows []models.MachineDayRow) models.PeriodTotals {
	var totals models.PeriodTotals
	for _, row := range rows {
		totals.SlipTotal = utils.Add(totals.SlipTotal, row.SlipTotal)
		totals.StatementTotal = utils.Add(totals.StatementTotal, row.StatementTotal)
		totals.Difference = utils.Add(totals.Difference, row.Difference)
		totals.OpeningBalance = utils.Add(totals.OpeningBalance, row.OpeningBalance)
		totals.ClosingBalance = utils.Add(totals.ClosingBalance, row.ClosingBalance)
	}
	return totals
}
