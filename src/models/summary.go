package models

// MachineDayRow is one presentation-ready row: all entries for a machine on
// a date merged together. When EntryCount > 1 the flow fields are sums
// across the merged entries while the opening/closing anchors come from the
// first and last entry of the day.
type MachineDayRow struct {
	Date           string  `json:"date"`
	MachineID      string  `json:"machineId"`
	MachineName    string  `json:"machineName,omitempty"`
	Mada           float64 `json:"mada"`
	Visa           float64 `json:"visa"`
	Mastercard     float64 `json:"mastercard"`
	GCC            float64 `json:"gcc"`
	BankMada       float64 `json:"bankMada"`
	BankVisa       float64 `json:"bankVisa"`
	BankMastercard float64 `json:"bankMastercard"`
	BankGCC        float64 `json:"bankGcc"`
	SlipTotal      float64 `json:"slipTotal"`
	StatementTotal float64 `json:"statementTotal"`
	Difference     float64 `json:"difference"`
	OpeningBalance float64 `json:"openingBalance"`
	ClosingBalance float64 `json:"closingBalance"`
	EntryCount     int     `json:"entryCount"`
	Notes          string  `json:"notes,omitempty"`
}

// PeriodTotals aggregates rows across a day or a date range.
type PeriodTotals struct {
	SlipTotal      float64 `json:"slipTotal"`
	StatementTotal float64 `json:"statementTotal"`
	Difference     float64 `json:"difference"`
	OpeningBalance float64 `json:"openingBalance"`
	ClosingBalance float64 `json:"closingBalance"`
}

// DayGroup is all machine rows for one calendar date plus that day's totals.
type DayGroup struct {
	Date   string          `json:"date"`
	Rows   []MachineDayRow `json:"rows"`
	Totals PeriodTotals    `json:"totals"`
}

// RangeReport is the period statement for a date range, one DayGroup per
// distinct date present in the filtered record set, ascending.
type RangeReport struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Days   []DayGroup   `json:"days"`
	Totals PeriodTotals `json:"totals"`
}

// ChartPoint is one element of the trailing time-series window used by the
// dashboard chart.
type ChartPoint struct {
	Date            string  `json:"date"`
	TotalSlip       float64 `json:"totalSlip"`
	TotalStatement  float64 `json:"totalStatement"`
	TotalDifference float64 `json:"totalDifference"`
}
