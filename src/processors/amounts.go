package processors

import (
	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/utils"
)

// Per-record amount aggregation. These are pure functions of a single
// record; everything heavier (balances, summaries) is built on top of them.

// SlipTotal returns the terminal-reported total for a record: the four
// fixed networks plus the slip side of every extra payment line.
func SlipTotal(r models.EntryRecord) float64 {
	amounts := []float64{
		utils.ParseAmount(r.Mada),
		utils.ParseAmount(r.Visa),
		utils.ParseAmount(r.Mastercard),
		utils.ParseAmount(r.GCC),
	}
	for _, extra := range r.Extras {
		amounts = append(amounts, utils.ParseAmount(extra.Slip))
	}
	return utils.Add(amounts...)
}

// StatementTotal returns the bank-credited total for a record, mirrored
// over the bank fields and the statement side of the extras.
func StatementTotal(r models.EntryRecord) float64 {
	amounts := []float64{
		utils.ParseAmount(r.BankMada),
		utils.ParseAmount(r.BankVisa),
		utils.ParseAmount(r.BankMastercard),
		utils.ParseAmount(r.BankGCC),
	}
	for _, extra := range r.Extras {
		amounts = append(amounts, utils.ParseAmount(extra.Statement))
	}
	return utils.Add(amounts...)
}

// Difference returns statement total minus slip total. Positive means the
// bank credited more than the terminal reported (surplus), negative means a
// shortage. Downstream color-coding and summaries depend on this sign.
func Difference(r models.EntryRecord) float64 {
	return utils.Sub(StatementTotal(r), SlipTotal(r))
}

// IsEmpty reports whether a record carries no amounts at all. Submitting an
// empty record deletes the stored row instead of keeping a zero line.
func IsEmpty(r models.EntryRecord) bool {
	fixed := []float64{
		r.Mada, r.Visa, r.Mastercard, r.GCC,
		r.BankMada, r.BankVisa, r.BankMastercard, r.BankGCC,
	}
	for _, v := range fixed {
		if v != 0 {
			return false
		}
	}
	for _, extra := range r.Extras {
		if extra.Slip != 0 || extra.Statement != 0 {
			return false
		}
	}
	return true
}
