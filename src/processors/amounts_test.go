package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/slipfolio/src/models"
)

func TestSlipAndStatementTotals(t *testing.T) {
	r := models.EntryRecord{
		Mada:           10,
		Visa:           20.5,
		Mastercard:     5,
		GCC:            4.5,
		BankMada:       11,
		BankVisa:       20,
		BankMastercard: 5,
		BankGCC:        4,
	}
	assert.Equal(t, 40.0, SlipTotal(r))
	assert.Equal(t, 40.0, StatementTotal(r))
	assert.Equal(t, 0.0, Difference(r))
}

func TestDifferenceSignConvention(t *testing.T) {
	// Bank credited more than the slip reported: surplus, positive.
	surplus := models.EntryRecord{Mada: 80, BankMada: 100}
	assert.Equal(t, 20.0, Difference(surplus))

	// Bank credited less: shortage, negative.
	shortage := models.EntryRecord{Mada: 100, BankMada: 80}
	assert.Equal(t, -20.0, Difference(shortage))
}

func TestExtraFieldsIncluded(t *testing.T) {
	r := models.EntryRecord{
		Extras: map[string]models.ExtraField{
			"mada 2": {Slip: 15, Statement: 20},
		},
	}
	assert.Equal(t, 15.0, SlipTotal(r))
	assert.Equal(t, 20.0, StatementTotal(r))
	assert.Equal(t, 5.0, Difference(r))
}

func TestExtraFieldsOrderIrrelevant(t *testing.T) {
	r := models.EntryRecord{
		Mada: 1,
		Extras: map[string]models.ExtraField{
			"amex":   {Slip: 2.25, Statement: 1},
			"mada 2": {Slip: 3.75, Statement: 2},
			"other":  {Slip: 3, Statement: 7},
		},
	}
	assert.Equal(t, 10.0, SlipTotal(r))
	assert.Equal(t, 10.0, StatementTotal(r))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(models.EntryRecord{Notes: "only a note"}))
	assert.True(t, IsEmpty(models.EntryRecord{Extras: map[string]models.ExtraField{"x": {}}}))
	assert.False(t, IsEmpty(models.EntryRecord{GCC: 0.01}))
	assert.False(t, IsEmpty(models.EntryRecord{BankVisa: 3}))
	assert.False(t, IsEmpty(models.EntryRecord{Extras: map[string]models.ExtraField{"x": {Statement: 1}}}))
}
