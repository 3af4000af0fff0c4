package services

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/slipfolio/src/database"
	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/processors"
)

func init() {
	logger.InitLogger("error")
}

const testUserID int64 = 1

// newTestServices wires the real service graph against a throwaway sqlite
// file, the same construction main performs.
func newTestServices(t *testing.T) (ReportService, MachineService) {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "slipfolio_test.db"))

	balances := processors.NewBalanceProcessor(cache.New(cache.NoExpiration, 0))
	summaries := processors.NewSummaryProcessor(balances)
	reports := NewReportService(balances, summaries, cache.New(DefaultCacheExpiration, 0))
	return reports, NewMachineService(reports)
}

func newTestMachine(t *testing.T, machines MachineService, name string) *models.Machine {
	t.Helper()
	m, err := machines.CreateMachine(testUserID, models.Machine{Name: name, BankName: "Test Bank", Active: true})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	return m
}

func TestUpsertRecordEmptySubmissionDeletesRow(t *testing.T) {
	reports, machines := newTestServices(t)
	m := newTestMachine(t, machines, "Front Counter")

	res, err := reports.UpsertRecord(testUserID, models.EntryRecord{
		MachineID: m.ID,
		Date:      "2024-03-01",
		Mada:      50,
		BankMada:  60,
	})
	require.NoError(t, err)
	require.False(t, res.Deleted)
	require.NotNil(t, res.Record)

	stored, err := reports.GetRecords(testUserID, "", "", "")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Resubmitting the record with every amount cleared must remove the
	// stored row instead of keeping a zero line.
	res, err = reports.UpsertRecord(testUserID, models.EntryRecord{
		ID:        res.Record.ID,
		MachineID: m.ID,
		Date:      "2024-03-01",
	})
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Nil(t, res.Record)

	stored, err = reports.GetRecords(testUserID, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDeleteMachineBlockedWhileRecordsReference(t *testing.T) {
	reports, machines := newTestServices(t)
	m := newTestMachine(t, machines, "Drive Through")

	res, err := reports.UpsertRecord(testUserID, models.EntryRecord{
		MachineID: m.ID,
		Date:      "2024-03-02",
		Visa:      120,
		BankVisa:  118.5,
	})
	require.NoError(t, err)

	err = machines.DeleteMachine(testUserID, m.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMachineInUse))

	listed, err := machines.ListMachines(testUserID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Once the referencing record is gone the delete goes through.
	require.NoError(t, reports.DeleteRecord(testUserID, res.Record.ID))
	require.NoError(t, machines.DeleteMachine(testUserID, m.ID))

	listed, err = machines.ListMachines(testUserID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestMutationInvalidatesCachedDerivations(t *testing.T) {
	reports, machines := newTestServices(t)
	m := newTestMachine(t, machines, "Back Office")

	res, err := reports.UpsertRecord(testUserID, models.EntryRecord{
		MachineID: m.ID,
		Date:      "2024-03-03",
		Mada:      100,
		BankMada:  110,
	})
	require.NoError(t, err)

	// Prime both caches: the balance memo and the daily-summary report key.
	bal, err := reports.GetMachineBalance(testUserID, m.ID, "2024-03-03")
	require.NoError(t, err)
	require.Equal(t, 10.0, bal.ClosingBalance)

	day, err := reports.GetDailySummary(testUserID, "2024-03-03")
	require.NoError(t, err)
	require.Len(t, day.Rows, 1)
	require.Equal(t, 10.0, day.Rows[0].Difference)

	// Editing the record must flush everything; the next reads derive from
	// the new history instead of the memoized values.
	_, err = reports.UpsertRecord(testUserID, models.EntryRecord{
		ID:        res.Record.ID,
		MachineID: m.ID,
		Date:      "2024-03-03",
		Mada:      100,
		BankMada:  120,
	})
	require.NoError(t, err)

	bal, err = reports.GetMachineBalance(testUserID, m.ID, "2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, 20.0, bal.ClosingBalance)

	day, err = reports.GetDailySummary(testUserID, "2024-03-03")
	require.NoError(t, err)
	require.Len(t, day.Rows, 1)
	assert.Equal(t, 20.0, day.Rows[0].Difference)
}

func TestUpsertRejectsForeignMachine(t *testing.T) {
	reports, machines := newTestServices(t)
	m := newTestMachine(t, machines, "Kiosk")

	_, err := reports.UpsertRecord(testUserID+1, models.EntryRecord{
		MachineID: m.ID,
		Date:      "2024-03-04",
		GCC:       10,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotMachineOwner))
}
