package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/slipfolio/src/database"
	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/processors"
	"github.com/username/slipfolio/src/utils"
)

const (
	ckDailySummary = "agg_daily_summary_user_%d_%s"
	ckRangeReport  = "agg_range_report_user_%d_%s_%s_%s"
	ckChartSeries  = "agg_chart_series_user_%d_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reportServiceImpl struct {
	balances    *processors.BalanceProcessor
	summaries   *processors.SummaryProcessor
	reportCache *cache.Cache
}

func NewReportService(
	balances *processors.BalanceProcessor,
	summaries *processors.SummaryProcessor,
	reportCache *cache.Cache,
) ReportService {
	return &reportServiceImpl{
		balances:    balances,
		summaries:   summaries,
		reportCache: reportCache,
	}
}

// UpsertRecord saves one reconciliation entry keyed by its record ID. A
// submission whose amounts are all zero deletes the stored row instead of
// keeping a zero line. Every path through here ends with a full cache
// invalidation: the next derivation must see the new history.
func (s *reportServiceImpl) UpsertRecord(userID int64, rec models.EntryRecord) (*UpsertResult, error) {
	if !utils.ValidDate(rec.Date) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntryDate, rec.Date)
	}
	if err := s.checkMachineOwner(userID, rec.MachineID); err != nil {
		return nil, err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if err := s.checkRecordOwner(userID, rec.ID); err != nil {
		return nil, err
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	rec.UserID = userID

	if processors.IsEmpty(rec) {
		res, err := database.DB.Exec(`DELETE FROM entry_records WHERE id = ? AND user_id = ?`, rec.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("error deleting emptied record %s: %w", rec.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			logger.L.Info("Cleared record deleted instead of storing zero row", "userID", userID, "recordID", rec.ID)
		}
		s.InvalidateUserCache(userID)
		return &UpsertResult{Deleted: true}, nil
	}

	extrasJSON, err := json.Marshal(rec.Extras)
	if err != nil {
		return nil, fmt.Errorf("error encoding extra fields for record %s: %w", rec.ID, err)
	}

	_, err = database.DB.Exec(`
		INSERT INTO entry_records (id, user_id, machine_id, date, timestamp,
			mada, visa, mastercard, gcc,
			bank_mada, bank_visa, bank_mastercard, bank_gcc,
			extras, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			machine_id = excluded.machine_id,
			date = excluded.date,
			timestamp = excluded.timestamp,
			mada = excluded.mada,
			visa = excluded.visa,
			mastercard = excluded.mastercard,
			gcc = excluded.gcc,
			bank_mada = excluded.bank_mada,
			bank_visa = excluded.bank_visa,
			bank_mastercard = excluded.bank_mastercard,
			bank_gcc = excluded.bank_gcc,
			extras = excluded.extras,
			notes = excluded.notes`,
		rec.ID, userID, rec.MachineID, rec.Date, rec.Timestamp,
		rec.Mada, rec.Visa, rec.Mastercard, rec.GCC,
		rec.BankMada, rec.BankVisa, rec.BankMastercard, rec.BankGCC,
		string(extrasJSON), rec.Notes)
	if err != nil {
		return nil, fmt.Errorf("error upserting record %s: %w", rec.ID, err)
	}

	s.InvalidateUserCache(userID)
	logger.L.Info("Record upserted", "userID", userID, "recordID", rec.ID, "machineID", rec.MachineID, "date", rec.Date)
	return &UpsertResult{Record: &rec}, nil
}

func (s *reportServiceImpl) DeleteRecord(userID int64, recordID string) error {
	res, err := database.DB.Exec(`DELETE FROM entry_records WHERE id = ? AND user_id = ?`, recordID, userID)
	if err != nil {
		return fmt.Errorf("error deleting record %s: %w", recordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	s.InvalidateUserCache(userID)
	logger.L.Info("Record deleted", "userID", userID, "recordID", recordID)
	return nil
}

func (s *reportServiceImpl) GetRecords(userID int64, machineID, from, to string) ([]models.EntryRecord, error) {
	records, err := fetchUserRecords(userID)
	if err != nil {
		return nil, err
	}
	var machineIDs []string
	if machineID != "" {
		machineIDs = []string{machineID}
	}
	filtered := processors.FilterRecords(records, from, to, machineIDs)
	if filtered == nil {
		filtered = []models.EntryRecord{}
	}
	return filtered, nil
}

func (s *reportServiceImpl) GetDailySummary(userID int64, date string) (*models.DayGroup, error) {
	cacheKey := fmt.Sprintf(ckDailySummary, userID, date)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for daily summary", "userID", userID, "date", date)
		return cached.(*models.DayGroup), nil
	}

	records, err := fetchUserRecords(userID)
	if err != nil {
		return nil, err
	}
	dayRecords := processors.FilterRecords(records, date, date, nil)
	group := s.summaries.DaySummary(date, dayRecords, records)
	if group.Rows == nil {
		group.Rows = []models.MachineDayRow{}
	}
	s.attachMachineNames(userID, group.Rows)

	s.reportCache.Set(cacheKey, &group, DefaultCacheExpiration)
	return &group, nil
}

func (s *reportServiceImpl) GetRangeReport(userID int64, from, to string, machineIDs []string) (*models.RangeReport, error) {
	cacheKey := fmt.Sprintf(ckRangeReport, userID, from, to, strings.Join(machineIDs, ","))
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for range report", "userID", userID, "from", from, "to", to)
		return cached.(*models.RangeReport), nil
	}

	records, err := fetchUserRecords(userID)
	if err != nil {
		return nil, err
	}
	report := s.summaries.RangeReport(from, to, machineIDs, records)
	if report.Days == nil {
		report.Days = []models.DayGroup{}
	}
	for i := range report.Days {
		s.attachMachineNames(userID, report.Days[i].Rows)
	}

	s.reportCache.Set(cacheKey, &report, DefaultCacheExpiration)
	return &report, nil
}

func (s *reportServiceImpl) GetChartSeries(userID int64, days int) ([]models.ChartPoint, error) {
	cacheKey := fmt.Sprintf(ckChartSeries, userID, days)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.ChartPoint), nil
	}

	records, err := fetchUserRecords(userID)
	if err != nil {
		return nil, err
	}
	points := s.summaries.ChartSeries(records, days)
	if points == nil {
		points = []models.ChartPoint{}
	}

	s.reportCache.Set(cacheKey, points, DefaultCacheExpiration)
	return points, nil
}

func (s *reportServiceImpl) GetMachineBalance(userID int64, machineID, date string) (*MachineBalance, error) {
	if err := s.checkMachineOwner(userID, machineID); err != nil {
		return nil, err
	}
	records, err := fetchUserRecords(userID)
	if err != nil {
		return nil, err
	}

	opening := s.balances.OpeningBalance(machineID, date, records)
	closing := s.balances.ClosingBalance(machineID, date, records)
	hasEntry := false
	for _, r := range records {
		if r.MachineID == machineID && r.Date == date {
			hasEntry = true
			break
		}
	}
	return &MachineBalance{
		MachineID:      machineID,
		Date:           date,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Difference:     utils.Sub(closing, opening),
		HasEntry:       hasEntry,
	}, nil
}

// InvalidateUserCache drops every cached report and memoized balance.
// Report keys are parameterized by date range and machine subset, so the
// whole cache is flushed rather than enumerating keys; recomputation is
// cheap at this data scale and staleness after a mutation is a bug.
func (s *reportServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Flush()
	s.balances.ClearCache()
	logger.L.Info("Invalidated report cache and balance memo", "userID", userID)
}

func (s *reportServiceImpl) checkMachineOwner(userID int64, machineID string) error {
	var ownerID int64
	err := database.DB.QueryRow(`SELECT user_id FROM machines WHERE id = ?`, machineID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", ErrMachineNotFound, machineID)
		}
		return fmt.Errorf("error checking machine owner: %w", err)
	}
	if ownerID != userID {
		return ErrNotMachineOwner
	}
	return nil
}

func (s *reportServiceImpl) checkRecordOwner(userID int64, recordID string) error {
	var ownerID int64
	err := database.DB.QueryRow(`SELECT user_id FROM entry_records WHERE id = ?`, recordID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil // new record with a client-generated id
		}
		return fmt.Errorf("error checking record owner: %w", err)
	}
	if ownerID != userID {
		return ErrNotRecordOwner
	}
	return nil
}

func (s *reportServiceImpl) attachMachineNames(userID int64, rows []models.MachineDayRow) {
	names, err := fetchMachineNames(userID)
	if err != nil {
		logger.L.Warn("Could not attach machine names to summary rows", "userID", userID, "error", err)
		return
	}
	for i := range rows {
		rows[i].MachineName = names[rows[i].MachineID]
	}
}

func fetchMachineNames(userID int64) (map[string]string, error) {
	rows, err := database.DB.Query(`SELECT id, name FROM machines WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying machines for userID %d: %w", userID, err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("error scanning machine row for userID %d: %w", userID, err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// fetchUserRecords loads the user's complete entry history ordered by date,
// then timestamp. Both the balance walk and the summaries always operate on
// this full snapshot; there is no incremental path.
func fetchUserRecords(userID int64) ([]models.EntryRecord, error) {
	logger.L.Debug("Fetching entry records from DB", "userID", userID)
	rows, err := database.DB.Query(`
		SELECT id, machine_id, date, timestamp,
			mada, visa, mastercard, gcc,
			bank_mada, bank_visa, bank_mastercard, bank_gcc,
			extras, notes
		FROM entry_records
		WHERE user_id = ?
		ORDER BY date ASC, timestamp ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying entry records for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var records []models.EntryRecord
	for rows.Next() {
		var rec models.EntryRecord
		var extrasJSON, notes sql.NullString
		scanErr := rows.Scan(&rec.ID, &rec.MachineID, &rec.Date, &rec.Timestamp,
			&rec.Mada, &rec.Visa, &rec.Mastercard, &rec.GCC,
			&rec.BankMada, &rec.BankVisa, &rec.BankMastercard, &rec.BankGCC,
			&extrasJSON, &notes)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning entry record row for userID %d: %w", userID, scanErr)
		}
		rec.UserID = userID
		rec.Notes = notes.String
		if extrasJSON.Valid && extrasJSON.String != "" && extrasJSON.String != "null" {
			if err := json.Unmarshal([]byte(extrasJSON.String), &rec.Extras); err != nil {
				logger.L.Warn("Dropping unreadable extras blob", "userID", userID, "recordID", rec.ID, "error", err)
				rec.Extras = nil
			}
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over entry record rows for userID %d: %w", userID, err)
	}
	logger.L.Debug("DB fetch complete", "userID", userID, "recordCount", len(records))
	return records, nil
}
