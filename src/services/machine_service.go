package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/username/slipfolio/src/database"
	"github.com/username/slipfolio/src/models"
)

var (
	// ErrMachineInUse means entry records still reference the machine;
	// deleting it would orphan history that balances are derived from.
	ErrMachineInUse = errors.New("machine still has entry records")

	ErrMachineNameRequired = errors.New("machine name is required")
)

// MachineService manages the card terminals a user reconciles against.
type MachineService interface {
	CreateMachine(userID int64, m models.Machine) (*models.Machine, error)
	ListMachines(userID int64) ([]models.Machine, error)
	UpdateMachine(userID int64, m models.Machine) (*models.Machine, error)
	DeleteMachine(userID int64, machineID string) error
}

type machineServiceImpl struct {
	reports ReportService
}

func NewMachineService(reports ReportService) MachineService {
	return &machineServiceImpl{reports: reports}
}

func (s *machineServiceImpl) CreateMachine(userID int64, m models.Machine) (*models.Machine, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, ErrMachineNameRequired
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.UserID = userID

	_, err := database.DB.Exec(`
		INSERT INTO machines (id, user_id, name, bank_name, active)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.BankName, m.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating machine for userID %d: %w", userID, err)
	}
	return &m, nil
}

func (s *machineServiceImpl) ListMachines(userID int64) ([]models.Machine, error) {
	rows, err := database.DB.Query(`
		SELECT id, user_id, name, bank_name, active
		FROM machines
		WHERE user_id = ?
		ORDER BY name ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying machines for userID %d: %w", userID, err)
	}
	defer rows.Close()

	machines := make([]models.Machine, 0)
	for rows.Next() {
		var m models.Machine
		var bankName sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &bankName, &m.Active); err != nil {
			return nil, fmt.Errorf("error scanning machine row: %w", err)
		}
		m.BankName = bankName.String
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

func (s *machineServiceImpl) UpdateMachine(userID int64, m models.Machine) (*models.Machine, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, ErrMachineNameRequired
	}

	res, err := database.DB.Exec(`
		UPDATE machines
		SET name = ?, bank_name = ?, active = ?
		WHERE id = ? AND user_id = ?`,
		m.Name, m.BankName, m.Active, m.ID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error updating machine %s: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrMachineNotFound
	}
	m.UserID = userID
	return &m, nil
}

// DeleteMachine refuses to delete a machine that still has entry records:
// the record history is the only source of balances, so it must never be
// orphaned. Deactivate the machine instead to hide it from entry forms.
func (s *machineServiceImpl) DeleteMachine(userID int64, machineID string) error {
	var ownerID int64
	err := database.DB.QueryRow(`SELECT user_id FROM machines WHERE id = ?`, machineID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMachineNotFound
		}
		return fmt.Errorf("error looking up machine %s: %w", machineID, err)
	}
	if ownerID != userID {
		return ErrNotMachineOwner
	}

	var count int
	err = database.DB.QueryRow(`SELECT COUNT(1) FROM entry_records WHERE machine_id = ? AND user_id = ?`, machineID, userID).Scan(&count)
	if err != nil {
		return fmt.Errorf("error counting entry records for machine %s: %w", machineID, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d records reference machine %s", ErrMachineInUse, count, machineID)
	}

	if _, err := database.DB.Exec(`DELETE FROM machines WHERE id = ? AND user_id = ?`, machineID, userID); err != nil {
		return fmt.Errorf("error deleting machine %s: %w", machineID, err)
	}
	s.reports.InvalidateUserCache(userID)
	return nil
}
