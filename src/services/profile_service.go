package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/slipfolio/src/database"
	"github.com/username/slipfolio/src/models"
)

// ProfileService stores the business header printed on exported statements.
type ProfileService interface {
	GetProfile(userID int64) (*models.BusinessProfile, error)
	SaveProfile(userID int64, p models.BusinessProfile) (*models.BusinessProfile, error)
}

type profileServiceImpl struct{}

func NewProfileService() ProfileService {
	return &profileServiceImpl{}
}

// GetProfile returns an empty profile when none has been saved yet, so the
// frontend always gets a form it can populate.
func (s *profileServiceImpl) GetProfile(userID int64) (*models.BusinessProfile, error) {
	var p models.BusinessProfile
	err := database.DB.QueryRow(`
		SELECT user_id, business_name, owner_name, phone, address, vat_number
		FROM business_profile
		WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.BusinessName, &p.OwnerName, &p.Phone, &p.Address, &p.VATNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.BusinessProfile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("error loading business profile for userID %d: %w", userID, err)
	}
	return &p, nil
}

func (s *profileServiceImpl) SaveProfile(userID int64, p models.BusinessProfile) (*models.BusinessProfile, error) {
	p.UserID = userID
	_, err := database.DB.Exec(`
		INSERT INTO business_profile (user_id, business_name, owner_name, phone, address, vat_number, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			business_name = excluded.business_name,
			owner_name = excluded.owner_name,
			phone = excluded.phone,
			address = excluded.address,
			vat_number = excluded.vat_number,
			updated_at = CURRENT_TIMESTAMP`,
		p.UserID, p.BusinessName, p.OwnerName, p.Phone, p.Address, p.VATNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("error saving business profile for userID %d: %w", userID, err)
	}
	return &p, nil
}
