package models

// ExtraField is one user-defined payment line beyond the four fixed card
// networks. The label it is stored under is free text; only uniqueness
// within a record matters.
type ExtraField struct {
	Slip      float64 `json:"slip"`
	Statement float64 `json:"statement"`
}

// EntryRecord is one submitted reconciliation entry for one machine on one
// calendar date. Only raw amounts are persisted: opening/closing balances,
// totals and the difference are always recomputed from the full history.
type EntryRecord struct {
	ID        string `json:"id"`
	UserID    int64  `json:"-"`
	MachineID string `json:"machineId"`
	Date      string `json:"date"`      // YYYY-MM-DD, no time component
	Timestamp int64  `json:"timestamp"` // unix millis; orders entries within a date, never used in balance math

	// Slip side: what the terminal reported per network.
	Mada       float64 `json:"mada"`
	Visa       float64 `json:"visa"`
	Mastercard float64 `json:"mastercard"`
	GCC        float64 `json:"gcc"`

	// Statement side: what the bank actually credited.
	BankMada       float64 `json:"bankMada"`
	BankVisa       float64 `json:"bankVisa"`
	BankMastercard float64 `json:"bankMastercard"`
	BankGCC        float64 `json:"bankGcc"`

	Extras map[string]ExtraField `json:"extras,omitempty"`
	Notes  string                `json:"notes,omitempty"`
}

// Machine is a card terminal. It carries no financial state; it is a
// dimension used to filter and group entry records.
type Machine struct {
	ID       string `json:"id"`
	UserID   int64  `json:"-"`
	Name     string `json:"name"`
	BankName string `json:"bankName"`
	Active   bool   `json:"active"`
}

// BusinessProfile holds the header fields printed on exported statements.
type BusinessProfile struct {
	UserID       int64  `json:"-"`
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	VATNumber    string `json:"vatNumber"`
}
