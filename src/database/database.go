package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/slipfolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateEntryRecordsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		is_email_verified BOOLEAN DEFAULT FALSE,
		email_verification_token TEXT,
		email_verification_token_expires_at TIMESTAMP,
		password_reset_token TEXT,
		password_reset_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		bank_name TEXT,
		active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS entry_records (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		machine_id TEXT NOT NULL,
		date TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		mada REAL DEFAULT 0,
		visa REAL DEFAULT 0,
		mastercard REAL DEFAULT 0,
		gcc REAL DEFAULT 0,
		bank_mada REAL DEFAULT 0,
		bank_visa REAL DEFAULT 0,
		bank_mastercard REAL DEFAULT 0,
		bank_gcc REAL DEFAULT 0,
		extras TEXT,
		notes TEXT,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(machine_id) REFERENCES machines(id)
	);
	CREATE INDEX IF NOT EXISTS idx_entry_records_user_machine_date
		ON entry_records(user_id, machine_id, date);

	CREATE TABLE IF NOT EXISTS business_profile (
		user_id INTEGER PRIMARY KEY,
		business_name TEXT,
		owner_name TEXT,
		phone TEXT,
		address TEXT,
		vat_number TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateEntryRecordsTable adds columns introduced after the first release
// to databases created before them. Balances are derived, never stored, so
// there is deliberately no balance column to migrate.
func migrateEntryRecordsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='entry_records'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'entry_records' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'entry_records' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'entry_records' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'entry_records' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(entry_records)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'entry_records'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'entry_records': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'entry_records'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'entry_records': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'entry_records'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'entry_records': %v", err)
		}
		return
	}

	if _, ok := columnExists["extras"]; !ok {
		_, err := DB.Exec("ALTER TABLE entry_records ADD COLUMN extras TEXT")
		if err != nil {
			logger.L.Error("Error adding 'extras' column to 'entry_records' table", "error", err)
		} else {
			logger.L.Info("Added 'extras' column to 'entry_records' table")
		}
	}
	if _, ok := columnExists["notes"]; !ok {
		_, err := DB.Exec("ALTER TABLE entry_records ADD COLUMN notes TEXT")
		if err != nil {
			logger.L.Error("Error adding 'notes' column to 'entry_records' table", "error", err)
		} else {
			logger.L.Info("Added 'notes' column to 'entry_records' table")
		}
	}
	if _, ok := columnExists["timestamp"]; !ok {
		_, err := DB.Exec("ALTER TABLE entry_records ADD COLUMN timestamp INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'timestamp' column to 'entry_records' table", "error", err)
		} else {
			logger.L.Info("Added 'timestamp' column to 'entry_records' table")
		}
	}
}
