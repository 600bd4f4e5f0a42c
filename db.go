package draw

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// Store is durable key/value storage backed by a SQLite database, standing
// in for the host's local storage.
type Store struct {
	db *sql.DB
}

// NewStore opens, creating if necessary, the database in file.
func NewStore(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS setting (key TEXT PRIMARY KEY NOT NULL, value BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Get returns the value stored under key, or nil if there is none.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	switch err := s.db.QueryRow("SELECT value FROM setting WHERE key = ?", key).Scan(&value); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if value == nil {
			value = []byte{}
		}
		return value, nil
	default:
		return nil, err
	}
}

// SetMany stores every key and value in a single transaction.
func (s *Store) SetMany(values map[string][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	for key, value := range values {
		if value == nil {
			value = []byte{}
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO setting (key, value) VALUES (?, ?)", key, value); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
