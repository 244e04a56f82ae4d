package imagestore

import (
	"database/sql"
	"encoding/hex"
	stderrors "errors"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS images (
	name   TEXT PRIMARY KEY,
	data   BLOB NOT NULL,
	digest TEXT NOT NULL,
	mime   TEXT NOT NULL
)`

// Entry describes a stored image.
type Entry struct {
	Name   string
	Digest string // BLAKE3, hex
	MIME   string
	Size   int
}

// SQLite keeps images in the images table of a SQLite database.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*SQLite, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open image database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create images table in %s", path)
	}
	return &SQLite{db: db}, nil
}

// OpenReadOnly opens an existing database for loading. Save fails on it.
func OpenReadOnly(path string) (*SQLite, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("image database", path)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open image database %s", path)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Save stores data under name, replacing an earlier image of that name.
func (s *SQLite) Save(data []byte, name string) error {
	clean, err := CheckName(name)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO images (name, data, digest, mime) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, digest = excluded.digest, mime = excluded.mime`,
		clean, data, Digest(data), mimetype.Detect(data).String())
	if err != nil {
		return errors.NewIO("insert", clean, err)
	}
	return nil
}

// Load returns the image called name.
func (s *SQLite) Load(name string) ([]byte, error) {
	clean, err := CheckName(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.QueryRow(`SELECT data FROM images WHERE name = ?`, clean).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("image", clean)
	}
	if err != nil {
		return nil, errors.NewIO("select", clean, err)
	}
	return data, nil
}

// List returns the stored images ordered by name.
func (s *SQLite) List() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT name, digest, mime, length(data) FROM images ORDER BY name`)
	if err != nil {
		return nil, errors.NewIO("select", "images", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Digest, &e.MIME, &e.Size); err != nil {
			return nil, errors.NewIO("scan", "images", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
