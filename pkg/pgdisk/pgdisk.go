// Package pgdisk stores a disk's sectors as rows in a postgres table, one
// row per sector that has ever been written.
package pgdisk

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/lib/pq"
	. "github.com/weberc2/nachofs/pkg/types"
)

// PGSectorStore holds the sectors of the disk called `Disk`. Several disks
// can share one table.
type PGSectorStore struct {
	DB   *sql.DB
	Disk string
}

const MissingTableErr ConstError = "postgres table `sectors` does not " +
	"exist; run `nachofs pg table ensure`"

func OpenEnv(disk string) (*PGSectorStore, error) {
	db, err := sql.Open(
		"postgres",
		fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("PG_HOST", "localhost"),
			getEnv("PG_PORT", "5432"),
			getEnv("PG_USER", "postgres"),
			getEnv("PG_PASS", ""),
			getEnv("PG_DB_NAME", "postgres"),
			getEnv("PG_SSL_MODE", "disable"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	return &PGSectorStore{DB: db, Disk: disk}, nil
}

func getEnv(env, def string) string {
	x := os.Getenv(env)
	if x == "" {
		return def
	}
	return x
}

func (store *PGSectorStore) EnsureTable() error {
	if _, err := store.DB.Exec(
		"CREATE TABLE IF NOT EXISTS sectors (" +
			"disk TEXT NOT NULL, " +
			"sector INTEGER NOT NULL, " +
			"data BYTEA NOT NULL, " +
			"PRIMARY KEY (disk, sector))",
	); err != nil {
		return fmt.Errorf("creating `sectors` postgres table: %w", err)
	}
	return nil
}

func (store *PGSectorStore) DropTable() error {
	if _, err := store.DB.Exec("DROP TABLE IF EXISTS sectors"); err != nil {
		return fmt.Errorf("dropping table `sectors`: %w", err)
	}
	return nil
}

func (store *PGSectorStore) ClearTable() error {
	if _, err := store.DB.Exec("DELETE FROM sectors"); err != nil {
		return fmt.Errorf("clearing `sectors` postgres table: %w", err)
	}
	return nil
}

func (store *PGSectorStore) ResetTable() error {
	if err := store.DropTable(); err != nil {
		return err
	}
	return store.EnsureTable()
}

// ClearDisk deletes every sector of this store's disk, leaving other disks
// alone. Afterwards every sector reads back as zeroes.
func (store *PGSectorStore) ClearDisk() error {
	if _, err := store.DB.Exec(
		"DELETE FROM sectors WHERE disk = $1",
		store.Disk,
	); err != nil {
		return fmt.Errorf(
			"clearing disk `%s` from postgres: %w",
			store.Disk,
			translate(err),
		)
	}
	return nil
}

// ReadSector fills `p` with the sector's data. Sectors that were never
// written read as zeroes, like a fresh disk.
func (store *PGSectorStore) ReadSector(sector Sector, p []byte) error {
	var data []byte
	if err := store.DB.QueryRow(
		"SELECT data FROM sectors WHERE disk = $1 AND sector = $2",
		store.Disk,
		int64(sector),
	).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			for i := range p {
				p[i] = 0
			}
			return nil
		}
		return fmt.Errorf(
			"reading sector `%d` of disk `%s` from postgres: %w",
			sector,
			store.Disk,
			translate(err),
		)
	}
	if len(data) != len(p) {
		return fmt.Errorf(
			"reading sector `%d` of disk `%s` from postgres: wanted `%d` "+
				"bytes; found `%d`",
			sector,
			store.Disk,
			len(p),
			len(data),
		)
	}
	copy(p, data)
	return nil
}

func (store *PGSectorStore) WriteSector(sector Sector, p []byte) error {
	if _, err := store.DB.Exec(
		"INSERT INTO sectors (disk, sector, data) VALUES($1, $2, $3) "+
			"ON CONFLICT (disk, sector) DO UPDATE SET data = EXCLUDED.data",
		store.Disk,
		int64(sector),
		p,
	); err != nil {
		return fmt.Errorf(
			"writing sector `%d` of disk `%s` to postgres: %w",
			sector,
			store.Disk,
			translate(err),
		)
	}
	return nil
}

// Written returns the number of sectors of this disk that have rows.
func (store *PGSectorStore) Written() (int, error) {
	var n int
	if err := store.DB.QueryRow(
		"SELECT COUNT(*) FROM sectors WHERE disk = $1",
		store.Disk,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf(
			"counting sectors of disk `%s` in postgres: %w",
			store.Disk,
			translate(err),
		)
	}
	return n, nil
}

func (store *PGSectorStore) Close() error {
	return store.DB.Close()
}

func translate(err error) error {
	const errUndefinedTable = "42P01"
	if err, ok := err.(*pq.Error); ok && err.Code == errUndefinedTable {
		return MissingTableErr
	}
	return err
}
