// Package storage caches fetched paper metadata in SQLite so repeated
// traces of the same paper skip the bibliographic APIs.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

// DB wraps the SQLite cache connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the cache database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		-- One row per fetched paper, keyed by the classified identifier
		-- string (e.g. "doi:10.1234/x", "arxiv:2103.02607").
		CREATE TABLE IF NOT EXISTS papers (
			key TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			year INTEGER,
			doi TEXT,
			arxiv_id TEXT,
			bibcode TEXT,
			openalex_id TEXT,
			fetched_at INTEGER NOT NULL
		);

		-- Citing papers for one cached paper, in fetch order.
		CREATE TABLE IF NOT EXISTS citations (
			paper_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			year INTEGER,
			doi TEXT,
			arxiv_id TEXT,
			bibcode TEXT,
			openalex_id TEXT,
			PRIMARY KEY (paper_key, position)
		);

		-- Marks that citations were fetched for a key, so a paper with
		-- zero citing papers is still a cache hit.
		CREATE TABLE IF NOT EXISTS citation_fetches (
			paper_key TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// PutPaper stores fetched metadata under the given identifier key,
// replacing any previous entry.
func (d *DB) PutPaper(key string, paper reference.Paper) error {
	authors, err := json.Marshal(paper.Authors)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`
		INSERT OR REPLACE INTO papers
			(key, title, authors_json, year, doi, arxiv_id, bibcode, openalex_id, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key, paper.Title, string(authors), paper.Year,
		paper.DOI, paper.ArXivID, paper.Bibcode, paper.OpenAlexID,
		time.Now().Unix())
	if err != nil {
		return fmt.Errorf("caching paper %s: %w", key, err)
	}
	return nil
}

// GetPaper returns cached metadata for the identifier key. ok is false
// on a cache miss.
func (d *DB) GetPaper(key string) (paper reference.Paper, ok bool, err error) {
	var authorsJSON string
	row := d.db.QueryRow(`
		SELECT title, authors_json, year, doi, arxiv_id, bibcode, openalex_id
		FROM papers WHERE key = ?`, key)
	err = row.Scan(&paper.Title, &authorsJSON, &paper.Year,
		&paper.DOI, &paper.ArXivID, &paper.Bibcode, &paper.OpenAlexID)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Paper{}, false, nil
	}
	if err != nil {
		return reference.Paper{}, false, fmt.Errorf("reading cache for %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(authorsJSON), &paper.Authors); err != nil {
		return reference.Paper{}, false, fmt.Errorf("decoding authors for %s: %w", key, err)
	}
	return paper, true, nil
}

// PutCitations stores the citing-paper list for an identifier key,
// replacing any previous list.
func (d *DB) PutCitations(key string, papers []reference.Paper) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM citations WHERE paper_key = ?`, key); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO citation_fetches (paper_key, fetched_at) VALUES (?, ?)`,
		key, time.Now().Unix()); err != nil {
		return err
	}
	for i, p := range papers {
		authors, err := json.Marshal(p.Authors)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO citations
				(paper_key, position, title, authors_json, year, doi, arxiv_id, bibcode, openalex_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, i, p.Title, string(authors), p.Year,
			p.DOI, p.ArXivID, p.Bibcode, p.OpenAlexID)
		if err != nil {
			return fmt.Errorf("caching citation %d for %s: %w", i, key, err)
		}
	}

	return tx.Commit()
}

// GetCitations returns the cached citing-paper list for an identifier
// key. ok is false when no list has been cached; an empty cached list
// is a valid hit.
func (d *DB) GetCitations(key string) (papers []reference.Paper, ok bool, err error) {
	var fetched int
	row := d.db.QueryRow(`SELECT COUNT(*) FROM citation_fetches WHERE paper_key = ?`, key)
	if err := row.Scan(&fetched); err != nil {
		return nil, false, err
	}
	if fetched == 0 {
		return nil, false, nil
	}

	rows, err := d.db.Query(`
		SELECT title, authors_json, year, doi, arxiv_id, bibcode, openalex_id
		FROM citations WHERE paper_key = ? ORDER BY position`, key)
	if err != nil {
		return nil, false, fmt.Errorf("reading cached citations for %s: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p reference.Paper
		var authorsJSON string
		if err := rows.Scan(&p.Title, &authorsJSON, &p.Year,
			&p.DOI, &p.ArXivID, &p.Bibcode, &p.OpenAlexID); err != nil {
			return nil, false, err
		}
		if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
			return nil, false, err
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	if papers == nil {
		papers = []reference.Paper{}
	}
	return papers, true, nil
}
