package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const linkSchema = `
	CREATE TABLE IF NOT EXISTS mylinks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		folder TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		img TEXT NOT NULL DEFAULT '',
		isfav INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		created_time DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_mylinks_created_time ON mylinks(created_time);

	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER NOT NULL,
		referer TEXT,
		user_agent TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(link_id) REFERENCES mylinks(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_visits_link_id ON visits(link_id);
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	db, err := Open(dbURL, linkSchema)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const selectColumns = `id, link, title, description, folder, tags, img, isfav, clicks, created_time`

func scanRow(scan func(dest ...any) error) (domain.LinkRow, error) {
	var row domain.LinkRow
	var isFav int64
	err := scan(&row.ID, &row.Link, &row.Title, &row.Description, &row.Folder,
		&row.Tags, &row.Img, &isFav, &row.Clicks, &row.CreatedTime)
	row.IsFav = isFav == 1
	return row, err
}

func (r *SQLiteRepository) Create(ctx context.Context, row *domain.LinkRow) error {
	query := `INSERT INTO mylinks (link, title, description, folder, tags, img, isfav, clicks, created_time)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if row.CreatedTime.IsZero() {
		row.CreatedTime = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, query, row.Link, row.Title, row.Description, row.Folder,
		row.Tags, row.Img, boolToInt(row.IsFav), row.Clicks, row.CreatedTime)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	row.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*domain.LinkRow, error) {
	query := `SELECT ` + selectColumns + ` FROM mylinks WHERE id = ?`

	row, err := scanRow(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update replaces every mutable column; created_time is immutable.
func (r *SQLiteRepository) Update(ctx context.Context, row *domain.LinkRow) error {
	query := `UPDATE mylinks SET link = ?, title = ?, description = ?, folder = ?, tags = ?,
			  img = ?, isfav = ?, clicks = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, row.Link, row.Title, row.Description, row.Folder,
		row.Tags, row.Img, boolToInt(row.IsFav), row.Clicks, row.ID)
	return err
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE link_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mylinks WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) List(ctx context.Context) ([]domain.LinkRow, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM mylinks ORDER BY created_time DESC, id DESC`)
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.LinkRow, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM mylinks ORDER BY id ASC`)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]domain.LinkRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.LinkRow{}
	for rows.Next() {
		row, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		links = append(links, row)
	}
	return links, rows.Err()
}

// RecordVisit inserts the visit and increments the counter in one
// transaction, returning the new count.
func (r *SQLiteRepository) RecordVisit(ctx context.Context, visit *domain.Visit) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// 1. Increment Link Clicks Counter (Atomic)
	res, err := tx.ExecContext(ctx, `UPDATE mylinks SET clicks = clicks + 1 WHERE id = ?`, visit.LinkID)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, domain.ErrLinkNotFound
	}

	// 2. Insert Visit Record
	queryVisit := `INSERT INTO visits (link_id, referer, user_agent, created_at) VALUES (?, ?, ?, ?)`
	res, err = tx.ExecContext(ctx, queryVisit, visit.LinkID, visit.Referer, visit.UserAgent, visit.CreatedAt.UTC().Format(domain.WireTimeLayout))
	if err != nil {
		return 0, err
	}
	if id, err := res.LastInsertId(); err == nil {
		visit.ID = id
	}

	var clicks int64
	if err := tx.QueryRowContext(ctx, `SELECT clicks FROM mylinks WHERE id = ?`, visit.LinkID).Scan(&clicks); err != nil {
		return 0, err
	}

	return clicks, tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
