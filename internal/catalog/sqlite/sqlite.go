package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FranksOps/magpie/internal/catalog"
	_ "modernc.org/sqlite"
)

// ensure the interfaces are satisfied
var (
	_ catalog.Store = (*store)(nil)
	_ catalog.Tx    = (*tx)(nil)
)

type store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_text TEXT NOT NULL,
	total_urls INTEGER NOT NULL DEFAULT 0,
	unique_urls INTEGER NOT NULL DEFAULT 0,
	duplicate_count INTEGER NOT NULL DEFAULT 0,
	ads_removed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id INTEGER NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	url TEXT NOT NULL UNIQUE,
	engines TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL CHECK (content_type IN ('page', 'image')),
	domain TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	scrapable BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS keyword_counts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url_id INTEGER NOT NULL REFERENCES urls(id) ON DELETE CASCADE,
	keyword TEXT NOT NULL,
	occurrence INTEGER NOT NULL DEFAULT 0,
	content_tag TEXT NOT NULL CHECK (content_tag IN ('text', 'image')),
	UNIQUE (url_id, keyword)
);

CREATE TABLE IF NOT EXISTS query_urls (
	query_id INTEGER NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	url_id INTEGER NOT NULL REFERENCES urls(id) ON DELETE CASCADE,
	PRIMARY KEY (query_id, url_id)
);
`

// New opens (and provisions) a SQLite-backed catalog store. The connection
// pool is capped at one connection so PRAGMA state and temp tables stay on
// the connection that set them up; runs are single-threaded and never need
// more.
func New(dsn string) (catalog.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("provision schema: %w", err)
	}

	return &store{db: db}, nil
}

func (s *store) Begin(ctx context.Context) (catalog.Tx, error) {
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &tx{tx: t}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

type tx struct {
	tx *sql.Tx
}

func (t *tx) InsertQuery(ctx context.Context, q *catalog.Query) (int64, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO queries (query_text, total_urls, unique_urls, duplicate_count, ads_removed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.Text, q.TotalURLs, q.UniqueURLs, q.Duplicates, q.AdsRemoved, q.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("query id: %w", err)
	}
	q.ID = id
	return id, nil
}

func (t *tx) SetQueryDuplicates(ctx context.Context, queryID int64, duplicates int) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE queries SET duplicate_count = ? WHERE id = ?`, duplicates, queryID)
	if err != nil {
		return fmt.Errorf("update duplicates: %w", err)
	}
	return nil
}

func (t *tx) DeleteQuery(ctx context.Context, queryID int64) error {
	// Reassign URLs this run first observed but other runs still reference;
	// the cascade below then only reaches unshared ones.
	_, err := t.tx.ExecContext(ctx, `
		UPDATE urls SET query_id = (
			SELECT MIN(qu.query_id) FROM query_urls qu
			WHERE qu.url_id = urls.id AND qu.query_id != ?1
		)
		WHERE query_id = ?1
		AND EXISTS (
			SELECT 1 FROM query_urls qu
			WHERE qu.url_id = urls.id AND qu.query_id != ?1
		)`, queryID)
	if err != nil {
		return fmt.Errorf("reassign shared urls: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM queries WHERE id = ?`, queryID); err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	return nil
}

const urlColumns = `id, query_id, url, engines, content_type, domain, title, description, scrapable, created_at`

func (t *tx) FindURL(ctx context.Context, rawURL string) (*catalog.URL, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+urlColumns+` FROM urls WHERE url = ? LIMIT 1`, rawURL)

	u, err := scanURL(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find url: %w", err)
	}
	return u, nil
}

func (t *tx) InsertURL(ctx context.Context, u *catalog.URL) (int64, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO urls (query_id, url, engines, content_type, domain, title, description, scrapable, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.QueryID, u.URL, catalog.JoinEngines(u.Engines), string(u.Type),
		u.Domain, u.Title, u.Description, u.Scrapable, u.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert url: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("url id: %w", err)
	}
	u.ID = id
	return id, nil
}

func (t *tx) SetURLEngines(ctx context.Context, urlID int64, engines []string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE urls SET engines = ? WHERE id = ?`, catalog.JoinEngines(engines), urlID)
	if err != nil {
		return fmt.Errorf("update engines: %w", err)
	}
	return nil
}

func (t *tx) LinkQueryURL(ctx context.Context, queryID, urlID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO query_urls (query_id, url_id) VALUES (?, ?)
		ON CONFLICT (query_id, url_id) DO NOTHING`, queryID, urlID)
	if err != nil {
		return fmt.Errorf("link query url: %w", err)
	}
	return nil
}

func (t *tx) UpsertKeywordCount(ctx context.Context, kc *catalog.KeywordCount) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO keyword_counts (url_id, keyword, occurrence, content_tag)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (url_id, keyword) DO UPDATE SET
			occurrence = excluded.occurrence,
			content_tag = excluded.content_tag`,
		kc.URLID, kc.Keyword, kc.Occurrence, string(kc.Tag),
	)
	if err != nil {
		return fmt.Errorf("upsert keyword count: %w", err)
	}
	return nil
}

func (t *tx) KeywordCounts(ctx context.Context, urlID int64) ([]catalog.KeywordCount, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, url_id, keyword, occurrence, content_tag
		FROM keyword_counts WHERE url_id = ?
		ORDER BY keyword ASC`, urlID)
	if err != nil {
		return nil, fmt.Errorf("keyword counts: %w", err)
	}
	defer rows.Close()
	return scanKeywordCounts(rows)
}

func (t *tx) CreateKeywordSet(ctx context.Context, keywords []string) error {
	if _, err := t.tx.ExecContext(ctx,
		`CREATE TEMPORARY TABLE temp_keywords (keyword TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create keyword set: %w", err)
	}
	for _, kw := range keywords {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO temp_keywords (keyword) VALUES (?)`, kw); err != nil {
			return fmt.Errorf("fill keyword set: %w", err)
		}
	}
	return nil
}

func (t *tx) DropKeywordSet(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DROP TABLE IF EXISTS temp_keywords`); err != nil {
		return fmt.Errorf("drop keyword set: %w", err)
	}
	return nil
}

func (t *tx) CountMatchingURLs(ctx context.Context) (int, error) {
	var total int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT u.id)
		FROM urls u
		JOIN keyword_counts kc ON kc.url_id = u.id
		JOIN temp_keywords tk ON tk.keyword = kc.keyword`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count matching urls: %w", err)
	}
	return total, nil
}

func (t *tx) RankPage(ctx context.Context, limit, offset int) ([]catalog.RankedURL, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT u.id, u.query_id, u.url, u.engines, u.content_type, u.domain,
		       u.title, u.description, u.scrapable, u.created_at,
		       SUM(kc.occurrence) AS total_occurrences,
		       SUM(CASE WHEN kc.content_tag = 'text' THEN kc.occurrence ELSE 0 END) AS text_matches,
		       SUM(CASE WHEN kc.content_tag = 'image' THEN kc.occurrence ELSE 0 END) AS image_matches
		FROM urls u
		JOIN keyword_counts kc ON kc.url_id = u.id
		JOIN temp_keywords tk ON tk.keyword = kc.keyword
		GROUP BY u.id, u.query_id, u.url, u.engines, u.content_type, u.domain,
		         u.title, u.description, u.scrapable, u.created_at
		ORDER BY total_occurrences DESC, u.id ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("rank page: %w", err)
	}
	defer rows.Close()

	var out []catalog.RankedURL
	for rows.Next() {
		var (
			r       catalog.RankedURL
			engines string
			ctype   string
		)
		err := rows.Scan(
			&r.ID, &r.QueryID, &r.URL.URL, &engines, &ctype, &r.Domain,
			&r.Title, &r.Description, &r.Scrapable, &r.CreatedAt,
			&r.TotalOccurrences, &r.TextMatches, &r.ImageMatches,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ranked url: %w", err)
		}
		r.Engines = catalog.SplitEngines(engines)
		r.Type = catalog.ContentType(ctype)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rank page rows: %w", err)
	}
	return out, nil
}

func (t *tx) KeywordBreakdown(ctx context.Context, urlID int64) ([]catalog.KeywordCount, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT kc.id, kc.url_id, kc.keyword, kc.occurrence, kc.content_tag
		FROM keyword_counts kc
		JOIN temp_keywords tk ON tk.keyword = kc.keyword
		WHERE kc.url_id = ?
		ORDER BY kc.occurrence DESC, kc.keyword ASC`, urlID)
	if err != nil {
		return nil, fmt.Errorf("keyword breakdown: %w", err)
	}
	defer rows.Close()
	return scanKeywordCounts(rows)
}

func (t *tx) Commit() error {
	return t.tx.Commit()
}

func (t *tx) Rollback() error {
	return t.tx.Rollback()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanURL(s scanner) (*catalog.URL, error) {
	var (
		u       catalog.URL
		engines string
		ctype   string
	)
	err := s.Scan(&u.ID, &u.QueryID, &u.URL, &engines, &ctype,
		&u.Domain, &u.Title, &u.Description, &u.Scrapable, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Engines = catalog.SplitEngines(engines)
	u.Type = catalog.ContentType(ctype)
	return &u, nil
}

func scanKeywordCounts(rows *sql.Rows) ([]catalog.KeywordCount, error) {
	var out []catalog.KeywordCount
	for rows.Next() {
		var (
			kc  catalog.KeywordCount
			tag string
		)
		if err := rows.Scan(&kc.ID, &kc.URLID, &kc.Keyword, &kc.Occurrence, &tag); err != nil {
			return nil, fmt.Errorf("scan keyword count: %w", err)
		}
		kc.Tag = catalog.KeywordTag(tag)
		out = append(out, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keyword count rows: %w", err)
	}
	return out, nil
}
