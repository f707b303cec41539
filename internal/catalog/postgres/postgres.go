// Package postgres implements the catalog store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/magpie/internal/catalog"
)

var (
	_ catalog.Store = (*store)(nil)
	_ catalog.Tx    = (*tx)(nil)
)

type store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id BIGSERIAL PRIMARY KEY,
	query_text TEXT NOT NULL,
	total_urls INTEGER NOT NULL DEFAULT 0,
	unique_urls INTEGER NOT NULL DEFAULT 0,
	duplicate_count INTEGER NOT NULL DEFAULT 0,
	ads_removed INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id BIGSERIAL PRIMARY KEY,
	query_id BIGINT NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	url TEXT NOT NULL UNIQUE,
	engines TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL CHECK (content_type IN ('page', 'image')),
	domain TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	scrapable BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS keyword_counts (
	id BIGSERIAL PRIMARY KEY,
	url_id BIGINT NOT NULL REFERENCES urls(id) ON DELETE CASCADE,
	keyword TEXT NOT NULL,
	occurrence INTEGER NOT NULL DEFAULT 0,
	content_tag TEXT NOT NULL CHECK (content_tag IN ('text', 'image')),
	UNIQUE (url_id, keyword)
);

CREATE TABLE IF NOT EXISTS query_urls (
	query_id BIGINT NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	url_id BIGINT NOT NULL REFERENCES urls(id) ON DELETE CASCADE,
	PRIMARY KEY (query_id, url_id)
);
`

// New connects to PostgreSQL and provisions the catalog schema.
func New(ctx context.Context, dsn string) (catalog.Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("provision schema: %w", err)
	}
	return &store{pool: pool}, nil
}

func (s *store) Begin(ctx context.Context) (catalog.Tx, error) {
	t, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &tx{tx: t}, nil
}

func (s *store) Close() error {
	s.pool.Close()
	return nil
}

type tx struct {
	tx pgx.Tx
}

func (t *tx) InsertQuery(ctx context.Context, q *catalog.Query) (int64, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	err := t.tx.QueryRow(ctx, `
		INSERT INTO queries (query_text, total_urls, unique_urls, duplicate_count, ads_removed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		q.Text, q.TotalURLs, q.UniqueURLs, q.Duplicates, q.AdsRemoved, q.CreatedAt,
	).Scan(&q.ID)
	if err != nil {
		return 0, fmt.Errorf("insert query: %w", err)
	}
	return q.ID, nil
}

func (t *tx) SetQueryDuplicates(ctx context.Context, queryID int64, duplicates int) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE queries SET duplicate_count = $1 WHERE id = $2`, duplicates, queryID)
	if err != nil {
		return fmt.Errorf("update duplicates: %w", err)
	}
	return nil
}

func (t *tx) DeleteQuery(ctx context.Context, queryID int64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE urls SET query_id = sub.new_owner
		FROM (
			SELECT qu.url_id, MIN(qu.query_id) AS new_owner
			FROM query_urls qu
			WHERE qu.query_id != $1
			GROUP BY qu.url_id
		) sub
		WHERE urls.id = sub.url_id AND urls.query_id = $1`, queryID)
	if err != nil {
		return fmt.Errorf("reassign shared urls: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM queries WHERE id = $1`, queryID); err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	return nil
}

const urlColumns = `id, query_id, url, engines, content_type, domain, title, description, scrapable, created_at`

func (t *tx) FindURL(ctx context.Context, rawURL string) (*catalog.URL, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+urlColumns+` FROM urls WHERE url = $1 LIMIT 1`, rawURL)

	u, err := scanURL(row)
	if err == pgx.ErrNoRows {
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

	err := t.tx.QueryRow(ctx, `
		INSERT INTO urls (query_id, url, engines, content_type, domain, title, description, scrapable, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		u.QueryID, u.URL, catalog.JoinEngines(u.Engines), string(u.Type),
		u.Domain, u.Title, u.Description, u.Scrapable, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return 0, fmt.Errorf("insert url: %w", err)
	}
	return u.ID, nil
}

func (t *tx) SetURLEngines(ctx context.Context, urlID int64, engines []string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE urls SET engines = $1 WHERE id = $2`, catalog.JoinEngines(engines), urlID)
	if err != nil {
		return fmt.Errorf("update engines: %w", err)
	}
	return nil
}

func (t *tx) LinkQueryURL(ctx context.Context, queryID, urlID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO query_urls (query_id, url_id) VALUES ($1, $2)
		ON CONFLICT (query_id, url_id) DO NOTHING`, queryID, urlID)
	if err != nil {
		return fmt.Errorf("link query url: %w", err)
	}
	return nil
}

func (t *tx) UpsertKeywordCount(ctx context.Context, kc *catalog.KeywordCount) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO keyword_counts (url_id, keyword, occurrence, content_tag)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url_id, keyword) DO UPDATE SET
			occurrence = EXCLUDED.occurrence,
			content_tag = EXCLUDED.content_tag`,
		kc.URLID, kc.Keyword, kc.Occurrence, string(kc.Tag),
	)
	if err != nil {
		return fmt.Errorf("upsert keyword count: %w", err)
	}
	return nil
}

func (t *tx) KeywordCounts(ctx context.Context, urlID int64) ([]catalog.KeywordCount, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, url_id, keyword, occurrence, content_tag
		FROM keyword_counts WHERE url_id = $1
		ORDER BY keyword ASC`, urlID)
	if err != nil {
		return nil, fmt.Errorf("keyword counts: %w", err)
	}
	defer rows.Close()
	return scanKeywordCounts(rows)
}

func (t *tx) CreateKeywordSet(ctx context.Context, keywords []string) error {
	if _, err := t.tx.Exec(ctx, `
		CREATE TEMPORARY TABLE temp_keywords (keyword TEXT PRIMARY KEY)
		ON COMMIT DROP`); err != nil {
		return fmt.Errorf("create keyword set: %w", err)
	}
	for _, kw := range keywords {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO temp_keywords (keyword) VALUES ($1)
			ON CONFLICT (keyword) DO NOTHING`, kw); err != nil {
			return fmt.Errorf("fill keyword set: %w", err)
		}
	}
	return nil
}

func (t *tx) DropKeywordSet(ctx context.Context) error {
	if _, err := t.tx.Exec(ctx, `DROP TABLE IF EXISTS temp_keywords`); err != nil {
		return fmt.Errorf("drop keyword set: %w", err)
	}
	return nil
}

func (t *tx) CountMatchingURLs(ctx context.Context) (int, error) {
	var total int
	err := t.tx.QueryRow(ctx, `
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
	rows, err := t.tx.Query(ctx, `
		SELECT u.id, u.query_id, u.url, u.engines, u.content_type, u.domain,
		       u.title, u.description, u.scrapable, u.created_at,
		       SUM(kc.occurrence) AS total_occurrences,
		       SUM(CASE WHEN kc.content_tag = 'text' THEN kc.occurrence ELSE 0 END) AS text_matches,
		       SUM(CASE WHEN kc.content_tag = 'image' THEN kc.occurrence ELSE 0 END) AS image_matches
		FROM urls u
		JOIN keyword_counts kc ON kc.url_id = u.id
		JOIN temp_keywords tk ON tk.keyword = kc.keyword
		GROUP BY u.id
		ORDER BY total_occurrences DESC, u.id ASC
		LIMIT $1 OFFSET $2`, limit, offset)
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
	rows, err := t.tx.Query(ctx, `
		SELECT kc.id, kc.url_id, kc.keyword, kc.occurrence, kc.content_tag
		FROM keyword_counts kc
		JOIN temp_keywords tk ON tk.keyword = kc.keyword
		WHERE kc.url_id = $1
		ORDER BY kc.occurrence DESC, kc.keyword ASC`, urlID)
	if err != nil {
		return nil, fmt.Errorf("keyword breakdown: %w", err)
	}
	defer rows.Close()
	return scanKeywordCounts(rows)
}

func (t *tx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *tx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

func scanURL(row pgx.Row) (*catalog.URL, error) {
	var (
		u       catalog.URL
		engines string
		ctype   string
	)
	err := row.Scan(&u.ID, &u.QueryID, &u.URL, &engines, &ctype,
		&u.Domain, &u.Title, &u.Description, &u.Scrapable, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Engines = catalog.SplitEngines(engines)
	u.Type = catalog.ContentType(ctype)
	return &u, nil
}

func scanKeywordCounts(rows pgx.Rows) ([]catalog.KeywordCount, error) {
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
