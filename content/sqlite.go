package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/folio/imageurl"
)

// SQLiteStore keeps blog posts in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path, ensures the data
// directory exists, and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the seeder write while the server reads; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    excerpt TEXT,
    category TEXT,
    tags TEXT NOT NULL DEFAULT '',
    published_at TEXT,
    read_time INTEGER,
    featured_image TEXT,
    body TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
`)
	return err
}

const postColumns = `slug, title, excerpt, category, tags, published_at, read_time, featured_image`

// ListPosts returns every post ordered by publication date, newest first.
// Posts without a date sort last.
func (s *SQLiteStore) ListPosts(ctx context.Context) ([]PostSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY published_at IS NULL, published_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostSummary
	for rows.Next() {
		var r postRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		p, err := r.summary()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by slug.
func (s *SQLiteStore) GetPost(ctx context.Context, slug string) (Post, error) {
	var r postRow
	var body string
	dest := append(r.dest(), &body)
	err := s.db.QueryRowContext(ctx, `SELECT `+postColumns+`, body FROM posts WHERE slug = ?`, slug).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	sum, err := r.summary()
	if err != nil {
		return Post{}, err
	}
	return Post{PostSummary: sum, Body: body}, nil
}

// SavePost upserts a post.
func (s *SQLiteStore) SavePost(ctx context.Context, p Post) error {
	if strings.TrimSpace(p.Slug) == "" {
		return errors.New("content: slug is required")
	}
	var publishedAt sql.NullString
	if p.PublishedAt != nil {
		publishedAt = sql.NullString{String: p.PublishedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	var readTime sql.NullInt64
	if p.ReadTime != nil {
		readTime = sql.NullInt64{Int64: int64(*p.ReadTime), Valid: true}
	}
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	var image sql.NullString
	if p.FeaturedImage != nil {
		b, err := json.Marshal(p.FeaturedImage)
		if err != nil {
			return fmt.Errorf("encode featured image: %w", err)
		}
		image = sql.NullString{String: string(b), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO posts (`+postColumns+`, body) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, nullString(p.Excerpt), nullString(p.Category), tags,
		publishedAt, readTime, image, p.Body)
	return err
}

// DeletePost removes a post by slug.
func (s *SQLiteStore) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

type postRow struct {
	slug, title       string
	excerpt, category sql.NullString
	tags              string
	publishedAt       sql.NullString
	readTime          sql.NullInt64
	featuredImage     sql.NullString
}

func (r *postRow) dest() []any {
	return []any{&r.slug, &r.title, &r.excerpt, &r.category, &r.tags, &r.publishedAt, &r.readTime, &r.featuredImage}
}

func (r *postRow) summary() (PostSummary, error) {
	tags, err := decodeTags(r.tags)
	if err != nil {
		return PostSummary{}, fmt.Errorf("post %s: tags: %w", r.slug, err)
	}
	p := PostSummary{
		Slug:  r.slug,
		Title: r.title,
		Tags:  tags,
	}
	if r.excerpt.Valid {
		p.Excerpt = String(r.excerpt.String)
	}
	if r.category.Valid {
		p.Category = String(r.category.String)
	}
	if r.publishedAt.Valid {
		t, err := time.Parse(time.RFC3339, r.publishedAt.String)
		if err != nil {
			return PostSummary{}, fmt.Errorf("post %s: published_at: %w", r.slug, err)
		}
		p.PublishedAt = &t
	}
	if r.readTime.Valid {
		p.ReadTime = Int(int(r.readTime.Int64))
	}
	if r.featuredImage.Valid {
		var ref imageurl.Ref
		if err := json.Unmarshal([]byte(r.featuredImage.String), &ref); err != nil {
			return PostSummary{}, fmt.Errorf("post %s: featured_image: %w", r.slug, err)
		}
		p.FeaturedImage = &ref
	}
	return p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// encodeTags stores tags as a JSON array so a tag may contain commas.
func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTags reads a JSON tag array, falling back to the legacy
// comma-delimited form (",go,web,") for rows written before it.
func decodeTags(stored string) ([]string, error) {
	if !strings.HasPrefix(stored, "[") {
		return ParseTags(stored), nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(stored), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
