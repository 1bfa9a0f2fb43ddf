// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wpimport copies users, terms and posts from an existing WordPress
// database into the connector's content store.
package wpimport

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Taxonomies read from term_taxonomy.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

const maxPrefixLength = 20

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// sanitizeTablePrefix rejects prefixes that are not safe to splice into SQL.
func sanitizeTablePrefix(prefix string) (string, error) {
	if len(prefix) > maxPrefixLength {
		return "", fmt.Errorf("table prefix too long: %d characters (max %d)", len(prefix), maxPrefixLength)
	}
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("invalid table prefix %q: only letters, digits and underscore allowed", prefix)
	}
	return prefix, nil
}

// User is a row from {prefix}users with its role resolved from usermeta.
type User struct {
	ID          int64
	Login       string
	Email       string
	DisplayName string
	Role        string
}

// Term is a category or tag.
type Term struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Taxonomy    string
}

// Post is a row from {prefix}posts of type post.
type Post struct {
	ID       int64
	AuthorID int64
	Title    string
	Content  string
	Status   string
	Date     time.Time
}

// Relationship links a post to one of its terms.
type Relationship struct {
	PostID   int64
	TermID   int64
	Taxonomy string
}

// Reader reads data from a WordPress MySQL database.
type Reader struct {
	db     *sql.DB
	prefix string // Table prefix (e.g., "wp_")
	owned  bool
}

// NewReader opens a WordPress database. Dates are always parsed into
// time.Time regardless of the DSN's parseTime setting.
func NewReader(dsn, tablePrefix string) (*Reader, error) {
	prefix, err := sanitizeTablePrefix(tablePrefix)
	if err != nil {
		return nil, err
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(connector)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Reader{db: db, prefix: prefix, owned: true}, nil
}

// NewReaderFromDB wraps an already open database. Close leaves it open.
func NewReaderFromDB(db *sql.DB, tablePrefix string) (*Reader, error) {
	prefix, err := sanitizeTablePrefix(tablePrefix)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db, prefix: prefix}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}

func (r *Reader) table(name string) string {
	return r.prefix + name
}

// capabilityRole extracts the first granted role from a serialized
// wp_capabilities value such as a:1:{s:6:"author";b:1;}.
var capabilityRole = regexp.MustCompile(`s:\d+:"([a-z_]+)";b:1;`)

func roleFromCapabilities(serialized string) string {
	m := capabilityRole.FindStringSubmatch(serialized)
	if m == nil {
		return ""
	}
	return m[1]
}

// Users returns all users ordered by ID.
func (r *Reader) Users(ctx context.Context) ([]User, error) {
	query := fmt.Sprintf(`
		SELECT u.ID, u.user_login, u.user_email, u.display_name, COALESCE(m.meta_value, '')
		FROM %s u
		LEFT JOIN %s m ON m.user_id = u.ID AND m.meta_key = ?
		ORDER BY u.ID
	`, r.table("users"), r.table("usermeta"))

	rows, err := r.db.QueryContext(ctx, query, r.prefix+"capabilities")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var (
			u    User
			caps string
		)
		if err := rows.Scan(&u.ID, &u.Login, &u.Email, &u.DisplayName, &caps); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = roleFromCapabilities(caps)
		users = append(users, u)
	}
	return users, rows.Err()
}

// Terms returns categories and tags ordered by term ID.
func (r *Reader) Terms(ctx context.Context) ([]Term, error) {
	query := fmt.Sprintf(`
		SELECT t.term_id, t.name, t.slug, tt.description, tt.taxonomy
		FROM %s t
		JOIN %s tt ON tt.term_id = t.term_id
		WHERE tt.taxonomy IN (?, ?)
		ORDER BY t.term_id
	`, r.table("terms"), r.table("term_taxonomy"))

	rows, err := r.db.QueryContext(ctx, query, TaxonomyCategory, TaxonomyTag)
	if err != nil {
		return nil, fmt.Errorf("failed to query terms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var terms []Term
	for rows.Next() {
		var t Term
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Taxonomy); err != nil {
			return nil, fmt.Errorf("failed to scan term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// Posts returns posts of type post, skipping revisions, autosaves and
// trashed entries.
func (r *Reader) Posts(ctx context.Context) ([]Post, error) {
	query := fmt.Sprintf(`
		SELECT ID, post_author, post_title, post_content, post_status, post_date_gmt
		FROM %s
		WHERE post_type = 'post'
		AND post_status IN ('publish', 'future', 'draft', 'pending', 'private')
		ORDER BY ID
	`, r.table("posts"))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []Post
	for rows.Next() {
		var (
			p    Post
			date sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Status, &date); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if date.Valid {
			p.Date = date.Time.UTC()
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Relationships returns the post-to-term links for categories and tags.
func (r *Reader) Relationships(ctx context.Context) ([]Relationship, error) {
	query := fmt.Sprintf(`
		SELECT tr.object_id, tt.term_id, tt.taxonomy
		FROM %s tr
		JOIN %s tt ON tt.term_taxonomy_id = tr.term_taxonomy_id
		WHERE tt.taxonomy IN (?, ?)
		ORDER BY tr.object_id, tr.term_order, tt.term_id
	`, r.table("term_relationships"), r.table("term_taxonomy"))

	rows, err := r.db.QueryContext(ctx, query, TaxonomyCategory, TaxonomyTag)
	if err != nil {
		return nil, fmt.Errorf("failed to query term relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []Relationship
	for rows.Next() {
		var rel Relationship
		if err := rows.Scan(&rel.PostID, &rel.TermID, &rel.Taxonomy); err != nil {
			return nil, fmt.Errorf("failed to scan term relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}
