// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, type, title, slug, content, status, trashed_status, author_id,
featured_media_id, post_date, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.Title,
		&i.Slug,
		&i.Content,
		&i.Status,
		&i.TrashedStatus,
		&i.AuthorID,
		&i.FeaturedMediaID,
		&i.PostDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPost = `
INSERT INTO posts (type, title, slug, content, status, author_id, post_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreatePostParams struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	AuthorID  int64     `json:"author_id"`
	PostDate  time.Time `json:"post_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	result, err := q.db.ExecContext(ctx, createPost,
		arg.Type,
		arg.Title,
		arg.Slug,
		arg.Content,
		arg.Status,
		arg.AuthorID,
		arg.PostDate,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return Post{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Post{}, err
	}
	return q.GetPost(ctx, id)
}

const getPost = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

func (q *Queries) GetPost(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPost, id))
}

const updatePost = `
UPDATE posts SET title = ?, slug = ?, content = ?, status = ?, author_id = ?, post_date = ?, updated_at = ?
WHERE id = ?`

type UpdatePostParams struct {
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	AuthorID  int64     `json:"author_id"`
	PostDate  time.Time `json:"post_date"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        int64     `json:"id"`
}

func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	if _, err := q.db.ExecContext(ctx, updatePost,
		arg.Title,
		arg.Slug,
		arg.Content,
		arg.Status,
		arg.AuthorID,
		arg.PostDate,
		arg.UpdatedAt,
		arg.ID,
	); err != nil {
		return Post{}, err
	}
	return q.GetPost(ctx, arg.ID)
}

const updatePostStatus = `
UPDATE posts SET status = ?, trashed_status = ?, updated_at = ?
WHERE id = ?`

type UpdatePostStatusParams struct {
	Status        string    `json:"status"`
	TrashedStatus string    `json:"trashed_status"`
	UpdatedAt     time.Time `json:"updated_at"`
	ID            int64     `json:"id"`
}

func (q *Queries) UpdatePostStatus(ctx context.Context, arg UpdatePostStatusParams) (Post, error) {
	if _, err := q.db.ExecContext(ctx, updatePostStatus,
		arg.Status, arg.TrashedStatus, arg.UpdatedAt, arg.ID); err != nil {
		return Post{}, err
	}
	return q.GetPost(ctx, arg.ID)
}

const setPostFeaturedMedia = `UPDATE posts SET featured_media_id = ?, updated_at = ? WHERE id = ?`

type SetPostFeaturedMediaParams struct {
	FeaturedMediaID sql.NullInt64 `json:"featured_media_id"`
	UpdatedAt       time.Time     `json:"updated_at"`
	ID              int64         `json:"id"`
}

func (q *Queries) SetPostFeaturedMedia(ctx context.Context, arg SetPostFeaturedMediaParams) error {
	_, err := q.db.ExecContext(ctx, setPostFeaturedMedia, arg.FeaturedMediaID, arg.UpdatedAt, arg.ID)
	return err
}

const deletePost = `DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const countPostsByTitle = `
SELECT COUNT(*) FROM posts
WHERE title = ? AND type = ? AND status != 'trash'`

type CountPostsByTitleParams struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

func (q *Queries) CountPostsByTitle(ctx context.Context, arg CountPostsByTitleParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByTitle, arg.Title, arg.Type).Scan(&count)
	return count, err
}

const countPostsBySlug = `SELECT COUNT(*) FROM posts WHERE slug = ? AND type = ? AND id != ?`

type CountPostsBySlugParams struct {
	Slug      string `json:"slug"`
	Type      string `json:"type"`
	ExcludeID int64  `json:"exclude_id"`
}

func (q *Queries) CountPostsBySlug(ctx context.Context, arg CountPostsBySlugParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsBySlug, arg.Slug, arg.Type, arg.ExcludeID).Scan(&count)
	return count, err
}

const listScheduledPostsDue = `
SELECT ` + postColumns + ` FROM posts
WHERE status = 'future' AND post_date <= ?
ORDER BY post_date, id`

func (q *Queries) ListScheduledPostsDue(ctx context.Context, now time.Time) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listScheduledPostsDue, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Post
	for rows.Next() {
		i, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Post taxonomy links

const addPostCategory = `INSERT OR IGNORE INTO post_categories (post_id, category_id) VALUES (?, ?)`

type AddPostCategoryParams struct {
	PostID     int64 `json:"post_id"`
	CategoryID int64 `json:"category_id"`
}

func (q *Queries) AddPostCategory(ctx context.Context, arg AddPostCategoryParams) error {
	_, err := q.db.ExecContext(ctx, addPostCategory, arg.PostID, arg.CategoryID)
	return err
}

const clearPostCategories = `DELETE FROM post_categories WHERE post_id = ?`

func (q *Queries) ClearPostCategories(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, clearPostCategories, postID)
	return err
}

const listPostCategories = `
SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
FROM categories c
INNER JOIN post_categories pc ON pc.category_id = c.id
WHERE pc.post_id = ?
ORDER BY c.name, c.id`

func (q *Queries) ListPostCategories(ctx context.Context, postID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listPostCategories, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addPostTag = `INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`

type AddPostTagParams struct {
	PostID int64 `json:"post_id"`
	TagID  int64 `json:"tag_id"`
}

func (q *Queries) AddPostTag(ctx context.Context, arg AddPostTagParams) error {
	_, err := q.db.ExecContext(ctx, addPostTag, arg.PostID, arg.TagID)
	return err
}

const clearPostTags = `DELETE FROM post_tags WHERE post_id = ?`

func (q *Queries) ClearPostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, clearPostTags, postID)
	return err
}

const listPostTags = `
SELECT t.id, t.name, t.slug, t.description, t.created_at, t.updated_at
FROM tags t
INNER JOIN post_tags pt ON pt.tag_id = t.id
WHERE pt.post_id = ?
ORDER BY t.name, t.id`

func (q *Queries) ListPostTags(ctx context.Context, postID int64) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listPostTags, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		i, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Post meta

const setPostMeta = `
INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES (?, ?, ?)
ON CONFLICT (post_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`

type SetPostMetaParams struct {
	PostID    int64  `json:"post_id"`
	MetaKey   string `json:"meta_key"`
	MetaValue string `json:"meta_value"`
}

func (q *Queries) SetPostMeta(ctx context.Context, arg SetPostMetaParams) error {
	_, err := q.db.ExecContext(ctx, setPostMeta, arg.PostID, arg.MetaKey, arg.MetaValue)
	return err
}

const getPostMeta = `SELECT meta_value FROM post_meta WHERE post_id = ? AND meta_key = ?`

type GetPostMetaParams struct {
	PostID  int64  `json:"post_id"`
	MetaKey string `json:"meta_key"`
}

func (q *Queries) GetPostMeta(ctx context.Context, arg GetPostMetaParams) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getPostMeta, arg.PostID, arg.MetaKey).Scan(&value)
	return value, err
}

const countPostMetaKeys = `
SELECT COUNT(*) FROM post_meta
WHERE post_id = ? AND meta_key IN (?, ?) AND meta_value != ''`

type CountPostMetaKeysParams struct {
	PostID int64  `json:"post_id"`
	Key1   string `json:"key_1"`
	Key2   string `json:"key_2"`
}

// CountPostMetaKeys counts non-empty values among the two given keys of a post.
func (q *Queries) CountPostMetaKeys(ctx context.Context, arg CountPostMetaKeysParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostMetaKeys, arg.PostID, arg.Key1, arg.Key2).Scan(&count)
	return count, err
}
