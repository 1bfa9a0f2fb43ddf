// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const termColumns = `id, name, slug, description, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Slug, &i.Description, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func scanTag(row interface{ Scan(...any) error }) (Tag, error) {
	var i Tag
	err := row.Scan(&i.ID, &i.Name, &i.Slug, &i.Description, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

// TermCountRow is a taxonomy term with the number of non-trashed posts using it.
type TermCountRow struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int64  `json:"post_count"`
}

func (q *Queries) listTermCounts(ctx context.Context, query string) ([]TermCountRow, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TermCountRow
	for rows.Next() {
		var i TermCountRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Slug, &i.PostCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Categories

const createCategory = `
INSERT INTO categories (name, slug, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`

type CreateCategoryParams struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	result, err := q.db.ExecContext(ctx, createCategory,
		arg.Name, arg.Slug, arg.Description, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return q.GetCategory(ctx, id)
}

const getCategory = `SELECT ` + termColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
}

const getCategoryBySlug = `SELECT ` + termColumns + ` FROM categories WHERE slug = ?`

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategoryBySlug, slug))
}

const countCategoriesBySlug = `SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?`

type CountTermsBySlugParams struct {
	Slug      string `json:"slug"`
	ExcludeID int64  `json:"exclude_id"`
}

func (q *Queries) CountCategoriesBySlug(ctx context.Context, arg CountTermsBySlugParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCategoriesBySlug, arg.Slug, arg.ExcludeID).Scan(&count)
	return count, err
}

const updateCategory = `
UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ?
WHERE id = ?`

type UpdateCategoryParams struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          int64     `json:"id"`
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	if _, err := q.db.ExecContext(ctx, updateCategory,
		arg.Name, arg.Slug, arg.Description, arg.UpdatedAt, arg.ID); err != nil {
		return Category{}, err
	}
	return q.GetCategory(ctx, arg.ID)
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const listCategoriesWithPostCount = `
SELECT c.id, c.name, c.slug, COUNT(p.id) AS post_count
FROM categories c
LEFT JOIN post_categories pc ON pc.category_id = c.id
LEFT JOIN posts p ON p.id = pc.post_id AND p.status != 'trash'
GROUP BY c.id
ORDER BY c.name, c.id`

func (q *Queries) ListCategoriesWithPostCount(ctx context.Context) ([]TermCountRow, error) {
	return q.listTermCounts(ctx, listCategoriesWithPostCount)
}

// Tags

const createTag = `
INSERT INTO tags (name, slug, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`

type CreateTagParams struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	result, err := q.db.ExecContext(ctx, createTag,
		arg.Name, arg.Slug, arg.Description, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Tag{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return q.GetTag(ctx, id)
}

const getTag = `SELECT ` + termColumns + ` FROM tags WHERE id = ?`

func (q *Queries) GetTag(ctx context.Context, id int64) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTag, id))
}

const getTagByName = `SELECT ` + termColumns + ` FROM tags WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1`

func (q *Queries) GetTagByName(ctx context.Context, name string) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTagByName, name))
}

const countTagsBySlug = `SELECT COUNT(*) FROM tags WHERE slug = ? AND id != ?`

func (q *Queries) CountTagsBySlug(ctx context.Context, arg CountTermsBySlugParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTagsBySlug, arg.Slug, arg.ExcludeID).Scan(&count)
	return count, err
}

const updateTag = `
UPDATE tags SET name = ?, slug = ?, description = ?, updated_at = ?
WHERE id = ?`

type UpdateTagParams struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          int64     `json:"id"`
}

func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (Tag, error) {
	if _, err := q.db.ExecContext(ctx, updateTag,
		arg.Name, arg.Slug, arg.Description, arg.UpdatedAt, arg.ID); err != nil {
		return Tag{}, err
	}
	return q.GetTag(ctx, arg.ID)
}

const deleteTag = `DELETE FROM tags WHERE id = ?`

func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTag, id)
	return err
}

const listTagsWithPostCount = `
SELECT t.id, t.name, t.slug, COUNT(p.id) AS post_count
FROM tags t
LEFT JOIN post_tags pt ON pt.tag_id = t.id
LEFT JOIN posts p ON p.id = pt.post_id AND p.status != 'trash'
GROUP BY t.id
ORDER BY t.name, t.id`

func (q *Queries) ListTagsWithPostCount(ctx context.Context) ([]TermCountRow, error) {
	return q.listTermCounts(ctx, listTagsWithPostCount)
}
