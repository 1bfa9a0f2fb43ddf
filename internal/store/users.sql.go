// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const userColumns = `id, login, email, display_name, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Login,
		&i.Email,
		&i.DisplayName,
		&i.Role,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `
INSERT INTO users (login, email, display_name, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateUserParams struct {
	Login       string    `json:"login"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	result, err := q.db.ExecContext(ctx, createUser,
		arg.Login,
		arg.Email,
		arg.DisplayName,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, id)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByLogin = `SELECT ` + userColumns + ` FROM users WHERE login = ?`

func (q *Queries) GetUserByLogin(ctx context.Context, login string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByLogin, login))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const updateUser = `
UPDATE users SET email = ?, display_name = ?, role = ?, updated_at = ?
WHERE id = ?`

type UpdateUserParams struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          int64     `json:"id"`
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	if _, err := q.db.ExecContext(ctx, updateUser,
		arg.Email,
		arg.DisplayName,
		arg.Role,
		arg.UpdatedAt,
		arg.ID,
	); err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, arg.ID)
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

const listAuthorsWithPostCount = `
SELECT u.id, u.display_name, COUNT(p.id) AS post_count
FROM users u
LEFT JOIN posts p ON p.author_id = u.id AND p.type = 'post' AND p.status != 'trash'
WHERE u.role IN ('author', 'editor', 'administrator')
GROUP BY u.id
ORDER BY u.display_name, u.id`

type ListAuthorsWithPostCountRow struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	PostCount   int64  `json:"post_count"`
}

func (q *Queries) ListAuthorsWithPostCount(ctx context.Context) ([]ListAuthorsWithPostCountRow, error) {
	rows, err := q.db.QueryContext(ctx, listAuthorsWithPostCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListAuthorsWithPostCountRow
	for rows.Next() {
		var i ListAuthorsWithPostCountRow
		if err := rows.Scan(&i.ID, &i.DisplayName, &i.PostCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const reassignPosts = `UPDATE posts SET author_id = ? WHERE author_id = ?`

type ReassignPostsParams struct {
	ToAuthorID   int64 `json:"to_author_id"`
	FromAuthorID int64 `json:"from_author_id"`
}

func (q *Queries) ReassignPosts(ctx context.Context, arg ReassignPostsParams) error {
	_, err := q.db.ExecContext(ctx, reassignPosts, arg.ToAuthorID, arg.FromAuthorID)
	return err
}
