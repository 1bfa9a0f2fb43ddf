// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/store"
)

// User validation errors.
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidReassign = errors.New("posts must be reassigned to another existing user")
)

// UserInput holds user fields. Login is only used on create.
type UserInput struct {
	Login       string
	Email       string
	DisplayName string
	Role        string
}

func (in UserInput) normalized() (UserInput, error) {
	in.Login = strings.TrimSpace(in.Login)
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Role == "" {
		in.Role = RoleSubscriber
	}
	if !ValidRole(in.Role) {
		return in, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return in, fmt.Errorf("%w: %q", ErrInvalidEmail, in.Email)
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Login
	}
	return in, nil
}

func userSnapshot(u store.User) *lifecycle.User {
	return &lifecycle.User{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email, Role: u.Role}
}

// CreateUser registers a user.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (store.User, error) {
	in, err := in.normalized()
	if err != nil {
		return store.User{}, err
	}
	if in.Login == "" {
		return store.User{}, ErrNameRequired
	}

	now := s.now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Login:       in.Login,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        in.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("creating user %q: %w", in.Login, err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.UserSaved, User: userSnapshot(user)})
	return user, nil
}

// UpdateUser overwrites a user's profile fields.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserInput) (store.User, error) {
	existing, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return store.User{}, notFound(err, "user", id)
	}
	in.Login = existing.Login
	in, err = in.normalized()
	if err != nil {
		return store.User{}, err
	}

	user, err := s.queries.UpdateUser(ctx, store.UpdateUserParams{
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        in.Role,
		UpdatedAt:   s.now(),
		ID:          id,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("updating user %d: %w", id, err)
	}

	s.publish(ctx, lifecycle.Event{Kind: lifecycle.UserSaved, Update: true, User: userSnapshot(user)})
	return user, nil
}

// DeleteUser removes a user after handing their posts to reassignTo.
func (s *Service) DeleteUser(ctx context.Context, id, reassignTo int64) error {
	if reassignTo == id || reassignTo <= 0 {
		return ErrInvalidReassign
	}

	var user store.User
	err := s.inTx(ctx, func(q *store.Queries) error {
		var err error
		user, err = q.GetUser(ctx, id)
		if err != nil {
			return notFound(err, "user", id)
		}
		if _, err := q.GetUser(ctx, reassignTo); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidReassign
			}
			return fmt.Errorf("getting user %d: %w", reassignTo, err)
		}
		if err := q.ReassignPosts(ctx, store.ReassignPostsParams{ToAuthorID: reassignTo, FromAuthorID: id}); err != nil {
			return fmt.Errorf("reassigning posts of user %d: %w", id, err)
		}
		if err := q.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("deleting user %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "reassigned_to", reassignTo)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.UserDeleted, User: userSnapshot(user)})
	return nil
}
