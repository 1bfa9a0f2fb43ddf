// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/lifecycle"
)

// manager runs the site administration commands (post, category, tag and
// user). Every change it makes is raised with the admin origin.
type manager struct {
	content *content.Service
	out     io.Writer
}

func (m manager) run(ctx context.Context, entity string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s: action required", entity)
	}
	ctx = lifecycle.WithOrigin(ctx, lifecycle.OriginAdmin)
	action, args := args[0], args[1:]

	switch entity {
	case "post":
		return m.post(ctx, action, args)
	case "category":
		return m.category(ctx, action, args)
	case "tag":
		return m.tag(ctx, action, args)
	case "user":
		return m.user(ctx, action, args)
	default:
		return fmt.Errorf("unknown entity %q", entity)
	}
}

// targetID splits "ID [flags...]" into the ID and the remaining arguments.
func targetID(name string, args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("%s: ID required", name)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, fmt.Errorf("%s: invalid ID %q", name, args[0])
	}
	return id, args[1:], nil
}

func (m manager) post(ctx context.Context, action string, args []string) error {
	id, _, err := targetID("post "+action, args)
	if err != nil {
		return err
	}

	switch action {
	case "trash":
		p, err := m.content.TrashPost(ctx, id)
		if err != nil {
			return err
		}
		m.printf("post %d moved to trash\n", p.ID)
	case "restore":
		p, err := m.content.RestorePost(ctx, id)
		if err != nil {
			return err
		}
		m.printf("post %d restored as %s\n", p.ID, p.Status)
	case "delete":
		if err := m.content.DeletePost(ctx, id); err != nil {
			return err
		}
		m.printf("post %d deleted\n", id)
	default:
		return fmt.Errorf("unknown post action %q (want trash, restore or delete)", action)
	}
	return nil
}

// termFlags parses -name, -slug and -description on top of current.
func termFlags(name string, args []string, current content.TermInput) (content.TermInput, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&current.Name, "name", current.Name, "Term name")
	fs.StringVar(&current.Slug, "slug", current.Slug, "Term slug (derived from the name if empty)")
	fs.StringVar(&current.Description, "description", current.Description, "Term description")
	if err := fs.Parse(args); err != nil {
		return current, err
	}
	return current, nil
}

func (m manager) category(ctx context.Context, action string, args []string) error {
	name := "category " + action
	if action == "create" {
		in, err := termFlags(name, args, content.TermInput{})
		if err != nil {
			return err
		}
		cat, err := m.content.CreateCategory(ctx, in)
		if err != nil {
			return err
		}
		m.printf("category %d created (%s)\n", cat.ID, cat.Slug)
		return nil
	}

	id, rest, err := targetID(name, args)
	if err != nil {
		return err
	}
	switch action {
	case "update":
		cur, err := m.content.Queries().GetCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("category %d: %w", id, err)
		}
		in, err := termFlags(name, rest, content.TermInput{Name: cur.Name, Slug: cur.Slug, Description: cur.Description})
		if err != nil {
			return err
		}
		cat, err := m.content.UpdateCategory(ctx, id, in)
		if err != nil {
			return err
		}
		m.printf("category %d updated (%s)\n", cat.ID, cat.Slug)
	case "delete":
		if err := m.content.DeleteCategory(ctx, id); err != nil {
			return err
		}
		m.printf("category %d deleted\n", id)
	default:
		return fmt.Errorf("unknown category action %q (want create, update or delete)", action)
	}
	return nil
}

func (m manager) tag(ctx context.Context, action string, args []string) error {
	name := "tag " + action
	if action == "create" {
		in, err := termFlags(name, args, content.TermInput{})
		if err != nil {
			return err
		}
		tag, err := m.content.CreateTag(ctx, in)
		if err != nil {
			return err
		}
		m.printf("tag %d created (%s)\n", tag.ID, tag.Slug)
		return nil
	}

	id, rest, err := targetID(name, args)
	if err != nil {
		return err
	}
	switch action {
	case "update":
		cur, err := m.content.Queries().GetTag(ctx, id)
		if err != nil {
			return fmt.Errorf("tag %d: %w", id, err)
		}
		in, err := termFlags(name, rest, content.TermInput{Name: cur.Name, Slug: cur.Slug, Description: cur.Description})
		if err != nil {
			return err
		}
		tag, err := m.content.UpdateTag(ctx, id, in)
		if err != nil {
			return err
		}
		m.printf("tag %d updated (%s)\n", tag.ID, tag.Slug)
	case "delete":
		if err := m.content.DeleteTag(ctx, id); err != nil {
			return err
		}
		m.printf("tag %d deleted\n", id)
	default:
		return fmt.Errorf("unknown tag action %q (want create, update or delete)", action)
	}
	return nil
}

func userFlags(name string, args []string, current content.UserInput, withLogin bool) (content.UserInput, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if withLogin {
		fs.StringVar(&current.Login, "login", current.Login, "Login name")
	}
	fs.StringVar(&current.Email, "email", current.Email, "Email address")
	fs.StringVar(&current.DisplayName, "name", current.DisplayName, "Display name")
	fs.StringVar(&current.Role, "role", current.Role, "Role: subscriber, contributor, author, editor or administrator")
	if err := fs.Parse(args); err != nil {
		return current, err
	}
	return current, nil
}

func (m manager) user(ctx context.Context, action string, args []string) error {
	name := "user " + action
	if action == "create" {
		in, err := userFlags(name, args, content.UserInput{}, true)
		if err != nil {
			return err
		}
		u, err := m.content.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		m.printf("user %d created (%s, %s)\n", u.ID, u.Login, u.Role)
		return nil
	}

	id, rest, err := targetID(name, args)
	if err != nil {
		return err
	}
	switch action {
	case "update":
		cur, err := m.content.Queries().GetUser(ctx, id)
		if err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		in, err := userFlags(name, rest, content.UserInput{Email: cur.Email, DisplayName: cur.DisplayName, Role: cur.Role}, false)
		if err != nil {
			return err
		}
		u, err := m.content.UpdateUser(ctx, id, in)
		if err != nil {
			return err
		}
		m.printf("user %d updated (%s)\n", u.ID, u.Role)
	case "delete":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		reassign := fs.Int64("reassign", 0, "User ID that takes over the deleted user's posts")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *reassign <= 0 {
			return errors.New("user delete: -reassign is required")
		}
		if err := m.content.DeleteUser(ctx, id, *reassign); err != nil {
			return err
		}
		m.printf("user %d deleted, posts reassigned to %d\n", id, *reassign)
	default:
		return fmt.Errorf("unknown user action %q (want create, update or delete)", action)
	}
	return nil
}

func (m manager) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(m.out, format, args...)
}
