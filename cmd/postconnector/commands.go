// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/olegiv/post-connector/internal/settings"
	"github.com/olegiv/post-connector/internal/wpimport"
)

func (a *app) tokenCommand(ctx context.Context, args []string) error {
	action := "show"
	if len(args) > 0 {
		action = args[0]
	}

	var (
		token string
		err   error
	)
	switch action {
	case "show":
		token, err = a.tokens.Token(ctx)
	case "regenerate":
		token, err = a.tokens.Regenerate(ctx)
		if err == nil {
			a.logger.Info("api token regenerated")
		}
	default:
		return fmt.Errorf("unknown token action %q (want show or regenerate)", action)
	}
	if err != nil {
		return fmt.Errorf("token %s: %w", action, err)
	}

	_, _ = fmt.Fprintln(os.Stdout, token)
	return nil
}

func (a *app) defaultsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("defaults", flag.ContinueOnError)
	author := fs.Int64("author", 0, "Default author user ID")
	category := fs.Int64("category", 0, "Default category ID")
	logo := fs.String("logo", "", "Branding logo URL")
	secret := fs.String("secret", "", "Webhook signing secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *author <= 0 && *category <= 0 && *logo == "" && *secret == "" {
		return errors.New("defaults: nothing to set")
	}

	q := a.content.Queries()
	if *author > 0 {
		if _, err := q.GetUser(ctx, *author); err != nil {
			return fmt.Errorf("author %d: %w", *author, err)
		}
	}
	if *category > 0 {
		if _, err := q.GetCategory(ctx, *category); err != nil {
			return fmt.Errorf("category %d: %w", *category, err)
		}
	}

	if err := a.connector.SetDefaults(ctx, *author, *category); err != nil {
		return fmt.Errorf("saving defaults: %w", err)
	}
	if *logo != "" {
		if err := a.settings.Set(ctx, settings.KeyLogo, *logo); err != nil {
			return fmt.Errorf("saving logo: %w", err)
		}
	}
	if *secret != "" {
		if err := a.settings.Set(ctx, settings.KeySecretKey, *secret); err != nil {
			return fmt.Errorf("saving secret: %w", err)
		}
	}
	a.logger.Info("defaults updated",
		"author", a.connector.DefaultAuthor(ctx),
		"category", a.connector.DefaultCategory(ctx),
		"logo", a.connector.Logo(ctx),
		"signed_webhooks", a.connector.SecretKey(ctx) != "")
	return nil
}

// uninstall removes the connector's settings and cached release info. Posts,
// terms and users stay in place.
func (a *app) uninstall(ctx context.Context) error {
	var errs []error
	if err := settings.Uninstall(ctx, a.settings); err != nil {
		errs = append(errs, fmt.Errorf("removing settings: %w", err))
	}
	if err := a.release.Forget(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clearing release cache: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info("connector data removed")
	return nil
}

func (a *app) importWordPress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-wp", flag.ContinueOnError)
	dsn := fs.String("dsn", os.Getenv("PC_WP_DSN"), "WordPress MySQL DSN, e.g. user:pass@tcp(localhost:3306)/wordpress")
	prefix := fs.String("prefix", "wp_", "WordPress table prefix")
	skipExisting := fs.Bool("skip-existing", true, "Skip posts whose title already exists")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("import-wp: -dsn is required")
	}

	reader, err := wpimport.NewReader(*dsn, *prefix)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	result, err := wpimport.NewImporter(a.content, a.logger).Import(ctx, reader, wpimport.Options{
		SkipExisting:     *skipExisting,
		FallbackAuthor:   a.connector.DefaultAuthor(ctx),
		FallbackCategory: a.connector.DefaultCategory(ctx),
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Imported %d users, %d categories, %d tags, %d posts (%d posts skipped)\n",
		result.UsersImported, result.CategoriesImported, result.TagsImported, result.PostsImported, result.PostsSkipped)
	for _, msg := range result.Errors {
		_, _ = fmt.Fprintf(os.Stderr, "  error: %s\n", msg)
	}
	if result.HasErrors() {
		return fmt.Errorf("import finished with %d errors", len(result.Errors))
	}
	return nil
}
