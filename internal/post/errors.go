// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"errors"
	"net/http"
)

// Result and failure codes returned to API clients.
const (
	CodePostCreated         = "post_created_successfully"
	CodePostUpdated         = "post_updated_successfully"
	CodePostRetrieved       = "post_retrieved"
	CodeMovedToTrash        = "post_moved_to_trash"
	CodePermanentlyDeleted  = "post_permanently_deleted"
	CodeCategoriesRetrieved = "categories_retrieved"
	CodeTagsRetrieved       = "tags_retrieved"
	CodeAuthorsRetrieved    = "authors_retrieved"
	CodeStatusRetrieved     = "status_retrieved"
	CodePostIDRequired      = "post_id_required"
	CodePostNotFound        = "post_not_found"
	CodeInvalidStatus       = "invalid_post_status"
	CodeInvalidDate         = "invalid_date"
	CodeDateRequired        = "date_required_for_future_posts"
	CodeDateMustBeFuture    = "date_for_future_status_must_be_future"
	CodeDateMustBePast      = "date_for_publish_status_must_be_past"
	CodeTitleExists         = "post_with_title_exists"
	CodeInvalidAuthor       = "invalid_author_id"
	CodeImageDownloadFailed = "image_download_failed"
	CodeFailedToCreate      = "failed_to_create_post"
	CodeFailedToUpdate      = "failed_to_update_post"
	CodeFailedToDelete      = "failed_to_delete_post"
	CodeFailedToRead        = "failed_to_retrieve_post"
	CodeMissingParameters   = "missing_required_parameters"
	CodeGenericError        = "error"
)

var messages = map[string]string{
	CodeStatusRetrieved:     "Status information retrieved successfully",
	CodeCategoriesRetrieved: "Categories retrieved successfully",
	CodeTagsRetrieved:       "Tags retrieved successfully",
	CodeAuthorsRetrieved:    "Authors retrieved successfully",
	CodePostRetrieved:       "Post retrieved successfully",
	CodeInvalidAuthor:       "Invalid author ID",
	CodePostIDRequired:      "Post ID is required",
	CodePostNotFound:        "Post not found",
	CodeMovedToTrash:        "Post moved to trash successfully",
	CodePermanentlyDeleted:  "Post permanently deleted successfully",
	CodeFailedToDelete:      "Failed to delete post",
	CodeMissingParameters:   "Missing required parameters",
	CodeInvalidStatus:       "Invalid post status",
	CodeInvalidDate:         "Invalid date",
	CodeDateRequired:        "Date is required for future posts",
	CodeDateMustBeFuture:    "Date for future status must be in the future",
	CodeDateMustBePast:      "Date for publish status must be in the past",
	CodeTitleExists:         "A post with the same title already exists",
	CodeImageDownloadFailed: "Failed to download image.",
	CodePostUpdated:         "Post updated successfully",
	CodePostCreated:         "Post created successfully",
	CodeFailedToUpdate:      "Failed to update post",
	CodeFailedToCreate:      "Failed to create post",
	CodeFailedToRead:        "Failed to retrieve post",
	CodeGenericError:        "An error occurred",
}

// Message returns the human readable message for code, or code itself.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return code
}

// Error is a failure with an API code and HTTP status.
type Error struct {
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the human readable message for the error code.
func (e *Error) Message() string {
	return Message(e.Code)
}

func badRequest(code string) *Error {
	return &Error{Code: code, Status: http.StatusBadRequest}
}

func notFound() *Error {
	return &Error{Code: CodePostNotFound, Status: http.StatusNotFound}
}

func internal(code string, err error) *Error {
	return &Error{Code: code, Status: http.StatusInternalServerError, Err: err}
}

// AsError extracts an *Error from err. Other errors become a 500 with fallback.
func AsError(err error, fallback string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return internal(fallback, err)
}
