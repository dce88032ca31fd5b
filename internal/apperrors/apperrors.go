// Package apperrors is the single error-kind type every component
// converts its failures into before they cross a package boundary: it
// wraps the wire-facing error-code enum (§3.2) with a human-readable
// detail and supports errors.Is/errors.As, following the same
// NewXxxError(...) constructor idiom the teacher's (unavailable in
// this retrieval pack, inferred from its call sites in
// internal/services/console.go) pkg/errors package uses for
// SourceGoneError/AgentUnauthorizedError.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// Error is the generic typed error every component returns: an
// error-code plus free-text detail. It satisfies errors.Is by code.
type Error struct {
	Code    enums.ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same Code, so
// callers can do errors.Is(err, &apperrors.Error{Code: enums.ErrCodeNotAuthorized}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// New builds a generic *Error for code/detail.
func New(code enums.ErrorCode, detail string) *Error {
	return &Error{Code: code, Message: detail}
}

// ConfigurationNotFoundError describes a configuration source that
// could not be found at Path. internal/config.Load does not return this
// type.
type ConfigurationNotFoundError struct {
	Path string
}

func (e *ConfigurationNotFoundError) Error() string {
	return fmt.Sprintf("configuration not found: %s", e.Path)
}

// NewConfigurationNotFoundError builds a ConfigurationNotFoundError for
// the given search path.
func NewConfigurationNotFoundError(path string) *ConfigurationNotFoundError {
	return &ConfigurationNotFoundError{Path: path}
}

// PolicyDeniedError describes a WRITE role whose authorization check
// came back negative (§4.5 WAITING_FOR_AUTH → FINISHED(failed)).
// internal/transaction.Start uses its message as the ErrorCode detail;
// internal/policy itself does not return it.
type PolicyDeniedError struct {
	Role enums.Role
	UID  uint32
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("policy denied role %s for uid %d", e.Role, e.UID)
}

// NewPolicyDeniedError builds a PolicyDeniedError for role/uid.
func NewPolicyDeniedError(role enums.Role, uid uint32) *PolicyDeniedError {
	return &PolicyDeniedError{Role: role, UID: uid}
}

// BackendRoleUnsupportedError describes a requested role the loaded
// backend never registered an entry for (§4.4 "absent entry =
// unsupported"). internal/transaction.Start uses its message as the
// not-supported ErrorCode detail; internal/backend.Dispatch reports the
// same condition with a wrapped backend.ErrRoleNotSupported instead.
type BackendRoleUnsupportedError struct {
	Role enums.Role
}

func (e *BackendRoleUnsupportedError) Error() string {
	return fmt.Sprintf("backend does not support role %s", e.Role)
}

// NewBackendRoleUnsupportedError builds a BackendRoleUnsupportedError
// for role.
func NewBackendRoleUnsupportedError(role enums.Role) *BackendRoleUnsupportedError {
	return &BackendRoleUnsupportedError{Role: role}
}

// TransactionNotFoundError is returned when a tid does not name a
// currently tracked transaction (§4.8 "each transaction is a separate
// bus object at its tid path").
type TransactionNotFoundError struct {
	TID string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction not found: %s", e.TID)
}

// NewTransactionNotFoundError builds a TransactionNotFoundError for
// tid.
func NewTransactionNotFoundError(tid string) *TransactionNotFoundError {
	return &TransactionNotFoundError{TID: tid}
}
