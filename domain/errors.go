package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies lifecycle failures. Callers branch on the kind,
// never on the message text.
type ErrorKind string

const (
	KindValidation                ErrorKind = "validation_error"
	KindAuth                      ErrorKind = "auth_error"
	KindAccessDenied              ErrorKind = "access_denied"
	KindNotFound                  ErrorKind = "not_found"
	KindClosed                    ErrorKind = "closed"
	KindAlreadyResolved           ErrorKind = "already_resolved"
	KindNotExpiredYet             ErrorKind = "not_expired_yet"
	KindNoParticipants            ErrorKind = "no_participants"
	KindNotCreator                ErrorKind = "not_creator"
	KindSelfContributionForbidden ErrorKind = "self_contribution_forbidden"
	KindAlreadyPublic             ErrorKind = "already_public"
	KindWrongUsageMode            ErrorKind = "wrong_usage_mode"
	KindStoreConflict             ErrorKind = "store_conflict"
	KindStoreUnavailable          ErrorKind = "store_unavailable"
	KindDataIntegrity             ErrorKind = "data_integrity"
)

// CagnotteError carries a user-facing message alongside the internal cause
type CagnotteError struct {
	Kind        ErrorKind
	UserMessage string            // French message safe to show to end users
	LogMessage  string            // Internal detail for logs
	Fields      map[string]string // Per-field problems for validation errors
	Err         error             // Underlying error
}

// Error implements the error interface
func (e *CagnotteError) Error() string {
	msg := string(e.Kind)
	if e.LogMessage != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.LogMessage)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, problem := range e.Fields {
			parts = append(parts, field+" "+problem)
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *CagnotteError) Unwrap() error {
	return e.Err
}

// Is matches any CagnotteError of the same kind, so errors.Is(err, ErrClosed)
// holds for copies enriched with detail or a cause.
func (e *CagnotteError) Is(target error) bool {
	var t *CagnotteError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetail returns a copy with an internal log message attached
func (e *CagnotteError) WithDetail(format string, args ...any) *CagnotteError {
	clone := *e
	clone.LogMessage = fmt.Sprintf(format, args...)
	return &clone
}

// WithError returns a copy wrapping err
func (e *CagnotteError) WithError(err error) *CagnotteError {
	clone := *e
	clone.Err = err
	return &clone
}

var (
	ErrValidation = &CagnotteError{
		Kind:        KindValidation,
		UserMessage: "Les informations fournies sont invalides.",
	}
	ErrAuth = &CagnotteError{
		Kind:        KindAuth,
		UserMessage: "Vous devez être connecté pour effectuer cette action.",
	}
	ErrAccessDenied = &CagnotteError{
		Kind:        KindAccessDenied,
		UserMessage: "Accès refusé. Cette cagnotte est privée.",
	}
	ErrNotFound = &CagnotteError{
		Kind:        KindNotFound,
		UserMessage: "Cagnotte introuvable.",
	}
	ErrClosed = &CagnotteError{
		Kind:        KindClosed,
		UserMessage: "Cette cagnotte est fermée.",
	}
	ErrAlreadyResolved = &CagnotteError{
		Kind:        KindAlreadyResolved,
		UserMessage: "Un gagnant a déjà été désigné pour cette cagnotte.",
	}
	ErrNotExpiredYet = &CagnotteError{
		Kind:        KindNotExpiredYet,
		UserMessage: "La cagnotte n'est pas encore terminée.",
	}
	ErrNoParticipants = &CagnotteError{
		Kind:        KindNoParticipants,
		UserMessage: "Aucun participant pour cette cagnotte.",
	}
	ErrNotCreator = &CagnotteError{
		Kind:        KindNotCreator,
		UserMessage: "Seul le créateur de la cagnotte peut effectuer cette action.",
	}
	ErrSelfContributionForbidden = &CagnotteError{
		Kind:        KindSelfContributionForbidden,
		UserMessage: "Vous ne pouvez pas participer à votre propre cagnotte.",
	}
	ErrAlreadyPublic = &CagnotteError{
		Kind:        KindAlreadyPublic,
		UserMessage: "Cette cagnotte est déjà publique.",
	}
	ErrWrongUsageMode = &CagnotteError{
		Kind:        KindWrongUsageMode,
		UserMessage: "Cette action n'est pas disponible pour ce type de cagnotte.",
	}
	ErrStoreConflict = &CagnotteError{
		Kind:        KindStoreConflict,
		UserMessage: "La cagnotte a été modifiée entre-temps. Veuillez réessayer.",
	}
	ErrStoreUnavailable = &CagnotteError{
		Kind:        KindStoreUnavailable,
		UserMessage: "Service momentanément indisponible. Veuillez réessayer plus tard.",
	}
	ErrDataIntegrity = &CagnotteError{
		Kind:        KindDataIntegrity,
		UserMessage: "Les données de cette cagnotte sont incohérentes.",
	}
)

// NewValidationError builds a validation error listing the offending fields
func NewValidationError(fields map[string]string) *CagnotteError {
	return &CagnotteError{
		Kind:        KindValidation,
		UserMessage: ErrValidation.UserMessage,
		Fields:      fields,
	}
}

// Unavailable wraps an infrastructure failure as a store-unavailable error
func Unavailable(op string, err error) *CagnotteError {
	return ErrStoreUnavailable.WithDetail("%s", op).WithError(err)
}

// KindOf extracts the kind of err, or "" when err is not a CagnotteError
func KindOf(err error) ErrorKind {
	var ce *CagnotteError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// UserMessageOf returns the user-facing message carried by err, falling back
// to a generic message for unclassified errors
func UserMessageOf(err error) string {
	var ce *CagnotteError
	if errors.As(err, &ce) && ce.UserMessage != "" {
		return ce.UserMessage
	}
	return "Une erreur est survenue. Veuillez réessayer plus tard."
}
