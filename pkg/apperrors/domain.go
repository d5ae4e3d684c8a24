package apperrors

import "net/http"

// Sentinels. Compare with Is; AppError.Is matches on Code.
var (
	ErrValidationFailed   = New(CodeValidationFailed, "validation", "Invalid inputs passed, please check your data", http.StatusUnprocessableEntity)
	ErrUnauthenticated    = New(CodeUnauthenticated, "auth", "Authentication failed", http.StatusUnauthorized)
	ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid credentials, could not log you in", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "auth", "Access denied", http.StatusForbidden)
	ErrNotFound           = New(CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
	ErrAlreadyExists      = New(CodeAlreadyExists, "resource", "Resource already exists", http.StatusUnprocessableEntity)
	ErrUploadFailed       = New(CodeUploadFailed, "storage", "Failed to upload image", http.StatusInternalServerError)
	ErrDeleteFailed       = New(CodeDeleteFailed, "storage", "Failed to delete image", http.StatusInternalServerError)
	ErrTransactionFailed  = New(CodeTransactionFailed, "database", "Could not complete the operation, please try again", http.StatusInternalServerError)
	ErrPersistence        = New(CodePersistenceError, "database", "Could not save changes, please try again", http.StatusInternalServerError)
	ErrUnknown            = New(CodeUnknownError, "system", "An unknown error occurred", http.StatusInternalServerError)
)

// UploadFailed wraps an object-store error raised while uploading.
func UploadFailed(err error) *AppError {
	return ErrUploadFailed.WithError(err)
}

// DeleteFailed wraps an object-store error raised while deleting.
func DeleteFailed(err error) *AppError {
	return ErrDeleteFailed.WithError(err)
}

// TransactionFailed wraps a failed or aborted multi-record commit.
func TransactionFailed(domain string, err error) *AppError {
	return Wrap(err, CodeTransactionFailed, domain, ErrTransactionFailed.Message, http.StatusInternalServerError)
}

// PersistenceError wraps a failed single-record write.
func PersistenceError(domain string, err error) *AppError {
	return Wrap(err, CodePersistenceError, domain, ErrPersistence.Message, http.StatusInternalServerError)
}

// UnknownError wraps a failed read or any unclassified failure.
func UnknownError(domain string, err error) *AppError {
	return Wrap(err, CodeUnknownError, domain, ErrUnknown.Message, http.StatusInternalServerError)
}
