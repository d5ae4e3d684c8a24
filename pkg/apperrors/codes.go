package apperrors

// ErrorCode is the stable, machine-readable kind of an AppError.
type ErrorCode string

const (
	// Request and input
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"

	// Authentication and authorization
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeForbidden          ErrorCode = "FORBIDDEN"

	// Resources
	CodeNotFound ErrorCode = "NOT_FOUND"

	// External stores
	CodeUploadFailed      ErrorCode = "UPLOAD_FAILED"
	CodeDeleteFailed      ErrorCode = "DELETE_FAILED"
	CodeTransactionFailed ErrorCode = "TRANSACTION_FAILED"
	CodePersistenceError  ErrorCode = "PERSISTENCE_ERROR"

	CodeUnknownError ErrorCode = "UNKNOWN_ERROR"
)
