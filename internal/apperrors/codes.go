package apperrors

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeInvalidState     Code = "INVALID_STATE"
	CodePayloadTooLarge  Code = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia Code = "UNSUPPORTED_MEDIA_TYPE"
	CodeExternalService  Code = "EXTERNAL_SERVICE_ERROR"
	CodeInternal         Code = "INTERNAL"
)
