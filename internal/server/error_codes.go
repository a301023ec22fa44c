package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument    = 1000
	ErrCodeInvalidJSON        = 1001
	ErrCodeRequestTooLarge    = 1002
	ErrCodeInvalidStatus      = 1005
	ErrCodeInvalidPriority    = 1007
	ErrCodeMissingRequired    = 1009
	ErrCodeInvalidDueDate     = 1010
	ErrCodeInvalidFileContent = 1015
	ErrCodeFileTooLarge       = 1016

	// Domain state (2xxx)
	ErrCodeTaskNotFound       = 2001
	ErrCodeAttachmentNotFound = 2003
	ErrCodeRouteNotFound      = 2005

	// Auth (3xxx)
	ErrCodeUnauthorized = 3001

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeBlobFailure  = 4006
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 404:
		return ErrCodeRouteNotFound
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
