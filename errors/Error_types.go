package errors

var (
	ErrUnknown             = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument     = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrThresholdExceeded   = New(ERR_THRESHOLD_EXCEEDED, "threshold exceeded")
	ErrNotFound            = New(ERR_NOT_FOUND, "not found")
	ErrProcessing          = New(ERR_PROCESSING, "error processing")
	ErrConfiguration       = New(ERR_CONFIGURATION, "configuration error")
	ErrContext             = New(ERR_CONTEXT, "context error")
	ErrContextCanceled     = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError               = New(ERR_ERROR, "generic error")
	ErrInvalidTarget       = New(ERR_INVALID_TARGET, "invalid target")
	ErrEmptyInput          = New(ERR_EMPTY_INPUT, "empty input")
	ErrInvalidParent       = New(ERR_INVALID_PARENT, "invalid parent")
	ErrTargetMismatch      = New(ERR_TARGET_MISMATCH, "target mismatch")
	ErrRetargetRequired    = New(ERR_RETARGET_REQUIRED, "retarget required")
	ErrInsufficientWork    = New(ERR_INSUFFICIENT_WORK, "insufficient work")
	ErrInvalidHeadersInput = New(ERR_INVALID_HEADERS_INPUT, "invalid headers input")
	ErrUnknownParent       = New(ERR_UNKNOWN_PARENT, "unknown parent")
	ErrForksNotSupported   = New(ERR_FORKS_NOT_SUPPORTED, "forks not supported")
	ErrUnauthorized        = New(ERR_UNAUTHORIZED, "unauthorized")
	ErrAttestationRejected = New(ERR_ATTESTATION_REJECTED, "attestation rejected")
	ErrServiceUnavailable  = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceNotStarted   = New(ERR_SERVICE_NOT_STARTED, "service not started")
	ErrServiceError        = New(ERR_SERVICE_ERROR, "service error")
	ErrStorageUnavailable  = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrStorageNotStarted   = New(ERR_STORAGE_NOT_STARTED, "storage not started")
	ErrStorageError        = New(ERR_STORAGE_ERROR, "storage error")
	ErrKafka               = New(ERR_KAFKA_ERROR, "kafka error")
	ErrStateInitialized    = New(ERR_STATE_INITIALIZED, "state already initialized")
	ErrStateNotInitialized = New(ERR_STATE_NOT_INITIALIZED, "state not initialized")
	ErrNetwork             = New(ERR_NETWORK_ERROR, "network error")
	ErrNetworkTimeout      = New(ERR_NETWORK_TIMEOUT, "network timeout")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewThresholdExceededError(message string, params ...interface{}) error {
	return New(ERR_THRESHOLD_EXCEEDED, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}

func NewInvalidTargetError(message string, params ...interface{}) error {
	return New(ERR_INVALID_TARGET, message, params...)
}
func NewEmptyInputError(message string, params ...interface{}) error {
	return New(ERR_EMPTY_INPUT, message, params...)
}
func NewInvalidParentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_PARENT, message, params...)
}
func NewTargetMismatchError(message string, params ...interface{}) error {
	return New(ERR_TARGET_MISMATCH, message, params...)
}
func NewRetargetRequiredError(message string, params ...interface{}) error {
	return New(ERR_RETARGET_REQUIRED, message, params...)
}
func NewInsufficientWorkError(message string, params ...interface{}) error {
	return New(ERR_INSUFFICIENT_WORK, message, params...)
}
func NewInvalidHeadersInputError(message string, params ...interface{}) error {
	return New(ERR_INVALID_HEADERS_INPUT, message, params...)
}

func NewUnknownParentError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN_PARENT, message, params...)
}
func NewForksNotSupportedError(message string, params ...interface{}) error {
	return New(ERR_FORKS_NOT_SUPPORTED, message, params...)
}
func NewUnauthorizedError(message string, params ...interface{}) error {
	return New(ERR_UNAUTHORIZED, message, params...)
}
func NewAttestationRejectedError(message string, params ...interface{}) error {
	return New(ERR_ATTESTATION_REJECTED, message, params...)
}

func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}
func NewServiceNotStartedError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_NOT_STARTED, message, params...)
}
func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}
func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
func NewStorageNotStartedError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_NOT_STARTED, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewKafkaError(message string, params ...interface{}) error {
	return New(ERR_KAFKA_ERROR, message, params...)
}
func NewStateInitializedError(message string, params ...interface{}) error {
	return New(ERR_STATE_INITIALIZED, message, params...)
}
func NewStateNotInitializedError(message string, params ...interface{}) error {
	return New(ERR_STATE_NOT_INITIALIZED, message, params...)
}

func NewNetworkError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_ERROR, message, params...)
}
func NewNetworkTimeoutError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_TIMEOUT, message, params...)
}
func NewNetworkConnectionRefusedError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_CONNECTION_REFUSED, message, params...)
}
func NewNetworkInvalidResponseError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_INVALID_RESPONSE, message, params...)
}
