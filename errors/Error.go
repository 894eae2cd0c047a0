package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// errorDomain is the ErrorInfo domain used when errors cross the gRPC boundary.
const errorDomain = "btcx"

type Error struct {
	code       ERR
	message    string
	wrappedErr error
	data       ErrDataI
}

type Interface interface {
	Error() string
	Is(target error) bool
	As(target interface{}) bool
	Unwrap() error

	Code() ERR
	Message() string
	WrappedErr() error
	Data() ErrDataI
}

func (e *Error) Error() string {
	// Error() can be called on wrapped errors, which can be nil, for example predefined errors
	if e == nil {
		return "<nil>"
	}

	dataMsg := ""
	if e.data != nil {
		dataMsg = e.data.Error()
	}

	if e.wrappedErr == nil {
		if dataMsg == "" {
			return fmt.Sprintf("Error: %s (error code: %d), Message: %v", e.code.String(), e.code, e.message)
		}

		return fmt.Sprintf("Error: %s (error code: %d), Message: %v, Data: %s", e.code.String(), e.code, e.message, dataMsg)
	}

	if dataMsg == "" {
		return fmt.Sprintf("Error: %s (error code: %d), Message: %v, Wrapped err: %v", e.code.String(), e.code, e.message, e.wrappedErr)
	}

	return fmt.Sprintf("Error: %s (error code: %d), Message: %v, Wrapped err: %v, Data: %s", e.code.String(), e.code, e.message, e.wrappedErr, dataMsg)
}

// Is reports whether error codes match, anywhere in the wrapped chain.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}

	targetError, ok := target.(*Error)
	if !ok {
		return strings.Contains(e.Error(), target.Error())
	}

	if e.code == targetError.code {
		return true
	}

	if e.wrappedErr == nil {
		return false
	}

	if ue, ok := e.wrappedErr.(*Error); ok {
		return ue.Is(target)
	}

	return false
}

func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}

	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}

	// check if Data matches the target type
	if e.data != nil {
		if data, ok := e.data.(error); ok && errors.As(data, target) {
			return true
		}
	}

	if e.wrappedErr != nil {
		// use reflect to see if the value is nil. If it is, return false
		if v := reflect.ValueOf(e.wrappedErr); v.Kind() == reflect.Ptr && v.IsNil() {
			return false
		}

		return errors.As(e.wrappedErr, target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Data() ErrDataI {
	if e == nil {
		return nil
	}

	return e.data
}

func (e *Error) SetData(key string, value interface{}) {
	if e.data == nil {
		e.data = &ErrData{}
	}

	e.data.SetData(key, value)
}

func (e *Error) GetData(key string) interface{} {
	if e.data == nil {
		return nil
	}

	return e.data.GetData(key)
}

// New creates a coded error. The message is formatted with params; when the
// last param is an error it becomes the wrapped error instead.
func New(code ERR, message string, params ...interface{}) *Error {
	var wErr error

	if len(params) > 0 {
		lastParam := params[len(params)-1]

		switch err := lastParam.(type) {
		case *Error:
			if err != nil {
				wErr = err
			}

			params = params[:len(params)-1]
		case error:
			wErr = &Error{code: ERR_ERROR, message: err.Error()}
			params = params[:len(params)-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	if _, ok := ERR_name[int32(code)]; !ok {
		return &Error{
			code:       code,
			message:    "invalid error code",
			wrappedErr: wErr,
		}
	}

	return &Error{
		code:       code,
		message:    message,
		wrappedErr: wErr,
	}
}

// WrapGRPC converts err into a gRPC status error. Every *Error in the wrapped
// chain is attached as an ErrorInfo detail, outermost first.
func WrapGRPC(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		if _, isCustom := err.(*Error); !isCustom {
			return err
		}
	}

	castedErr, ok := err.(*Error)
	if !ok {
		st := status.New(codes.Unknown, err.Error())

		st, detailsErr := st.WithDetails(errorInfo(ERR_ERROR, err.Error(), nil))
		if detailsErr != nil {
			return &Error{
				code:       ERR_ERROR,
				message:    "error adding details to the error's gRPC status",
				wrappedErr: err,
			}
		}

		return st.Err()
	}

	var details []protoadapt.MessageV1

	var current error = castedErr

	for current != nil {
		e, isCustom := current.(*Error)
		if !isCustom {
			details = append(details, errorInfo(ERR_ERROR, current.Error(), nil))
			break
		}

		details = append(details, errorInfo(e.code, e.message, e.data))
		current = e.wrappedErr
	}

	st := status.New(ErrorCodeToGRPCCode(castedErr.code), castedErr.message)

	st, detailsErr := st.WithDetails(details...)
	if detailsErr != nil {
		return &Error{
			code:       ERR_ERROR,
			message:    "error adding details to the error's gRPC status",
			wrappedErr: err,
		}
	}

	return st.Err()
}

func errorInfo(code ERR, message string, data ErrDataI) *errdetails.ErrorInfo {
	metadata := map[string]string{
		"code":    strconv.Itoa(int(code)),
		"message": message,
	}

	if data != nil {
		metadata["data"] = string(data.EncodeErrorData())
	}

	return &errdetails.ErrorInfo{
		Reason:   code.String(),
		Domain:   errorDomain,
		Metadata: metadata,
	}
}

// UnwrapGRPC rebuilds the *Error chain that WrapGRPC attached to a status.
func UnwrapGRPC(err error) *Error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return &Error{
			code:       ERR_ERROR,
			message:    "error unwrapping gRPC details",
			wrappedErr: err,
		}
	}

	if len(st.Details()) == 0 {
		return &Error{
			code:    GRPCCodeToErrorCode(st.Code()),
			message: st.Message(),
		}
	}

	var prevErr, currErr *Error

	details := st.Details()
	for i := len(details) - 1; i >= 0; i-- {
		info, ok := details[i].(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}

		code := ParseERR(info.GetReason())
		if c, convErr := strconv.Atoi(info.GetMetadata()["code"]); convErr == nil {
			code = ERR(c) //nolint:gosec // codes are small
		}

		currErr = New(code, "%s", info.GetMetadata()["message"])

		if raw, ok := info.GetMetadata()["data"]; ok && raw != "" {
			if data, dataErr := GetErrorData(code, []byte(raw)); dataErr == nil {
				currErr.data = data
			}
		}

		if prevErr != nil {
			currErr.wrappedErr = prevErr
		}

		prevErr = currErr
	}

	if currErr == nil {
		return &Error{
			code:    GRPCCodeToErrorCode(st.Code()),
			message: st.Message(),
		}
	}

	return currErr
}

// ErrorCodeToGRPCCode maps application error codes to gRPC status codes.
func ErrorCodeToGRPCCode(code ERR) codes.Code {
	switch code {
	case ERR_UNKNOWN:
		return codes.Unknown
	case ERR_INVALID_ARGUMENT, ERR_INVALID_TARGET, ERR_EMPTY_INPUT, ERR_INVALID_PARENT,
		ERR_TARGET_MISMATCH, ERR_RETARGET_REQUIRED, ERR_INSUFFICIENT_WORK, ERR_INVALID_HEADERS_INPUT:
		return codes.InvalidArgument
	case ERR_UNKNOWN_PARENT, ERR_NOT_FOUND:
		return codes.NotFound
	case ERR_FORKS_NOT_SUPPORTED, ERR_STATE_INITIALIZED, ERR_STATE_NOT_INITIALIZED, ERR_ATTESTATION_REJECTED:
		return codes.FailedPrecondition
	case ERR_UNAUTHORIZED:
		return codes.PermissionDenied
	case ERR_THRESHOLD_EXCEEDED:
		return codes.ResourceExhausted
	case ERR_SERVICE_UNAVAILABLE, ERR_STORAGE_UNAVAILABLE:
		return codes.Unavailable
	case ERR_CONTEXT_CANCELED:
		return codes.Canceled
	case ERR_NETWORK_TIMEOUT:
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// GRPCCodeToErrorCode is used for status errors that carry no ErrorInfo details.
func GRPCCodeToErrorCode(code codes.Code) ERR {
	switch code {
	case codes.InvalidArgument:
		return ERR_INVALID_ARGUMENT
	case codes.NotFound:
		return ERR_NOT_FOUND
	case codes.PermissionDenied, codes.Unauthenticated:
		return ERR_UNAUTHORIZED
	case codes.ResourceExhausted:
		return ERR_THRESHOLD_EXCEEDED
	case codes.Unavailable:
		return ERR_SERVICE_UNAVAILABLE
	case codes.Canceled:
		return ERR_CONTEXT_CANCELED
	case codes.DeadlineExceeded:
		return ERR_NETWORK_TIMEOUT
	case codes.Unknown:
		return ERR_UNKNOWN
	default:
		return ERR_ERROR
	}
}

func Join(errs ...error) error {
	var messages []string

	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return errors.New(strings.Join(messages, ", "))
}

func Is(err, target error) bool {
	if isGRPCWrappedError(err) {
		err = UnwrapGRPC(err)
	}

	return errors.Is(err, target)
}

func As(err error, target any) bool {
	if isGRPCWrappedError(err) {
		err = UnwrapGRPC(err)
	}

	if castedErr, ok := err.(*Error); ok {
		if castedErr.As(target) {
			return true
		}

		if castedErr.wrappedErr != nil {
			return errors.As(castedErr.wrappedErr, target)
		}
	}

	return errors.As(err, target)
}

// AsData reports whether any error data in the chain matches target.
func AsData(err error, target interface{}) bool {
	if isGRPCWrappedError(err) {
		err = UnwrapGRPC(err)
	}

	if castedErr, ok := err.(*Error); ok {
		if castedErr.data != nil {
			if dataErr, ok := castedErr.data.(error); ok && errors.As(dataErr, target) {
				return true
			}
		}

		if castedErr.wrappedErr != nil {
			return AsData(castedErr.wrappedErr, target)
		}
	}

	return false
}

func isGRPCWrappedError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(*Error); ok {
		return false
	}

	_, ok := status.FromError(err)

	return ok
}
