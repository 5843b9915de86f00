package jsonrpc

import "fmt"

// ErrorCode is a number indicating the error type that occurred.
type ErrorCode int

// JSON-RPC error codes
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#errorCodes
const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603

	// ServerNotInitialized is returned for requests received before the initialize request.
	ServerNotInitialized ErrorCode = -32002
	UnknownErrorCode     ErrorCode = -32001
	RequestCancelled     ErrorCode = -32800
)

// ResponseError is an error object in case a request fails.
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#responseError
type ResponseError struct {
	Code    ErrorCode `json:"code"`    // A number indicating the error type that occurred.
	Message string    `json:"message"` // A string providing a short description of the error.
	// A primitive or structured value that contains additional information about the error. Can be omitted.
	Data any `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("jsonrpc error: code = %d message = %q data = %v", e.Code, e.Message, e.Data)
}

// NewError returns an error which can be encoded as a JSON-RPC error response.
func NewError(code ErrorCode, message string, data any) error {
	return &ResponseError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewMethodNotFoundError returns an error indicating that the requested method was not found.
func NewMethodNotFoundError(method string) error {
	return NewError(MethodNotFound, "Method not found", map[string]string{"method": method})
}

// NewInvalidRequestError returns an error indicating that the provided request is invalid.
func NewInvalidRequestError(errorMsg string) error {
	return newErrorWithErrorField(InvalidRequest, "Invalid Request", errorMsg)
}

// NewInvalidParamsError returns an error indicating that the params of a request or notification are invalid.
func NewInvalidParamsError(errorMsg string) error {
	return newErrorWithErrorField(InvalidParams, "Invalid params", errorMsg)
}

func newParseError(errorMsg string) error {
	return newErrorWithErrorField(ParseError, "Parse error", errorMsg)
}

func newInternalError(errorMsg string) *ResponseError {
	return newErrorWithErrorField(InternalError, "Internal error", errorMsg).(*ResponseError)
}

func newErrorWithErrorField(code ErrorCode, message, errorMsg string) error {
	return NewError(code, message, map[string]string{"error": errorMsg})
}
