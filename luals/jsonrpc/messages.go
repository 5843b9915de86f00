package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
)

const validJSONRPC = "2.0"

//gosumtype:decl message
type message interface {
	isMessage()
}

// request is a call which expects exactly one response carrying the same ID.
//
// https://www.jsonrpc.org/specification#request_object
type request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      id               `json:"id"`
	Method  string           `json:"method"`
	Params  *json.RawMessage `json:"params,omitempty"`
}

func (r *request) isMessage() {}

// notification is a call without an ID. It's never answered, even when handling it fails.
//
// https://www.jsonrpc.org/specification#notification
type notification struct {
	JSONRPC string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  *json.RawMessage `json:"params,omitempty"`
}

func (n *notification) isMessage() {}

// response answers a request. Exactly one of Result and Error is set. A successful request without a value has a
// null Result.
//
// https://www.jsonrpc.org/specification#response_object
type response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      id               `json:"id"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError   `json:"error,omitempty"`
}

func (r *response) isMessage() {}

type combinedMessage struct {
	JSONRPC optional[string]           `json:"jsonrpc"`
	ID      nullOptional[id]           `json:"id"`
	Method  optional[string]           `json:"method"`
	Params  optional[*json.RawMessage] `json:"params"`
	Result  optional[*json.RawMessage] `json:"result"`
	Error   optional[*ResponseError]   `json:"error"`
}

func unmarshalMessage(content []byte) (message, error) {
	var combinedMsg combinedMessage
	if err := json.Unmarshal(content, &combinedMsg); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || !json.Valid(content) {
			return nil, newParseError(err.Error())
		}
		return nil, NewInvalidRequestError(err.Error())
	}

	if !combinedMsg.JSONRPC.IsPresent() {
		return nil, NewInvalidRequestError("jsonrpc is required")
	}
	jsonrpc := combinedMsg.JSONRPC.Get()
	if jsonrpc != validJSONRPC {
		return nil, NewInvalidRequestError(fmt.Sprintf("invalid jsonrpc value %q, must be %q", jsonrpc, validJSONRPC))
	}

	// We read requests (including notifications) and responses from the same stream. If we can't determine which one it
	// is, we assume it's a request as this is more likely.
	if combinedMsg.ID.IsPresent() && (combinedMsg.Result.IsPresent() || combinedMsg.Error.IsPresent()) &&
		!combinedMsg.Method.IsPresent() && !combinedMsg.Params.IsPresent() {

		resp := &response{JSONRPC: jsonrpc, ID: nullID}
		if !combinedMsg.ID.IsNull() {
			resp.ID = combinedMsg.ID.Get()
		}
		if combinedMsg.Result.IsPresent() && combinedMsg.Error.IsPresent() {
			return nil, NewInvalidRequestError("result and error are mutually exclusive")
		}
		if combinedMsg.Result.IsPresent() {
			resp.Result = combinedMsg.Result.Get()
		} else {
			resp.Error = combinedMsg.Error.Get()
		}
		return resp, nil
	}

	// Message is a request or notification
	if !combinedMsg.Method.IsPresent() {
		return nil, NewInvalidRequestError("method is required")
	}
	method := combinedMsg.Method.Get()
	var params *json.RawMessage
	if combinedMsg.Params.IsPresent() {
		params = combinedMsg.Params.Get()
		if first := firstByte(*params); first != '{' && first != '[' {
			return nil, NewInvalidRequestError("params must be an object or an array")
		}
	}
	if combinedMsg.Result.IsPresent() {
		return nil, NewInvalidRequestError("result is not a valid request field")
	}
	if combinedMsg.Error.IsPresent() {
		return nil, NewInvalidRequestError("error is not a valid request field")
	}
	if combinedMsg.ID.IsPresent() {
		reqID := nullID
		if !combinedMsg.ID.IsNull() {
			reqID = combinedMsg.ID.Get()
		}
		return &request{JSONRPC: jsonrpc, ID: reqID, Method: method, Params: params}, nil
	}
	return &notification{JSONRPC: jsonrpc, Method: method, Params: params}, nil
}

func firstByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// id is a request id. It can be any JSON scalar and is kept in its original encoding so that it's echoed back in the
// response exactly as it was received.
type id struct {
	raw string
}

var nullID = id{raw: "null"}

func (i *id) UnmarshalJSON(b []byte) error {
	switch firstByte(b) {
	case '{', '[':
		return &json.UnmarshalTypeError{
			Value: string(b),
			Type:  reflect.TypeOf(id{}),
		}
	}
	i.raw = string(bytes.TrimSpace(b))
	return nil
}

func (i id) MarshalJSON() ([]byte, error) {
	if i.raw == "" {
		return []byte("null"), nil
	}
	return []byte(i.raw), nil
}

func (i id) String() string {
	if i.raw == "" {
		return "null"
	}
	return i.raw
}

var idRe = regexp.MustCompile(`"id"\s*:\s*("(?:[^"\\]|\\.)*"|-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?|true|false|null)`)

// salvageID recovers the id of a message which couldn't be unmarshalled so that an error response can be addressed to
// it. It reports whether an id was found.
func salvageID(content []byte) (id, bool) {
	var withID struct {
		ID nullOptional[id] `json:"id"`
	}
	if err := json.Unmarshal(content, &withID); err == nil {
		if !withID.ID.IsPresent() {
			return id{}, false
		}
		if withID.ID.IsNull() {
			return nullID, true
		}
		return withID.ID.Get(), true
	}
	match := idRe.FindSubmatch(content)
	if match == nil {
		return id{}, false
	}
	return id{raw: string(match[1])}, true
}

// optional is a JSON value which can be present and non-null, or not present.
type optional[T any] []T

func (o optional[T]) IsPresent() bool {
	return o != nil
}

func (o optional[T]) Get() T {
	if !o.IsPresent() {
		panic("get of an absent value")
	}
	return o[0]
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	*o = optional[T]{}
	if bytes.Equal(data, []byte("null")) {
		return &json.UnmarshalTypeError{
			Value: "null",
			Type:  reflect.TypeOf(new(T)).Elem(),
		}
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = append(*o, v)
	return nil
}

// nullOptional is a JSON value that can be present and non-null, present and null, or not present.
type nullOptional[T any] []*T

func (o nullOptional[T]) IsPresent() bool {
	return o != nil
}

func (o nullOptional[T]) IsNull() bool {
	return o.IsPresent() && o[0] == nil
}

func (o nullOptional[T]) Get() T {
	if !o.IsPresent() {
		panic("get of an absent value")
	}
	if o.IsNull() {
		panic("get of a null value")
	}
	return *o[0]
}

func (o *nullOptional[T]) UnmarshalJSON(data []byte) error {
	*o = nullOptional[T]{}
	if bytes.Equal(data, []byte("null")) {
		*o = append(*o, nil)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = append(*o, &v)
	return nil
}
