// ABOUTME: Response envelope normalization for the platform API
// ABOUTME: Unwraps tagged {success,data,error} bodies and passes raw JSON through

package client

import (
	"bytes"
	"encoding/json"
	"strings"
)

// networkErrorMessage is the last-resort message when nothing better is known
const networkErrorMessage = "Network error"

// errorBody is the error member of a tagged envelope
type errorBody struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// normalize turns a completed HTTP exchange into either the payload to decode
// or a structured error. Tagged envelopes are recognised by a boolean
// "success" member; anything else on a 2xx status is passed through as is.
func normalize(status int, body []byte) (json.RawMessage, *Error) {
	fields := parseObject(body)

	if status >= 200 && status < 300 {
		if raw, ok := fields["success"]; ok {
			var success bool
			if json.Unmarshal(raw, &success) == nil {
				if !success {
					return nil, envelopeError(status, fields)
				}
				return fields["data"], nil
			}
		}
		return body, nil
	}

	return nil, failureError(status, body, fields, "")
}

// envelopeError builds the error for a {success:false} body
func envelopeError(status int, fields map[string]json.RawMessage) *Error {
	e := &Error{Status: status}
	eb, msg := parseErrorMember(fields["error"])
	if eb != nil {
		e.Code = codeString(eb.Code)
		e.Details = decodeAny(eb.Details)
	}
	e.Message = firstNonEmpty(msg, stringField(fields, "message"), "Request failed")
	return e
}

// failureError builds the error for a non-2xx response or a transport failure.
// Message priority: error.message, message, transport message, "Network error".
func failureError(status int, body []byte, fields map[string]json.RawMessage, transportMsg string) *Error {
	e := &Error{Status: status}

	eb, msg := parseErrorMember(fields["error"])
	e.Message = firstNonEmpty(msg, stringField(fields, "message"), transportMsg, networkErrorMessage)

	if eb != nil {
		e.Code = codeString(eb.Code)
		e.Details = decodeAny(eb.Details)
	}
	if e.Details == nil {
		e.Details = rawDetails(body, fields)
	}
	return e
}

// parseErrorMember accepts both {"error":{...}} and {"error":"text"}
func parseErrorMember(raw json.RawMessage) (*errorBody, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return nil, text
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) != nil {
		return nil, ""
	}
	return &eb, eb.Message
}

// parseObject returns the members of a JSON object body, or nil
func parseObject(body []byte) map[string]json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return nil
	}
	return fields
}

// codeString renders a string or numeric error code
func codeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return v
}

// rawDetails returns the body itself as details: decoded JSON when possible,
// otherwise the text, or nil when empty
func rawDetails(body []byte, fields map[string]json.RawMessage) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if fields != nil {
		return decodeAny(body)
	}
	if v := decodeAny(body); v != nil {
		return v
	}
	return string(body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
