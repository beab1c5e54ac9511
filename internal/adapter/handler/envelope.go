package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	errInvalidJSON = errors.New("invalid json")
	errStructure   = errors.New("invalid event structure")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// unwrapEvent returns the request object carried by an invocation event:
//
//  1. an event with "body" uses it, either as a JSON string to decode or as
//     an object; a top-level "action" next to "body" is ambiguous and rejected
//  2. otherwise an event with "action" is the request itself
//  3. anything else is rejected
func unwrapEvent(event []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(event, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}

	body, hasBody := fields["body"]
	_, hasAction := fields["action"]

	switch {
	case hasBody && hasAction:
		return nil, fmt.Errorf("%w: both body and action are present", errStructure)
	case hasBody:
		return unwrapBody(body)
	case hasAction:
		return json.RawMessage(event), nil
	default:
		return nil, fmt.Errorf("%w: expected body or action", errStructure)
	}
}

func unwrapBody(body json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", errStructure)
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
		}
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("%w: body is not valid JSON", errInvalidJSON)
		}
		if !isObject([]byte(s)) {
			return nil, fmt.Errorf("%w: body must be a JSON object", errStructure)
		}
		return json.RawMessage(s), nil
	case '{':
		return json.RawMessage(trimmed), nil
	default:
		return nil, fmt.Errorf("%w: body must be a string or an object", errStructure)
	}
}

func isObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// actionOf reads just the action name of a request object.
func actionOf(request []byte) (string, error) {
	if !json.Valid(request) {
		return "", errInvalidJSON
	}
	if !isObject(request) {
		return "", fmt.Errorf("%w: request must be a JSON object", errStructure)
	}
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(request, &head); err != nil {
		return "", fmt.Errorf("%w: %v", errStructure, err)
	}
	return head.Action, nil
}

// decodePayload fills dst from raw. A type mismatch is errStructure; a
// failed validation tag is returned as validator.ValidationErrors.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errStructure, err)
	}
	return validate.Struct(dst)
}

// fieldErrors lists "field is required"-style messages for validation failures.
func fieldErrors(err error) (string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "", false
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; "), true
}
