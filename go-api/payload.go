package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// validationError is a payload problem the client can fix (HTTP 422).
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func isValidation(err error) bool {
	var ve *validationError
	return errors.As(err, &ve)
}

// decodeJSON reads one JSON object from the body. Every failure is a validation error.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return invalid("request body is empty")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return invalid("field %s must be %s", typeErr.Field, typeErr.Type)
		default:
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return invalid("invalid JSON body")
			}
			return invalid("%s", err.Error())
		}
	}
	return nil
}

// optional records whether a field was present in a partial payload, and
// whether it was an explicit null.
type optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// applyNullable copies the field onto a nullable column; null clears it.
func (o optional[T]) applyNullable(dst **T) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.Value
	*dst = &v
}

// applyRequired copies the field onto a NOT NULL column; null is rejected.
func (o optional[T]) applyRequired(dst *T, field string) error {
	if !o.Set {
		return nil
	}
	if o.Null {
		return invalid("%s may not be null", field)
	}
	*dst = o.Value
	return nil
}

const maxShortText = 255

func requireTitle(title *string) (string, error) {
	if title == nil {
		return "", invalid("title is required")
	}
	t := strings.TrimSpace(*title)
	if t == "" {
		return "", invalid("title may not be blank")
	}
	if utf8.RuneCountInString(t) > maxShortText {
		return "", invalid("title is longer than %d characters", maxShortText)
	}
	return t, nil
}

// checkTags enforces the column width of notes.tags.
func checkTags(tags *string) error {
	if tags != nil && utf8.RuneCountInString(*tags) > maxShortText {
		return invalid("tags is longer than %d characters", maxShortText)
	}
	return nil
}
