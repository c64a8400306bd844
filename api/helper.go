package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thisisjab/usersearch/fault"
)

// maxRequestBytes bounds compile and search bodies. A search is a handful of
// short strings per column.
const maxRequestBytes = 1 << 20

type apiResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// readRequest decodes a single JSON request body into dst. Decoding problems
// are returned as bad input faults, keyed by the offending field when known.
func (s *server) readRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fault.New(fault.BadInputCode, "Body must only contain a single JSON value.")
	}

	return nil
}

func decodeError(err error) error {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxError):
		return fault.New(fault.BadInputCode, fmt.Sprintf("Body contains badly-formed JSON at character %d.", syntaxError.Offset))

	case errors.Is(err, io.ErrUnexpectedEOF):
		return fault.New(fault.BadInputCode, "Body contains badly-formed JSON.")

	case errors.Is(err, io.EOF):
		return fault.New(fault.BadInputCode, "Body cannot be empty.")

	case errors.As(err, &maxBytesError):
		return fault.New(fault.BadInputCode, fmt.Sprintf("Body must not be larger than %d bytes.", maxBytesError.Limit))

	case errors.As(err, &typeError):
		if typeError.Field == "" {
			return fault.New(fault.BadInputCode, fmt.Sprintf("Body contains badly-formed JSON at character %d.", typeError.Offset))
		}

		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			typeError.Field: []string{fieldTypeMessage(typeError.Field)},
		})

	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)

		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			field: []string{"Key is unknown."},
		})

	default:
		return err
	}
}

// fieldTypeMessage names what a request field must hold. Search values are
// addressed as search.<column>.
func fieldTypeMessage(field string) string {
	switch {
	case field == "search":
		return "Expected an object of column searches."
	case strings.HasPrefix(field, "search."):
		return "Expected a search string."
	case field == "limit":
		return "Expected a whole number."
	default:
		return "Has the wrong type."
	}
}

func (s *server) writeData(w http.ResponseWriter, data, metadata map[string]any) {
	s.writeResponse(w, http.StatusOK, apiResponse{Success: true, Data: data, Metadata: metadata})
}

func (s *server) writeResponse(w http.ResponseWriter, status int, resp apiResponse) {
	js, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("couldn't encode response.", "status", status, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(js, '\n')) //nolint:errcheck
}
