// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API. Each handler group owns
// the stores it needs; errors from stores are translated to statuses by
// their apperr.Kind.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"homepros/internal/apperr"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// envelope is the top-level object of every success response.
type envelope map[string]any

// errorBody is the top-level object of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// responder writes JSON responses. Error details are included only
// outside production.
type responder struct {
	showDetails bool
}

// ok writes a success envelope with status "success".
func (rs responder) ok(w http.ResponseWriter, code int, env envelope) {
	if env == nil {
		env = envelope{}
	}
	env["status"] = "success"
	writeJSON(w, code, env)
}

// fail translates err into a status code and JSON error body. Internal
// errors are logged with op; client errors are not.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := apperr.KindOf(err)
	body := errorBody{Error: apperr.MessageOf(err)}

	if kind == apperr.KindInternal {
		slog.Error(op+" failed", "error", err, "method", r.Method, "path", r.URL.Path)
		body.Error = "Failed to " + op
	}
	if rs.showDetails {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Err != nil {
			body.Details = ae.Err.Error()
		} else if kind == apperr.KindInternal {
			body.Details = err.Error()
		}
	}

	writeJSON(w, kind.HTTPStatus(), body)
}

// writeJSON marshals v as the response body with the given status.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body").With(err)
	}
	return nil
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// parseUUID parses a body field as a UUID.
func parseUUID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + field)
	}
	return id, nil
}

// queryBool parses an optional boolean query parameter. Missing or
// unparseable values yield nil.
func queryBool(r *http.Request, name string) *bool {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}
