package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/pkg/types"
)

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, body io.Reader) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env.Error
}

func decodeData(t *testing.T, body io.Reader, dest any) {
	t.Helper()
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}
