package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
)

func TestWriteErrorMapsModelErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"user not found", fmt.Errorf("get user: %w", model.ErrUserNotFound), http.StatusNotFound, CodePlayerNotFound},
		{"hand not found", model.ErrHandNotFound, http.StatusNotFound, CodeHandNotFound},
		{"store unavailable", fmt.Errorf("list draws: %w", storage.ErrUnavailable), http.StatusServiceUnavailable, CodeStoreUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
		{"invalid request", NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{"unauthorized", NewUnauthorizedError(), http.StatusUnauthorized, CodeUnauthorized},
		{"login disabled", NewLoginDisabledError(), http.StatusServiceUnavailable, CodeLoginDisabled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, Status(tc.err))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestInternalErrorsDoNotLeakDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed for user admin"))

	assert.NotContains(t, rec.Body.String(), "password")
}
