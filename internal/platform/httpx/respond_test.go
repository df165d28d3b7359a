package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemUsesProblemJSONMediaType(t *testing.T) {
	rr := httptest.NewRecorder()
	Problem(rr, http.StatusForbidden, "Forbidden", "nope")

	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"title":"Forbidden"`)
	assert.Contains(t, rr.Body.String(), `"status":403`)
}

func TestJSONUsesPlainJSONMediaType(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: role 9", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: toggle banner", ErrDuplicate), http.StatusConflict},
		{fmt.Errorf("%w: name required", ErrValidation), http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, "error %v", tc.err)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}
