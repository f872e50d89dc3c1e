package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/pkg/policy"
)

func TestDecisionStatus(t *testing.T) {
	tests := []struct {
		reason policy.Reason
		status int
	}{
		{policy.ReasonNotAuthenticated, http.StatusUnauthorized},
		{policy.ReasonNotFound, http.StatusNotFound},
		{policy.ReasonInvalidAssignee, http.StatusBadRequest},
		{policy.ReasonNotAMember, http.StatusForbidden},
		{policy.ReasonNotManager, http.StatusForbidden},
		{policy.ReasonNotAuthor, http.StatusForbidden},
		{policy.ReasonNotAccountOwner, http.StatusForbidden},
		{policy.ReasonAuthorNoLongerContributor, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			assert.Equal(t, tt.status, DecisionStatus(tt.reason))
		})
	}
}

func TestWriteDecision(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDecision(rec, policy.Deny(policy.ReasonNotAMember))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_a_member", body["reason"])
	assert.Equal(t, "Forbidden", body["error"])
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteCreated(rec, map[string]int{"id": 7}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id": 7}`, rec.Body.String())
}

func TestWriteErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteBadRequest(rec, "name is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "name is required"}`, rec.Body.String())
}
