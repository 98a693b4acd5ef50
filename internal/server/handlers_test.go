package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blueprint-engine/internal/server/middleware"
)

type deadlineRecorder struct {
	*httptest.ResponseRecorder
	deadline    time.Time
	deadlineSet bool
}

func (r *deadlineRecorder) SetWriteDeadline(t time.Time) error {
	r.deadline = t
	r.deadlineSet = true
	return nil
}

func TestGenerationContextSurvivesClientCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	userID := uuid.New()

	req := httptest.NewRequest("POST", "/projects/abc/suite", nil)
	req = req.WithContext(middleware.WithUserID(ctx, userID))
	rec := &deadlineRecorder{ResponseRecorder: httptest.NewRecorder()}

	detached := generationContext(rec, req)

	// The client goes away; the charged batch keeps its live context.
	cancel()
	require.Error(t, ctx.Err())
	assert.NoError(t, detached.Err())

	// Request-scoped values still flow through.
	got, err := middleware.GetUserID(req.WithContext(detached))
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGenerationContextLiftsWriteDeadline(t *testing.T) {
	rec := &deadlineRecorder{ResponseRecorder: httptest.NewRecorder()}
	req := httptest.NewRequest("POST", "/projects/abc/suite", nil)

	generationContext(rec, req)

	require.True(t, rec.deadlineSet)
	assert.True(t, rec.deadline.IsZero())
}

func TestGenerationContextWithoutDeadlineSupport(t *testing.T) {
	// httptest.ResponseRecorder has no write deadline; the helper must not
	// fail on transports that cannot adjust it.
	req := httptest.NewRequest("POST", "/projects/abc/suite", nil)
	detached := generationContext(httptest.NewRecorder(), req)
	assert.NoError(t, detached.Err())
}
