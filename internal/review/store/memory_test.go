package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthfund/internal/review/models"
	"healthfund/pkg/platform/sentinel"
)

func TestInMemoryStore_AppendOnlyLog(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	code := "NHF-20250101-AAAAAA"

	_, err := s.Latest(ctx, code)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Append(ctx, models.NewPending(code)))
	approved, err := models.NewDecision(code, models.StatusApproved, "bob", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, approved))
	assert.Equal(t, int64(2), approved.Seq)

	// another application's decisions do not affect this log
	require.NoError(t, s.Append(ctx, models.NewPending("NHF-20250101-BBBBBB")))

	latest, err := s.Latest(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, latest.Status)
	assert.Equal(t, "bob", latest.ReviewerUsername)

	history, err := s.History(ctx, code)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusPending, history[0].Status)
	assert.Less(t, history[0].Seq, history[1].Seq)
}
