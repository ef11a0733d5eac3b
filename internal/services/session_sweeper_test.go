package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelink/console/internal/models"
)

func refreshToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("sweeper-test"))
	require.NoError(t, err)
	return tok
}

func TestSessionSweeper_Sweep(t *testing.T) {
	db := setupPresetDB(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	sessions := []models.StoredSession{
		{Profile: "expired", AccessToken: "a", RefreshToken: refreshToken(t, now.Add(-time.Minute))},
		{Profile: "valid", AccessToken: "a", RefreshToken: refreshToken(t, now.Add(time.Hour))},
		{Profile: "opaque", AccessToken: "a", RefreshToken: "opaque-token"},
		{Profile: "empty"},
	}
	require.NoError(t, db.Create(&sessions).Error)

	sweeper, err := NewSessionSweeper(db, "@every 1h")
	require.NoError(t, err)
	sweeper.now = func() time.Time { return now }

	removed, err := sweeper.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var left []models.StoredSession
	require.NoError(t, db.Order("profile").Find(&left).Error)
	require.Len(t, left, 2)
	assert.Equal(t, "opaque", left[0].Profile)
	assert.Equal(t, "valid", left[1].Profile)

	removed, err = sweeper.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSessionSweeper_Cron(t *testing.T) {
	db := setupPresetDB(t)

	sweeper, err := NewSessionSweeper(db, "@every 30m")
	require.NoError(t, err)
	assert.Len(t, sweeper.Cron.Entries(), 1)

	sweeper.Start()
	<-sweeper.Stop().Done()

	_, err = NewSessionSweeper(db, "every now and then")
	assert.Error(t, err)
}
