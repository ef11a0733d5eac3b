package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/logger"
	"github.com/intelink/console/internal/models"
)

// SessionSweeper deletes stored sessions whose refresh token has expired.
type SessionSweeper struct {
	db   *gorm.DB
	Cron *cron.Cron
	now  func() time.Time
	log  *logrus.Entry
}

// NewSessionSweeper schedules Sweep with a standard cron spec or a
// descriptor such as "@every 1h". The schedule runs once Start is called.
func NewSessionSweeper(db *gorm.DB, schedule string) (*SessionSweeper, error) {
	s := &SessionSweeper{
		db:   db,
		Cron: cron.New(),
		now:  time.Now,
		log:  logger.Component("session-sweeper"),
	}
	if _, err := s.Cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(); err != nil {
			s.log.WithError(err).Error("session sweep failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *SessionSweeper) Start() {
	s.Cron.Start()
}

// Stop halts the schedule and returns a context that is done once a running
// sweep has finished.
func (s *SessionSweeper) Stop() context.Context {
	return s.Cron.Stop()
}

// Sweep removes empty sessions and sessions whose refresh token carries an
// exp claim in the past. Opaque or non-expiring tokens are kept.
func (s *SessionSweeper) Sweep() (int64, error) {
	var sessions []models.StoredSession
	if err := s.db.Find(&sessions).Error; err != nil {
		return 0, err
	}

	now := s.now()
	var stale []uint
	for _, session := range sessions {
		if session.AccessToken == "" && session.RefreshToken == "" {
			stale = append(stale, session.ID)
			continue
		}
		exp, err := client.TokenExpiry(session.RefreshToken)
		if err != nil {
			continue
		}
		if !exp.After(now) {
			stale = append(stale, session.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	result := s.db.Delete(&models.StoredSession{}, stale)
	if result.Error != nil {
		return 0, result.Error
	}
	s.log.WithField("removed", result.RowsAffected).Info("expired sessions removed")
	return result.RowsAffected, nil
}
