// Package storage keeps the history of finished games in postgres. Live room
// state never touches the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrDuplicateRecord = errors.New("game already recorded")

const uniqueViolation = "23505"

type GameRecord struct {
	ID           uint                `gorm:"primaryKey"`
	ChatID       int64               `gorm:"not null;uniqueIndex:idx_game_chat_started"`
	StartedAt    time.Time           `gorm:"not null;uniqueIndex:idx_game_chat_started"`
	FinishedAt   time.Time           `gorm:"not null;index"`
	Reason       string              `gorm:"size:32;not null"`
	HusbandID    int64
	WinnerID     int64
	Rounds       int
	Participants []ParticipantRecord `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
}

type ParticipantRecord struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     uint   `gorm:"not null;uniqueIndex:idx_participant_game_user"`
	UserID     int64  `gorm:"not null;uniqueIndex:idx_participant_game_user"`
	FirstName  string `gorm:"size:64"`
	Username   string `gorm:"size:64"`
	Role       string `gorm:"size:16;not null"`
	Number     int
	AFK        bool
	Eliminated bool
}

// Recorder persists a finished game.
type Recorder interface {
	RecordGame(ctx context.Context, rec *GameRecord) error
}

// History reads finished games back.
type History interface {
	ListGames(ctx context.Context, chatID int64, limit int) ([]GameRecord, error)
}

type discard struct{}

func (discard) RecordGame(context.Context, *GameRecord) error { return nil }

func (discard) ListGames(context.Context, int64, int) ([]GameRecord, error) { return nil, nil }

// Discard is used when no database is configured.
var Discard interface {
	Recorder
	History
} = discard{}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&GameRecord{}, &ParticipantRecord{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordGame inserts the game together with its participants.
func (s *Store) RecordGame(ctx context.Context, rec *GameRecord) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateRecord
	}
	s.log.Error("record game failed", zap.Int64("chat_id", rec.ChatID), zap.Error(err))
	return fmt.Errorf("record game: %w", err)
}

// ListGames returns the latest finished games of a chat, newest first.
func (s *Store) ListGames(ctx context.Context, chatID int64, limit int) ([]GameRecord, error) {
	var games []GameRecord
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("number, user_id") }).
		Where("chat_id = ?", chatID).
		Order("finished_at DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
