package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/atelier-hq/atelier-backend/internal/engine"
	"github.com/atelier-hq/atelier-backend/internal/session"
)

// sessionTTL matches the sweep window: a game untouched for this long is
// eligible for purging.
const sessionTTL = 48 * time.Hour

var ErrNoCanvases = errors.New("no canvases available to build the deck")

// Store is the Postgres-backed implementation of session.Store and
// session.CanvasCatalog.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.CanvasCatalog = (*Store)(nil)
)

func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&GameSessionRecord{}, &GamePlayerRecord{}, &GameSnapshotRecord{}, &CanvasRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) SaveGameMeta(ctx context.Context, gameID, hostID string, phase engine.Phase) error {
	now := time.Now().UTC()
	rec := GameSessionRecord{
		GameID:    gameID,
		HostID:    hostID,
		Phase:     string(phase),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"host_id", "phase", "updated_at", "expires_at"}),
	}).Create(&rec).Error
}

func (s *Store) SavePlayer(ctx context.Context, gameID string, player session.PlayerRecord) error {
	rec := GamePlayerRecord{
		SessionID:   gameID,
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
		PlayerOrder: player.Order,
		IsConnected: player.Connected,
		UpdatedAt:   time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "player_order", "is_connected", "updated_at"}),
	}).Create(&rec).Error
}

func (s *Store) SaveSnapshot(ctx context.Context, state *engine.GameState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	rec := GameSnapshotRecord{
		GameID:    state.ID,
		Phase:     string(state.Phase),
		DayNumber: state.Day.DayNumber,
		StateJSON: string(blob),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"phase", "day_number", "state_json", "updated_at"}),
	}).Create(&rec).Error
}

// FetchCanvasDefinitions loads and normalizes the whole catalog in id order.
// A single unusable row fails the fetch: a deck with silently missing cards
// would change game balance.
func (s *Store) FetchCanvasDefinitions(ctx context.Context) ([]engine.CanvasDefinition, error) {
	var rows []CanvasRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query canvases: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoCanvases
	}

	defs := make([]engine.CanvasDefinition, 0, len(rows))
	for _, row := range rows {
		def, err := buildDefinition(row)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// PurgeExpired removes sessions past their TTL along with their players and
// snapshots. Returns how many sessions went away.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	var expired []GameSessionRecord
	if err := s.db.WithContext(ctx).Where("expires_at < ?", now).Find(&expired).Error; err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, len(expired))
	for i, rec := range expired {
		ids[i] = rec.GameID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id IN ?", ids).Delete(&GamePlayerRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id IN ?", ids).Delete(&GameSnapshotRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("game_id IN ?", ids).Delete(&GameSessionRecord{}).Error
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("purged expired game sessions", zap.Int("count", len(ids)))
	return int64(len(ids)), nil
}
