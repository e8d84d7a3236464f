package store

import "time"

// GameSessionRecord mirrors one row per game. ExpiresAt rolls forward on
// every write; PurgeExpired sweeps rows nobody touched for the TTL.
type GameSessionRecord struct {
	GameID    string    `gorm:"primaryKey;size:64;column:game_id"`
	HostID    string    `gorm:"size:64;not null;column:host_id"`
	Phase     string    `gorm:"size:20;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	ExpiresAt time.Time `gorm:"index;column:expires_at"`
}

func (GameSessionRecord) TableName() string { return "game_sessions" }

type GamePlayerRecord struct {
	SessionID   string    `gorm:"primaryKey;size:64;column:session_id"`
	PlayerID    string    `gorm:"primaryKey;size:64;column:player_id"`
	DisplayName string    `gorm:"size:128;not null;column:display_name"`
	PlayerOrder int       `gorm:"not null;column:player_order"`
	IsConnected bool      `gorm:"column:is_connected"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (GamePlayerRecord) TableName() string { return "game_session_players" }

// GameSnapshotRecord holds the latest full state as JSON. Phase and day are
// denormalized for querying without unpacking the blob.
type GameSnapshotRecord struct {
	GameID    string    `gorm:"primaryKey;size:64;column:game_id"`
	Phase     string    `gorm:"size:20;column:phase"`
	DayNumber int       `gorm:"column:day_number"`
	StateJSON string    `gorm:"type:jsonb;column:state_json"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (GameSnapshotRecord) TableName() string { return "game_snapshots" }

// CanvasRecord is one catalog card. The square layout lives in layout_json
// and is normalized at read time.
type CanvasRecord struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Title      string  `gorm:"size:255;not null" json:"title"`
	Artist     *string `gorm:"size:255" json:"artist"`
	Year       *string `gorm:"size:32" json:"year"`
	StarValue  int     `gorm:"column:star_value" json:"star_value"`
	PaintValue int     `gorm:"column:paint_value" json:"paint_value"`
	FoodValue  int     `gorm:"column:food_value" json:"food_value"`
	LayoutJSON string  `gorm:"type:jsonb;column:layout_json" json:"layout_json"`
}

func (CanvasRecord) TableName() string { return "canvases" }
