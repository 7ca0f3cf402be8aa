package repository

import (
	"context"
	"errors"
	"time"

	"matcharena/internal/models"
	"matcharena/internal/rating"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresRepository handles all PostgreSQL operations. Every state
// transition is a single conditional UPDATE so two racing requests can never
// both win the same transition.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// FindMatch retrieves a match by id. Returns (nil, nil) when absent.
func (r *PostgresRepository) FindMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

// CreateMatch inserts a new match row.
func (r *PostgresRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// OldestWaiting returns the oldest waiting match without a responder whose
// initiator is not excludePlayer, or (nil, nil) when the queue is empty.
func (r *PostgresRepository) OldestWaiting(ctx context.Context, excludePlayer string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Where("status = ? AND responder IS NULL AND initiator <> ?", models.StatusWaiting, excludePlayer).
		Order("created_at ASC").
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

// ActivateMatch transitions a match waiting -> active and assigns the
// responder. The guard on status and responder makes activation first-wins:
// the second of two concurrent claimers gets false.
func (r *PostgresRepository) ActivateMatch(ctx context.Context, id, responder string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ? AND responder IS NULL", id, models.StatusWaiting).
		Updates(map[string]interface{}{
			"responder":      responder,
			"status":         models.StatusActive,
			"last_move_time": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AppendMove replaces the move log with moves, guarded by the match still
// being active and the log still holding priorMoves entries. Any
// concurrently accepted move changes the length, so exactly one of two
// racing submissions lands.
func (r *PostgresRepository) AppendMove(ctx context.Context, id string, moves models.MoveList, priorMoves int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ? AND jsonb_array_length(moves) = ?", id, models.StatusActive, priorMoves).
		Updates(map[string]interface{}{
			"moves":          moves,
			"last_move_time": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FinalizeMatch transitions a match active -> complete|abandoned. Returns
// false when the match was not active, so a second finish or timeout of the
// same match can never re-apply its side effects.
func (r *PostgresRepository) FinalizeMatch(ctx context.Context, id string, status models.MatchStatus, winner *string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(map[string]interface{}{
			"status": status,
			"winner": winner,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteExpiredWaiting removes waiting matches created before cutoff.
func (r *PostgresRepository) DeleteExpiredWaiting(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.StatusWaiting, cutoff).
		Delete(&models.Match{})
	return res.RowsAffected, res.Error
}

// AbandonActiveFor force-transitions every active match the player
// participates in to abandoned.
func (r *PostgresRepository) AbandonActiveFor(ctx context.Context, player string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("(initiator = ? OR responder = ?) AND status = ?", player, player, models.StatusActive).
		Update("status", models.StatusAbandoned)
	return res.RowsAffected, res.Error
}

// DeleteOtherWaiting removes the initiator's waiting matches except keepID,
// so a player holds at most one queue entry.
func (r *PostgresRepository) DeleteOtherWaiting(ctx context.Context, initiator, keepID string) error {
	return r.db.WithContext(ctx).
		Where("initiator = ? AND status = ? AND id <> ?", initiator, models.StatusWaiting, keepID).
		Delete(&models.Match{}).Error
}

// DeleteWaitingFor removes the player's own waiting match with no responder.
// Returns false when there was none.
func (r *PostgresRepository) DeleteWaitingFor(ctx context.Context, initiator string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("initiator = ? AND responder IS NULL AND status = ?", initiator, models.StatusWaiting).
		Delete(&models.Match{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindOpenFor returns a waiting or active match the player participates in,
// or (nil, nil) when the player is idle.
func (r *PostgresRepository) FindOpenFor(ctx context.Context, player string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Where("(initiator = ? OR responder = ?) AND status IN ?",
			player, player, []models.MatchStatus{models.StatusWaiting, models.StatusActive}).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

// ApplyResult upserts the player's rating record in one statement: a missing
// record is created, the rating is set, and exactly one outcome counter is
// incremented in place. Concurrent calls for the same player serialize on
// the row inside the database, never on a read-modify-write round trip.
func (r *PostgresRepository) ApplyResult(ctx context.Context, player string, newRating int, outcome rating.Outcome) (*models.RatingRecord, error) {
	record := models.RatingRecord{
		Player: player,
		Rating: newRating,
	}
	switch outcome {
	case rating.OutcomeWin:
		record.Wins = 1
	case rating.OutcomeLoss:
		record.Losses = 1
	case rating.OutcomeDraw:
		record.Draws = 1
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rating":     newRating,
			"wins":       gorm.Expr("rating_records.wins + ?", record.Wins),
			"losses":     gorm.Expr("rating_records.losses + ?", record.Losses),
			"draws":      gorm.Expr("rating_records.draws + ?", record.Draws),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	return r.GetRating(ctx, player)
}

// GetRating retrieves a player's rating record. Returns (nil, nil) when the
// player has no record yet.
func (r *PostgresRepository) GetRating(ctx context.Context, player string) (*models.RatingRecord, error) {
	var record models.RatingRecord
	err := r.db.WithContext(ctx).Where("player = ?", player).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// AllRatings returns rating records ordered by rating descending (used to
// seed and rebuild the Redis view).
func (r *PostgresRepository) AllRatings(ctx context.Context) ([]models.RatingRecord, error) {
	var records []models.RatingRecord
	err := r.db.WithContext(ctx).Order("rating DESC").Find(&records).Error
	return records, err
}

// CountRatings returns the total number of rating records.
func (r *PostgresRepository) CountRatings(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RatingRecord{}).Count(&count).Error
	return count, err
}

// BulkInsertRatings efficiently inserts multiple rating records
func (r *PostgresRepository) BulkInsertRatings(ctx context.Context, records []models.RatingRecord, batchSize int) error {
	return r.db.WithContext(ctx).CreateInBatches(records, batchSize).Error
}

// Ping checks if database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Match{}, &models.RatingRecord{})
}
