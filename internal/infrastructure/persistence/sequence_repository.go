package persistence

import (
	"context"
	"errors"

	"github.com/voucherdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// numberSequence is one named counter row
type numberSequence struct {
	Name      string `gorm:"type:varchar(20);primaryKey"`
	LastValue int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (numberSequence) TableName() string {
	return "number_sequences"
}

// GormSequenceRepository hands out document numbers from number_sequences.
// The counter row stays locked until the caller's transaction ends.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next increments the counter called name and returns the new value
func (r *GormSequenceRepository) Next(ctx context.Context, name string, seed func(ctx context.Context) (int, error)) (int, error) {
	db := r.db.WithContext(ctx)

	seq, err := r.lock(db, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		start := 0
		if seed != nil {
			if start, err = seed(ctx); err != nil {
				return 0, err
			}
		}
		row := numberSequence{Name: name, LastValue: start}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return 0, translate(err)
		}
		seq, err = r.lock(db, name)
	}
	if err != nil {
		return 0, translate(err)
	}

	seq.LastValue++
	if err := db.Model(&numberSequence{}).
		Where("name = ?", name).
		Update("last_value", seq.LastValue).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

func (r *GormSequenceRepository) lock(db *gorm.DB, name string) (*numberSequence, error) {
	var seq numberSequence
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ shared.SequenceRepository = (*GormSequenceRepository)(nil)
