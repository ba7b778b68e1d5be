// Package jobrunrepo records when periodic jobs last did their work.
package jobrunrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRunDTO struct {
	Job       string `gorm:"size:64;primaryKey"`
	LastRunAt *time.Time
}

func (JobRunDTO) TableName() string {
	return "job_runs"
}

// GormJobRunRepository implements ports.JobRunRepository using GORM.
type GormJobRunRepository struct {
	db *gorm.DB
}

func NewGormJobRunRepository(db *gorm.DB) *GormJobRunRepository {
	return &GormJobRunRepository{db: db}
}

// LastRun locks the job's row for the rest of the transaction, so that two
// instances never both decide the job is due.
func (r *GormJobRunRepository) LastRun(ctx context.Context, job string) (time.Time, bool, error) {
	db := r.db.WithContext(ctx)

	// the row has to exist to be locked
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&JobRunDTO{Job: job}).Error; err != nil {
		return time.Time{}, false, err
	}

	var dto JobRunDTO
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&dto, "job = ?", job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if dto.LastRunAt == nil {
		return time.Time{}, false, nil
	}
	return *dto.LastRunAt, true, nil
}

func (r *GormJobRunRepository) MarkRun(ctx context.Context, job string, at time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_run_at"}),
	}).Create(&JobRunDTO{Job: job, LastRunAt: &at}).Error
}
