package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"videoreach/types"
)

var _ Store = (*Gorm)(nil)

// stepRun records one completed step for a job.
type stepRun struct {
	JobID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_job_step"`
	Step        string    `gorm:"uniqueIndex:idx_job_step"`
	CompletedAt time.Time
}

// Gorm is the durable Store on SQLite.
type Gorm struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// migrates the schema.
func OpenSQLite(path string) (*Gorm, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&types.Job{}, &types.Video{}, &stepRun{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) CreateJob(ctx context.Context, job *types.Job) error {
	err := g.db.WithContext(ctx).Create(job).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrJobExists
	}
	return err
}

func (g *Gorm) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	var job types.Job
	err := g.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (g *Gorm) SaveJob(ctx context.Context, job *types.Job) error {
	return g.db.WithContext(ctx).Save(job).Error
}

func (g *Gorm) CreateVideo(ctx context.Context, video *types.Video) error {
	return g.db.WithContext(ctx).Create(video).Error
}

func (g *Gorm) GetVideo(ctx context.Context, id uuid.UUID) (*types.Video, error) {
	var video types.Video
	err := g.db.WithContext(ctx).First(&video, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (g *Gorm) GetVideoByJob(ctx context.Context, jobID uuid.UUID) (*types.Video, error) {
	var video types.Video
	err := g.db.WithContext(ctx).First(&video, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (g *Gorm) SaveVideo(ctx context.Context, video *types.Video) error {
	return g.db.WithContext(ctx).Save(video).Error
}

func (g *Gorm) ListPublishedVideos(ctx context.Context) ([]*types.Video, error) {
	var videos []*types.Video
	err := g.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (g *Gorm) MarkStepDone(ctx context.Context, jobID uuid.UUID, step string) error {
	run := stepRun{JobID: jobID, Step: step, CompletedAt: time.Now().UTC()}
	// Redelivery may mark the same step twice; the unique index makes the
	// second insert a no-op.
	err := g.db.WithContext(ctx).Create(&run).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (g *Gorm) StepDone(ctx context.Context, jobID uuid.UUID, step string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&stepRun{}).
		Where("job_id = ? AND step = ?", jobID, step).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
