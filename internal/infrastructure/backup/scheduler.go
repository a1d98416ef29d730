package backup

import (
	"context"
	"fmt"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/backup"

	"go.uber.org/zap"
)

// Scheduler manages automatic backups
type Scheduler struct {
	backupService *backup.BackupService
	postRepo      ports.PostRepository
	campaignRepo  ports.CampaignRepository
	interval      time.Duration
	retentionDays int
	logger        *zap.SugaredLogger
	stopChan      chan struct{}
}

// Config contains scheduler configuration
type Config struct {
	Interval      time.Duration
	RetentionDays int
}

// NewScheduler creates a new backup scheduler
func NewScheduler(
	backupService *backup.BackupService,
	postRepo ports.PostRepository,
	campaignRepo ports.CampaignRepository,
	cfg Config,
	logger *zap.SugaredLogger,
) *Scheduler {
	return &Scheduler{
		backupService: backupService,
		postRepo:      postRepo,
		campaignRepo:  campaignRepo,
		interval:      cfg.Interval,
		retentionDays: cfg.RetentionDays,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start starts the backup scheduler
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run initial backup
	s.runBackup(ctx)

	for {
		select {
		case <-ticker.C:
			s.runBackup(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the backup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// runBackup performs a backup
func (s *Scheduler) runBackup(ctx context.Context) {
	s.logger.Info("starting scheduled backup")

	backupData, err := s.collectData(ctx)
	if err != nil {
		s.logger.Errorw("failed to collect backup data", "error", err)
		return
	}

	backupName, err := s.backupService.CreateBackup(ctx, backupData)
	if err != nil {
		s.logger.Errorw("failed to create backup", "error", err)
		return
	}

	s.logger.Infow("backup created successfully", "backup_name", backupName)

	if err := s.cleanupOldBackups(ctx); err != nil {
		s.logger.Warnw("failed to cleanup old backups", "error", err)
	}
}

// collectData collects data from repositories
func (s *Scheduler) collectData(ctx context.Context) (*backup.BackupData, error) {
	data := &backup.BackupData{
		Posts:     make(map[string]interface{}),
		Campaigns: make(map[string]interface{}),
		Metadata:  make(map[string]interface{}),
	}

	// The unfiltered view: backups capture everything regardless of owner
	everything := domain.OwnershipFilter{All: true}

	posts, err := s.postRepo.List(ctx, everything, ports.PostListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	for _, post := range posts {
		data.Posts[post.ID] = post
	}

	campaigns, err := s.campaignRepo.List(ctx, everything)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	for _, campaign := range campaigns {
		data.Campaigns[campaign.ID] = campaign
	}

	data.Metadata["post_count"] = len(data.Posts)
	data.Metadata["campaign_count"] = len(data.Campaigns)
	data.Metadata["backup_type"] = "scheduled"

	return data, nil
}

// cleanupOldBackups removes backups older than retention period
func (s *Scheduler) cleanupOldBackups(ctx context.Context) error {
	backups, err := s.backupService.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	cutoffTime := time.Now().AddDate(0, 0, -s.retentionDays)

	for _, backupName := range backups {
		// Parse timestamp from backup name (format: backup-20060102-150405.json)
		if len(backupName) < 22 {
			continue
		}

		timestampStr := backupName[7:22]
		timestamp, err := time.Parse("20060102-150405", timestampStr)
		if err != nil {
			s.logger.Warnw("failed to parse backup timestamp", "backup_name", backupName, "error", err)
			continue
		}

		if timestamp.Before(cutoffTime) {
			if err := s.backupService.DeleteBackup(ctx, backupName); err != nil {
				s.logger.Warnw("failed to delete old backup", "backup_name", backupName, "error", err)
				continue
			}
			s.logger.Infow("deleted old backup", "backup_name", backupName, "age", time.Since(timestamp))
		}
	}

	return nil
}
