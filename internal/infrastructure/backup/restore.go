package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/backup"

	"go.uber.org/zap"
)

// RestoreService handles restore operations
type RestoreService struct {
	backupService *backup.BackupService
	postRepo      ports.PostRepository
	campaignRepo  ports.CampaignRepository
	logger        *zap.SugaredLogger
}

// NewRestoreService creates a new restore service
func NewRestoreService(
	backupService *backup.BackupService,
	postRepo ports.PostRepository,
	campaignRepo ports.CampaignRepository,
	logger *zap.SugaredLogger,
) *RestoreService {
	return &RestoreService{
		backupService: backupService,
		postRepo:      postRepo,
		campaignRepo:  campaignRepo,
		logger:        logger,
	}
}

// RestoreOptions contains restore options
type RestoreOptions struct {
	OverwriteExisting bool
	RestorePosts      bool
	RestoreCampaigns  bool
	PointInTime       *time.Time // For point-in-time recovery
}

// DefaultRestoreOptions returns default restore options
func DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{
		OverwriteExisting: false,
		RestorePosts:      true,
		RestoreCampaigns:  true,
	}
}

// RestoreFromBackup restores data from a specific backup
func (rs *RestoreService) RestoreFromBackup(ctx context.Context, backupName string, options RestoreOptions) error {
	rs.logger.Infow("starting restore", "backup_name", backupName, "options", options)

	backupData, err := rs.backupService.RestoreBackup(ctx, backupName)
	if err != nil {
		return fmt.Errorf("failed to load backup: %w", err)
	}

	if backupData.Version == "" {
		return fmt.Errorf("invalid backup: missing version")
	}

	// Campaigns first so restored posts can reference them
	if err := rs.restoreCampaigns(ctx, backupData.Campaigns, options); err != nil {
		return fmt.Errorf("failed to restore campaigns: %w", err)
	}
	if err := rs.restorePosts(ctx, backupData.Posts, options); err != nil {
		return fmt.Errorf("failed to restore posts: %w", err)
	}

	rs.logger.Infow("restore completed successfully", "backup_name", backupName)
	return nil
}

// restorePosts restores posts from backup
func (rs *RestoreService) restorePosts(ctx context.Context, posts map[string]interface{}, options RestoreOptions) error {
	if !options.RestorePosts {
		return nil
	}

	for postID, postData := range posts {
		existing, err := rs.postRepo.GetByID(ctx, postID)
		if err == nil && existing != nil {
			if !options.OverwriteExisting {
				rs.logger.Debugw("skipping existing post", "post_id", postID)
				continue
			}
		}

		postJSON, err := json.Marshal(postData)
		if err != nil {
			return fmt.Errorf("failed to marshal post: %w", err)
		}

		var post domain.Post
		if err := json.Unmarshal(postJSON, &post); err != nil {
			return fmt.Errorf("failed to unmarshal post: %w", err)
		}

		if existing == nil {
			if err := rs.postRepo.Create(ctx, &post); err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}
		} else {
			if err := rs.postRepo.Update(ctx, &post); err != nil {
				return fmt.Errorf("failed to update post: %w", err)
			}
		}

		rs.logger.Debugw("restored post", "post_id", postID)
	}

	return nil
}

// restoreCampaigns restores campaigns from backup
func (rs *RestoreService) restoreCampaigns(ctx context.Context, campaigns map[string]interface{}, options RestoreOptions) error {
	if !options.RestoreCampaigns {
		return nil
	}

	for campaignID, campaignData := range campaigns {
		if existing, err := rs.campaignRepo.GetByID(ctx, campaignID); err == nil && existing != nil {
			rs.logger.Debugw("skipping existing campaign", "campaign_id", campaignID)
			continue
		}

		campaignJSON, err := json.Marshal(campaignData)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign: %w", err)
		}

		var campaign domain.Campaign
		if err := json.Unmarshal(campaignJSON, &campaign); err != nil {
			return fmt.Errorf("failed to unmarshal campaign: %w", err)
		}

		if err := rs.campaignRepo.Create(ctx, &campaign); err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}

		rs.logger.Debugw("restored campaign", "campaign_id", campaignID)
	}

	return nil
}

// FindBackupByTime finds the closest backup to a given time (for point-in-time recovery)
func (rs *RestoreService) FindBackupByTime(ctx context.Context, targetTime time.Time) (string, error) {
	backups, err := rs.backupService.ListBackups(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list backups: %w", err)
	}

	var closestBackup string
	var closestTime time.Time
	var found bool

	for _, backupName := range backups {
		if len(backupName) < 22 {
			continue
		}

		timestampStr := backupName[7:22]
		timestamp, err := time.Parse("20060102-150405", timestampStr)
		if err != nil {
			continue
		}

		if timestamp.Before(targetTime) || timestamp.Equal(targetTime) {
			if !found || timestamp.After(closestTime) {
				closestBackup = backupName
				closestTime = timestamp
				found = true
			}
		}
	}

	if !found {
		return "", fmt.Errorf("no backup found before or at target time: %v", targetTime)
	}

	return closestBackup, nil
}
