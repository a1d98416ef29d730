package domain

import "time"

type NotificationType string

const (
	NotificationPostPublished  NotificationType = "post_published"
	NotificationPostFailed     NotificationType = "post_failed"
	NotificationTeamInvite     NotificationType = "team_invite"
	NotificationAnalyticsReady NotificationType = "analytics_ready"
	NotificationSystem         NotificationType = "system"
)

type Notification struct {
	ID          string
	Type        NotificationType
	Title       string
	Message     string
	Read        bool
	OwnerUserID UserID
	OwnerTeamID TeamID
	CreatedAt   time.Time
}

func (n *Notification) OwnerUser() UserID { return n.OwnerUserID }
func (n *Notification) OwnerTeam() TeamID { return n.OwnerTeamID }
