package domain

import "time"

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
	PostFailed    PostStatus = "failed"
)

// Post is a piece of content targeted at one or more platforms. It can be
// owned by an individual, or additionally by a team.
type Post struct {
	ID          string
	Content     string
	Platforms   []Platform
	Status      PostStatus
	CampaignID  string // optional
	OwnerUserID UserID
	OwnerTeamID TeamID // empty when personal
	ScheduledAt *time.Time
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Post) OwnerUser() UserID { return p.OwnerUserID }
func (p *Post) OwnerTeam() TeamID { return p.OwnerTeamID }

// Campaign groups posts under a shared goal and date range.
type Campaign struct {
	ID          string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	OwnerUserID UserID
	OwnerTeamID TeamID
	CreatedAt   time.Time
}

func (c *Campaign) OwnerUser() UserID { return c.OwnerUserID }
func (c *Campaign) OwnerTeam() TeamID { return c.OwnerTeamID }
