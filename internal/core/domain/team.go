package domain

import "time"

type Team struct {
	ID          TeamID
	Name        string
	Description string
	OwnerUserID UserID
	CreatedAt   time.Time
}

func (t *Team) OwnerUser() UserID { return t.OwnerUserID }
func (t *Team) OwnerTeam() TeamID { return t.ID }

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// TeamInvitation is the only path into a team. It names the invitee at
// creation time, so accepting is restricted to that one account.
type TeamInvitation struct {
	ID            string
	TeamID        TeamID
	InvitedByID   UserID
	InviteeUserID UserID
	InviteeEmail  string
	Status        InvitationStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

func (i *TeamInvitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
