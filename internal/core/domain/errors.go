package domain

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvalidInput         = errors.New("invalid input")
)
