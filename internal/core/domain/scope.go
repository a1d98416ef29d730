package domain

import "fmt"

// ScopeKind names the families of realtime channels.
type ScopeKind string

const (
	ScopeUser              ScopeKind = "user"
	ScopeTeam              ScopeKind = "team"
	ScopeCampaign          ScopeKind = "campaign"
	ScopePost              ScopeKind = "post"
	ScopePlatformAnalytics ScopeKind = "analytics"
	ScopeBroadcast         ScopeKind = "broadcast"
	ScopeNotifications     ScopeKind = "notifications"
)

// ChannelScope identifies one realtime channel a connection can be admitted
// to. A connection holds zero or more scopes; membership lives exactly as
// long as the connection.
type ChannelScope struct {
	Kind     ScopeKind `json:"kind"`
	ID       string    `json:"id,omitempty"`
	Platform Platform  `json:"platform,omitempty"` // analytics scopes only
}

func UserScope(id UserID) ChannelScope {
	return ChannelScope{Kind: ScopeUser, ID: string(id)}
}

func TeamScope(id TeamID) ChannelScope {
	return ChannelScope{Kind: ScopeTeam, ID: string(id)}
}

func CampaignScope(id string) ChannelScope {
	return ChannelScope{Kind: ScopeCampaign, ID: id}
}

func PostScope(id string) ChannelScope {
	return ChannelScope{Kind: ScopePost, ID: id}
}

func PlatformAnalyticsScope(platform Platform, userID UserID) ChannelScope {
	return ChannelScope{Kind: ScopePlatformAnalytics, ID: string(userID), Platform: platform}
}

func BroadcastScope() ChannelScope {
	return ChannelScope{Kind: ScopeBroadcast}
}

func NotificationsScope() ChannelScope {
	return ChannelScope{Kind: ScopeNotifications}
}

// Key is the room name used by the registry index and the cross-instance
// event bridge. Keys are unique per scope.
func (s ChannelScope) Key() string {
	switch s.Kind {
	case ScopePlatformAnalytics:
		return fmt.Sprintf("%s:%s:%s", s.Kind, s.Platform, s.ID)
	case ScopeBroadcast, ScopeNotifications:
		return string(s.Kind)
	default:
		return fmt.Sprintf("%s:%s", s.Kind, s.ID)
	}
}

// Event is a domain event fanned out over a channel scope.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
