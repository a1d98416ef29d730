package services

import (
	"socialdeck/internal/core/domain"
	"socialdeck/pkg/errors"
)

// AccessService decides who may see or change a resource. The rule is a
// pure function of the principal and the resource's two ownership fields,
// applied identically for every resource kind.
//
// Precedence, first match wins:
//  1. admin role: full access
//  2. owning user: full access
//  3. matching team: full access
//  4. otherwise: none
type AccessService struct{}

func NewAccessService() *AccessService {
	return &AccessService{}
}

func (s *AccessService) Authorize(p *domain.Principal, resource domain.Ownable, intent domain.AccessIntent) domain.AccessDecision {
	if p == nil {
		return domain.AccessDecision{}
	}
	if p.Role == domain.RoleAdmin {
		return domain.AccessDecision{CanRead: true, CanWrite: true}
	}
	if resource.OwnerUser() == p.ID {
		return domain.AccessDecision{CanRead: true, CanWrite: true}
	}
	if team := resource.OwnerTeam(); team != "" && team == p.TeamID {
		return domain.AccessDecision{CanRead: true, CanWrite: true}
	}
	return domain.AccessDecision{}
}

// ListFilterFor returns the predicate form of the same rule for listing
// queries, so list results and single-resource checks cannot disagree.
func (s *AccessService) ListFilterFor(p *domain.Principal) domain.OwnershipFilter {
	if p == nil {
		return domain.OwnershipFilter{}
	}
	if p.Role == domain.RoleAdmin {
		return domain.OwnershipFilter{All: true}
	}
	return domain.OwnershipFilter{UserID: p.ID, TeamID: p.TeamID}
}

// RequireRead maps a withheld read to NotFound so existence is never
// confirmed to callers without access.
func (s *AccessService) RequireRead(p *domain.Principal, resource domain.Ownable) error {
	if !s.Authorize(p, resource, domain.IntentRead).CanRead {
		return errors.NewNotFoundError("resource")
	}
	return nil
}

// RequireWrite maps a withheld write on a visible resource to Forbidden;
// a resource the principal cannot even read stays NotFound.
func (s *AccessService) RequireWrite(p *domain.Principal, resource domain.Ownable) error {
	decision := s.Authorize(p, resource, domain.IntentWrite)
	if decision.CanWrite {
		return nil
	}
	if decision.CanRead {
		return errors.NewForbiddenError("write access denied")
	}
	return errors.NewNotFoundError("resource")
}
