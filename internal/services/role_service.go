package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
)

// RoleService manages role configuration: the module-role whitelist, the
// emoji to role mappings of reaction-role messages, and which of those
// messages hand out mutually exclusive roles.
type RoleService struct {
	DB *gorm.DB
}

// NewRoleService constructs a RoleService.
func NewRoleService(db *gorm.DB) *RoleService { return &RoleService{DB: db} }

// Grant is the outcome of a reaction on a reaction-role message.
type Grant struct {
	// RoleID is the role to give the member.
	RoleID string
	// Revoke lists the other roles of the same message the member must lose.
	// It is empty unless the message is exclusive.
	Revoke []string
}

// normalizeEmoji trims and NFC-normalizes an emoji so that composed and
// decomposed forms of the same reaction map to one row.
func normalizeEmoji(e string) string {
	return norm.NFC.String(strings.TrimSpace(e))
}

// addMember inserts id into set; a repeated id is not an error.
func addMember(ctx context.Context, db *gorm.DB, set repo.MembershipSet, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrEmptyID
	}
	if err := set.Add(ctx, db, id); err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ---- Module roles ----

// EnableModuleRole whitelists a role for module selection and reports whether
// it was newly added.
func (s *RoleService) EnableModuleRole(ctx context.Context, roleID string) (bool, error) {
	return addMember(ctx, s.DB, repo.ModuleRoles, roleID)
}

// DisableModuleRole removes a role from the whitelist and reports whether it
// was present.
func (s *RoleService) DisableModuleRole(ctx context.Context, roleID string) (bool, error) {
	return repo.ModuleRoles.Remove(ctx, s.DB, roleID)
}

// IsModuleRole reports whether roleID is whitelisted.
func (s *RoleService) IsModuleRole(ctx context.Context, roleID string) (bool, error) {
	return repo.ModuleRoles.Contains(ctx, s.DB, roleID)
}

// ModuleRoles lists the whitelisted roles.
func (s *RoleService) ModuleRoles(ctx context.Context) ([]string, error) {
	return repo.ModuleRoles.List(ctx, s.DB)
}

// ---- Reaction roles ----

// AddReactionRole maps emoji on messageID to roleID.
func (s *RoleService) AddReactionRole(ctx context.Context, messageID, emoji, roleID string) (*domain.ReactionRole, error) {
	tr := otel.Tracer("services/RoleService")
	ctx, span := tr.Start(ctx, "AddReactionRole", trace.WithAttributes(
		attribute.String("message.id", messageID),
		attribute.String("role.id", roleID),
	))
	defer span.End()

	messageID, roleID = strings.TrimSpace(messageID), strings.TrimSpace(roleID)
	if messageID == "" || roleID == "" {
		return nil, ErrEmptyID
	}
	emoji = normalizeEmoji(emoji)
	if emoji == "" {
		return nil, ErrEmptyEmoji
	}
	rr := &domain.ReactionRole{MessageID: messageID, Emoji: emoji, RoleID: roleID}
	if err := repo.CreateReactionRole(ctx, s.DB, rr); err != nil {
		if isDuplicate(err) {
			return nil, ErrReactionRoleExists
		}
		return nil, err
	}
	return rr, nil
}

// RemoveReactionRole deletes the mapping of emoji on messageID.
func (s *RoleService) RemoveReactionRole(ctx context.Context, messageID, emoji string) error {
	if err := repo.DeleteReactionRole(ctx, s.DB, messageID, normalizeEmoji(emoji)); err != nil {
		if isNotFound(err) {
			return ErrReactionRoleNotFound
		}
		return err
	}
	return nil
}

// ResolveReactionRole returns the role mapped to emoji on messageID.
func (s *RoleService) ResolveReactionRole(ctx context.Context, messageID, emoji string) (string, error) {
	rr, err := repo.GetReactionRole(ctx, s.DB, messageID, normalizeEmoji(emoji))
	if err != nil {
		if isNotFound(err) {
			return "", ErrReactionRoleNotFound
		}
		return "", err
	}
	return rr.RoleID, nil
}

// ReactionRolesFor lists the mappings of a message.
func (s *RoleService) ReactionRolesFor(ctx context.Context, messageID string) ([]domain.ReactionRole, error) {
	return repo.ListReactionRoles(ctx, s.DB, messageID)
}

// ClearReactionRoles drops every mapping of a message together with its
// exclusivity mark and returns the number of mappings removed.
func (s *RoleService) ClearReactionRoles(ctx context.Context, messageID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if n, err = repo.ClearReactionRoles(ctx, tx, messageID); err != nil {
			return err
		}
		_, err = repo.UniquenessGroups.Remove(ctx, tx, messageID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ---- Uniqueness groups ----

// MarkExclusive makes the roles of messageID mutually exclusive and reports
// whether the mark is new.
func (s *RoleService) MarkExclusive(ctx context.Context, messageID string) (bool, error) {
	return addMember(ctx, s.DB, repo.UniquenessGroups, messageID)
}

// UnmarkExclusive clears the exclusivity mark and reports whether it was set.
func (s *RoleService) UnmarkExclusive(ctx context.Context, messageID string) (bool, error) {
	return repo.UniquenessGroups.Remove(ctx, s.DB, messageID)
}

// IsExclusive reports whether the roles of messageID are mutually exclusive.
func (s *RoleService) IsExclusive(ctx context.Context, messageID string) (bool, error) {
	return repo.UniquenessGroups.Contains(ctx, s.DB, messageID)
}

// ResolveGrant computes what a reaction with emoji on messageID does: the
// role to give and, on exclusive messages, the sibling roles to take away.
func (s *RoleService) ResolveGrant(ctx context.Context, messageID, emoji string) (*Grant, error) {
	tr := otel.Tracer("services/RoleService")
	ctx, span := tr.Start(ctx, "ResolveGrant", trace.WithAttributes(attribute.String("message.id", messageID)))
	defer span.End()

	var g Grant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rr, err := repo.GetReactionRole(ctx, tx, messageID, normalizeEmoji(emoji))
		if err != nil {
			return err
		}
		g.RoleID = rr.RoleID

		exclusive, err := repo.UniquenessGroups.Contains(ctx, tx, messageID)
		if err != nil || !exclusive {
			return err
		}
		siblings, err := repo.ListReactionRoles(ctx, tx, messageID)
		if err != nil {
			return err
		}
		seen := map[string]bool{rr.RoleID: true}
		for _, sib := range siblings {
			if !seen[sib.RoleID] {
				seen[sib.RoleID] = true
				g.Revoke = append(g.Revoke, sib.RoleID)
			}
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReactionRoleNotFound
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("grant.revoke", len(g.Revoke)))
	return &g, nil
}
