// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides MembershipSet, the abstraction over the
// single-column tables whose only payload is the presence of a key:
// ModuleRole, ReactionRoleUniquenessGroup and BotOnlyChannel.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-community-store/internal/domain"
)

// MembershipSet is a persistent set of identifiers stored in Column of Table.
type MembershipSet struct {
	Table  string
	Column string
}

// Membership tables of the store.
var (
	ModuleRoles = MembershipSet{Table: domain.ModuleRole{}.TableName(), Column: "RoleID"}

	UniquenessGroups = MembershipSet{Table: domain.ReactionRoleUniquenessGroup{}.TableName(), Column: "MessageID"}

	BotOnlyChannels = MembershipSet{Table: domain.BotOnlyChannel{}.TableName(), Column: "ChannelID"}
)

// Add inserts id. Adding an id that is already present fails with ErrDuplicate.
func (s MembershipSet) Add(ctx context.Context, db *gorm.DB, id string) error {
	err := db.WithContext(ctx).Exec("INSERT INTO ? (?) VALUES (?)",
		clause.Table{Name: s.Table}, clause.Column{Name: s.Column}, id).Error
	return Classify(err)
}

// Remove deletes id and reports whether it was present.
func (s MembershipSet) Remove(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: s.Table}, clause.Column{Name: s.Column}, id)
	if res.Error != nil {
		return false, Classify(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Contains reports whether id is present.
func (s MembershipSet) Contains(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Table(s.Table).
		Where(map[string]any{s.Column: id}).
		Count(&n).Error
	if err != nil {
		return false, Classify(err)
	}
	return n > 0, nil
}

// List returns every member in ascending order.
func (s MembershipSet) List(ctx context.Context, db *gorm.DB) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).Table(s.Table).
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}}).
		Pluck(s.Column, &out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}
