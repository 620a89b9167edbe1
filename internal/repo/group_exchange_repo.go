// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the course
// group exchange: GroupOffer (one per member and course) and GroupRequest
// (one per member, course and requested group).
//
// Functions:
//
//   - CreateGroupOffer / CreateGroupRequest
//     Insert with a generated ID; uniqueness violations fail with ErrDuplicate.
//
//   - GetGroupOffer(ctx, db, userID, course)
//     The offer of a member in a course, or ErrNotFound.
//
//   - SetGroupOfferMessage(ctx, db, userID, course, messageID)
//     Records the message announcing the offer.
//
//   - ListGroupRequests / ListGroupOffersForUser / ListGroupRequestsForUser
//     Secondary-key lookups.
//
//   - ListCourses(ctx, db)
//     Every course name stored in either table, as written.
//
//   - FindMatchingOffers(ctx, db, userID, courses, offered, requested)
//     Offers by other members whose group is one of requested and who
//     themselves requested the offered group.
//
//   - DeleteGroupExchange(ctx, db, userID, courses)
//     Removes the offer and every request of a member in a course.
//
// Course names are matched exactly. Functions taking a courses slice accept
// every spelling under which one course may have been stored.
package repo

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-community-store/internal/domain"
)

// CreateGroupOffer assigns o a generated ID and inserts it.
func CreateGroupOffer(ctx context.Context, db *gorm.DB, o *domain.GroupOffer) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := NextID(ctx, tx, domain.SeqGroupOffer)
		if err != nil {
			return err
		}
		o.ID = id
		return tx.Create(o).Error
	})
	return Classify(err)
}

// CreateGroupRequest assigns r a generated ID and inserts it.
func CreateGroupRequest(ctx context.Context, db *gorm.DB, r *domain.GroupRequest) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := NextID(ctx, tx, domain.SeqGroupRequest)
		if err != nil {
			return err
		}
		r.ID = id
		return tx.Create(r).Error
	})
	return Classify(err)
}

// GetGroupOffer returns the offer of userID in course.
func GetGroupOffer(ctx context.Context, db *gorm.DB, userID, course string) (*domain.GroupOffer, error) {
	var o domain.GroupOffer
	err := db.WithContext(ctx).
		Where(map[string]any{"UserId": userID, "Course": course}).
		First(&o).Error
	if err != nil {
		return nil, Classify(err)
	}
	return &o, nil
}

// SetGroupOfferMessage records the message announcing an offer.
func SetGroupOfferMessage(ctx context.Context, db *gorm.DB, userID, course, messageID string) error {
	return updateColumn(ctx, db, &domain.GroupOffer{},
		map[string]any{"UserId": userID, "Course": course}, "MessageId", messageID)
}

// ListGroupRequests returns the groups userID requested in course, ordered by
// group number.
func ListGroupRequests(ctx context.Context, db *gorm.DB, userID, course string) ([]domain.GroupRequest, error) {
	out := []domain.GroupRequest{}
	err := db.WithContext(ctx).
		Where(map[string]any{"UserId": userID, "Course": course}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "GroupNr"}}).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// ListGroupOffersForUser returns every offer of a member, ordered by course.
func ListGroupOffersForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.GroupOffer, error) {
	out := []domain.GroupOffer{}
	err := db.WithContext(ctx).
		Where(map[string]any{"UserId": userID}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "Course"}}).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// ListGroupRequestsForUser returns every request of a member, ordered by
// course and group number.
func ListGroupRequestsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.GroupRequest, error) {
	out := []domain.GroupRequest{}
	err := db.WithContext(ctx).
		Where(map[string]any{"UserId": userID}).
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "Course"}},
			{Column: clause.Column{Name: "GroupNr"}},
		}}).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// ListCourses returns the distinct course names stored in GroupOffer and
// GroupRequest, sorted.
func ListCourses(ctx context.Context, db *gorm.DB) ([]string, error) {
	seen := map[string]bool{}
	for _, model := range []any{&domain.GroupOffer{}, &domain.GroupRequest{}} {
		var names []string
		if err := db.WithContext(ctx).Model(model).Distinct("Course").Pluck("Course", &names).Error; err != nil {
			return nil, Classify(err)
		}
		for _, n := range names {
			seen[n] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// FindMatchingOffers returns the offers in courses, made by members other
// than userID, whose group is in requested and whose owners requested
// offered. An empty requested or courses list matches nothing.
func FindMatchingOffers(ctx context.Context, db *gorm.DB, userID string, courses []string, offered int, requested []int) ([]domain.GroupOffer, error) {
	out := []domain.GroupOffer{}
	if len(requested) == 0 || len(courses) == 0 {
		return out, nil
	}
	db = db.WithContext(ctx)

	wantOffered := db.Model(&domain.GroupRequest{}).
		Select("UserId").
		Where(map[string]any{"Course": courses, "GroupNr": offered})

	err := db.
		Where(map[string]any{"Course": courses, "GroupNr": requested}).
		Where(clause.Neq{Column: clause.Column{Name: "UserId"}, Value: userID}).
		Where("? IN (?)", clause.Column{Name: "UserId"}, wantOffered).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "ID"}}).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// DeleteGroupExchange removes the offer and the requests of userID in courses
// and reports whether anything was removed.
func DeleteGroupExchange(ctx context.Context, db *gorm.DB, userID string, courses []string) (bool, error) {
	if len(courses) == 0 {
		return false, nil
	}
	var removed int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		where := map[string]any{"UserId": userID, "Course": courses}
		n, err := deleteAll(ctx, tx, &domain.GroupRequest{}, where)
		if err != nil {
			return err
		}
		removed += n
		n, err = deleteAll(ctx, tx, &domain.GroupOffer{}, where)
		if err != nil {
			return err
		}
		removed += n
		return nil
	})
	if err != nil {
		return false, Classify(err)
	}
	return removed > 0, nil
}
