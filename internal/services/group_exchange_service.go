package services

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
)

// GroupExchangeService lets members trade course groups: a member offers the
// group they hold and lists the groups they would take instead.
type GroupExchangeService struct {
	DB *gorm.DB
}

// NewGroupExchangeService constructs a GroupExchangeService.
func NewGroupExchangeService(db *gorm.DB) *GroupExchangeService {
	return &GroupExchangeService{DB: db}
}

// Exchange is the offer of a member in one course together with the groups
// they requested.
type Exchange struct {
	Offer     domain.GroupOffer `json:"offer"`
	Requested []int             `json:"requested"`
}

// courseKey folds a course name so that "EIDI" and "eidi" are one course.
// Names are stored as entered and compared by key.
func courseKey(course string) string {
	return cases.Fold().String(strings.TrimSpace(course))
}

// offerIn returns the offer of userID in course under whatever spelling it
// was stored, or repo.ErrNotFound.
func offerIn(ctx context.Context, db *gorm.DB, userID, course string) (*domain.GroupOffer, error) {
	offers, err := repo.ListGroupOffersForUser(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	key := courseKey(course)
	for i := range offers {
		if courseKey(offers[i].Course) == key {
			return &offers[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

// courseSpellings returns every stored name of course.
func courseSpellings(ctx context.Context, db *gorm.DB, course string) ([]string, error) {
	all, err := repo.ListCourses(ctx, db)
	if err != nil {
		return nil, err
	}
	key := courseKey(course)
	var out []string
	for _, c := range all {
		if courseKey(c) == key {
			out = append(out, c)
		}
	}
	return out, nil
}

// cleanGroups validates and de-duplicates the requested groups.
func cleanGroups(offered int, requested []int) ([]int, error) {
	if offered <= 0 || len(requested) == 0 {
		return nil, ErrInvalidGroups
	}
	seen := make(map[int]bool, len(requested))
	out := make([]int, 0, len(requested))
	for _, g := range requested {
		if g <= 0 || g == offered {
			return nil, ErrInvalidGroups
		}
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Offer records that userID gives up group offered in course and would take
// any of requested. The offer and its requests are stored atomically.
func (s *GroupExchangeService) Offer(ctx context.Context, userID, course string, offered int, requested []int) (*Exchange, error) {
	tr := otel.Tracer("services/GroupExchangeService")
	ctx, span := tr.Start(ctx, "Offer", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("course", course),
		attribute.Int("group.offered", offered),
	))
	defer span.End()

	userID, course = strings.TrimSpace(userID), strings.TrimSpace(course)
	if userID == "" || courseKey(course) == "" {
		return nil, ErrEmptyID
	}
	groups, err := cleanGroups(offered, requested)
	if err != nil {
		return nil, err
	}

	ex := &Exchange{Requested: groups}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch _, err := offerIn(ctx, tx, userID, course); {
		case err == nil:
			return ErrDuplicateOffer
		case !isNotFound(err):
			return err
		}
		ex.Offer = domain.GroupOffer{UserID: userID, Course: course, GroupNr: offered}
		if err := repo.CreateGroupOffer(ctx, tx, &ex.Offer); err != nil {
			return err
		}
		for _, g := range groups {
			if err := repo.CreateGroupRequest(ctx, tx, &domain.GroupRequest{UserID: userID, Course: course, GroupNr: g}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateOffer
		}
		return nil, err
	}
	return ex, nil
}

// AttachMessage records the message announcing the offer of userID in course.
func (s *GroupExchangeService) AttachMessage(ctx context.Context, userID, course, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return ErrEmptyID
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := offerIn(ctx, tx, userID, course)
		if err != nil {
			return err
		}
		return repo.SetGroupOfferMessage(ctx, tx, userID, o.Course, strings.TrimSpace(messageID))
	})
	if isNotFound(err) {
		return ErrOfferNotFound
	}
	return err
}

// MessageFor returns the announcement message of the offer of userID in
// course, or "" if none was recorded.
func (s *GroupExchangeService) MessageFor(ctx context.Context, userID, course string) (string, error) {
	o, err := offerIn(ctx, s.DB, userID, course)
	if err != nil {
		if isNotFound(err) {
			return "", ErrOfferNotFound
		}
		return "", err
	}
	if o.MessageID == nil {
		return "", nil
	}
	return *o.MessageID, nil
}

// Candidates returns the offers of other members that would complete a swap
// with the stored offer of userID in course.
func (s *GroupExchangeService) Candidates(ctx context.Context, userID, course string) ([]domain.GroupOffer, error) {
	tr := otel.Tracer("services/GroupExchangeService")
	ctx, span := tr.Start(ctx, "Candidates", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("course", course),
	))
	defer span.End()

	var out []domain.GroupOffer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := offerIn(ctx, tx, userID, course)
		if err != nil {
			return err
		}
		reqs, err := repo.ListGroupRequestsForUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		key := courseKey(course)
		var groups []int
		for _, r := range reqs {
			if courseKey(r.Course) == key {
				groups = append(groups, r.GroupNr)
			}
		}
		spellings, err := courseSpellings(ctx, tx, course)
		if err != nil {
			return err
		}
		out, err = repo.FindMatchingOffers(ctx, tx, userID, spellings, o.GroupNr, groups)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(out)))
	return out, nil
}

// Withdraw removes the offer and requests of userID in course.
func (s *GroupExchangeService) Withdraw(ctx context.Context, userID, course string) error {
	var removed bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		spellings, err := courseSpellings(ctx, tx, course)
		if err != nil {
			return err
		}
		removed, err = repo.DeleteGroupExchange(ctx, tx, userID, spellings)
		return err
	})
	if err != nil {
		return err
	}
	if !removed {
		return ErrOfferNotFound
	}
	return nil
}

// ForUser lists every exchange of userID, one per course with an offer.
func (s *GroupExchangeService) ForUser(ctx context.Context, userID string) ([]Exchange, error) {
	offers, err := repo.ListGroupOffersForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	reqs, err := repo.ListGroupRequestsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	byCourse := map[string][]int{}
	for _, r := range reqs {
		k := courseKey(r.Course)
		byCourse[k] = append(byCourse[k], r.GroupNr)
	}
	out := make([]Exchange, 0, len(offers))
	for _, o := range offers {
		groups := byCourse[courseKey(o.Course)]
		if groups == nil {
			groups = []int{}
		}
		sort.Ints(groups)
		out = append(out, Exchange{Offer: o, Requested: groups})
	}
	return out, nil
}
