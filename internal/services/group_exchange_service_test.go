package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
)

func TestGroupExchange_OfferValidation(t *testing.T) {
	s := NewGroupExchangeService(newTestDB(t))
	ctx := context.Background()

	cases := []struct {
		name      string
		offered   int
		requested []int
	}{
		{"empty requested", 1, nil},
		{"offered requested", 1, []int{2, 1}},
		{"non-positive request", 1, []int{0}},
		{"non-positive offer", 0, []int{2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Offer(ctx, "u1", "algo", tc.offered, tc.requested); !errors.Is(err, ErrInvalidGroups) {
				t.Fatalf("expected ErrInvalidGroups, got %v", err)
			}
		})
	}
	if _, err := s.Offer(ctx, "", "algo", 1, []int{2}); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestGroupExchange_OfferIsAtomic(t *testing.T) {
	db := newTestDB(t)
	s := NewGroupExchangeService(db)
	ctx := context.Background()

	ex, err := s.Offer(ctx, "u1", "ALGO", 1, []int{3, 2, 3})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if ex.Offer.Course != "ALGO" || !reflect.DeepEqual(ex.Requested, []int{2, 3}) {
		t.Fatalf("unexpected exchange: %+v", ex)
	}

	// A second offer in the same course (any spelling) is rejected and leaves
	// no partial requests behind.
	if _, err := s.Offer(ctx, "u1", "Algo", 4, []int{5}); !errors.Is(err, ErrDuplicateOffer) {
		t.Fatalf("expected ErrDuplicateOffer, got %v", err)
	}
	reqs, err := repo.ListGroupRequests(ctx, db, "u1", "ALGO")
	if err != nil || len(reqs) != 2 {
		t.Fatalf("requests after rejected offer = %+v, %v", reqs, err)
	}
}

func TestGroupExchange_CandidatesMessageWithdraw(t *testing.T) {
	s := NewGroupExchangeService(newTestDB(t))
	ctx := context.Background()

	mustOffer := func(user string, offered int, requested ...int) {
		t.Helper()
		if _, err := s.Offer(ctx, user, "algo", offered, requested); err != nil {
			t.Fatalf("Offer(%s): %v", user, err)
		}
	}
	mustOffer("alice", 1, 2, 3)
	mustOffer("bob", 2, 1)
	mustOffer("carol", 3, 4)

	got, err := s.Candidates(ctx, "alice", "algo")
	if err != nil || len(got) != 1 || got[0].UserID != "bob" {
		t.Fatalf("Candidates(alice) = %+v, %v", got, err)
	}
	if _, err := s.Candidates(ctx, "zed", "algo"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}

	if msg, err := s.MessageFor(ctx, "alice", "algo"); err != nil || msg != "" {
		t.Fatalf("MessageFor before attach = %q, %v", msg, err)
	}
	if err := s.AttachMessage(ctx, "alice", "ALGO", "m-1"); err != nil {
		t.Fatalf("AttachMessage: %v", err)
	}
	if msg, err := s.MessageFor(ctx, "alice", "algo"); err != nil || msg != "m-1" {
		t.Fatalf("MessageFor = %q, %v", msg, err)
	}
	if err := s.AttachMessage(ctx, "zed", "algo", "m"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}

	if err := s.Withdraw(ctx, "bob", "algo"); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if err := s.Withdraw(ctx, "bob", "algo"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
	if got, _ := s.Candidates(ctx, "alice", "algo"); len(got) != 0 {
		t.Fatalf("withdrawn offer still a candidate: %+v", got)
	}
}

func TestGroupExchange_ForUser(t *testing.T) {
	s := NewGroupExchangeService(newTestDB(t))
	ctx := context.Background()

	if _, err := s.Offer(ctx, "u1", "math", 2, []int{1}); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if _, err := s.Offer(ctx, "u1", "algo", 1, []int{4, 3}); err != nil {
		t.Fatalf("Offer: %v", err)
	}

	got, err := s.ForUser(ctx, "u1")
	if err != nil || len(got) != 2 {
		t.Fatalf("ForUser = %+v, %v", got, err)
	}
	if got[0].Offer.Course != "algo" || !reflect.DeepEqual(got[0].Requested, []int{3, 4}) {
		t.Fatalf("unexpected first exchange: %+v", got[0])
	}
	if got[1].Offer.Course != "math" || !reflect.DeepEqual(got[1].Requested, []int{1}) {
		t.Fatalf("unexpected second exchange: %+v", got[1])
	}
	if none, err := s.ForUser(ctx, "nobody"); err != nil || len(none) != 0 {
		t.Fatalf("ForUser(nobody) = %+v, %v", none, err)
	}
}

func TestGroupExchange_StoredSpellingIsKept(t *testing.T) {
	db := newTestDB(t)
	s := NewGroupExchangeService(db)
	ctx := context.Background()

	// Rows as the bot wrote them, upper case.
	if err := repo.CreateGroupOffer(ctx, db, &domain.GroupOffer{UserID: "u1", Course: "EIDI", GroupNr: 1}); err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	if err := repo.CreateGroupRequest(ctx, db, &domain.GroupRequest{UserID: "u1", Course: "EIDI", GroupNr: 2}); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	if _, err := s.Offer(ctx, "u2", "eidi", 2, []int{1}); err != nil {
		t.Fatalf("Offer(u2): %v", err)
	}

	if _, err := s.Offer(ctx, "u1", "eidi", 2, []int{3}); !errors.Is(err, ErrDuplicateOffer) {
		t.Fatalf("expected ErrDuplicateOffer for another spelling, got %v", err)
	}

	got, err := s.Candidates(ctx, "u1", "Eidi")
	if err != nil || len(got) != 1 || got[0].UserID != "u2" || got[0].Course != "eidi" {
		t.Fatalf("Candidates = %+v, %v", got, err)
	}

	if err := s.AttachMessage(ctx, "u1", "eidi", "m-9"); err != nil {
		t.Fatalf("AttachMessage: %v", err)
	}
	if msg, err := s.MessageFor(ctx, "u1", "EIDI"); err != nil || msg != "m-9" {
		t.Fatalf("MessageFor = %q, %v", msg, err)
	}

	mine, err := s.ForUser(ctx, "u1")
	if err != nil || len(mine) != 1 || mine[0].Offer.Course != "EIDI" || !reflect.DeepEqual(mine[0].Requested, []int{2}) {
		t.Fatalf("ForUser = %+v, %v", mine, err)
	}

	if err := s.Withdraw(ctx, "u1", "EIDI"); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if left, _ := repo.ListGroupRequestsForUser(ctx, db, "u1"); len(left) != 0 {
		t.Fatalf("requests survived withdraw: %+v", left)
	}
	if _, err := s.MessageFor(ctx, "u1", "eidi"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}
