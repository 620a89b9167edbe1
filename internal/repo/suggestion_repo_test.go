package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-community-store/internal/domain"
)

func TestSuggestion_GeneratedIDsAndDefaults(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	a := &domain.Suggestion{AuthorID: "u1", Timestamp: domain.Now()}
	b := &domain.Suggestion{AuthorID: "u2", Timestamp: domain.Now()}
	if err := CreateSuggestion(ctx, db, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := CreateSuggestion(ctx, db, b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Fatalf("expected distinct generated IDs, got %d and %d", a.ID, b.ID)
	}

	got, err := GetSuggestion(ctx, db, a.ID)
	if err != nil {
		t.Fatalf("GetSuggestion: %v", err)
	}
	if got.StatusID != domain.SuggestionUndecided || got.MessageID != nil || got.AuthorID != "u1" {
		t.Fatalf("unexpected stored suggestion: %+v", got)
	}
}

func TestSuggestion_MessageAndStatus(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	s := &domain.Suggestion{AuthorID: "u1", Timestamp: domain.Now()}
	if err := CreateSuggestion(ctx, db, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := GetSuggestionByMessage(ctx, db, "msg-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before message is attached, got %v", err)
	}
	if err := SetSuggestionMessage(ctx, db, s.ID, "msg-1"); err != nil {
		t.Fatalf("SetSuggestionMessage: %v", err)
	}
	byMsg, err := GetSuggestionByMessage(ctx, db, "msg-1")
	if err != nil || byMsg.ID != s.ID {
		t.Fatalf("GetSuggestionByMessage = %+v, %v", byMsg, err)
	}

	if err := UpdateSuggestionStatus(ctx, db, s.ID, domain.SuggestionApproved); err != nil {
		t.Fatalf("UpdateSuggestionStatus: %v", err)
	}
	if err := UpdateSuggestionStatus(ctx, db, 999, domain.SuggestionApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SetSuggestionMessage(ctx, db, 999, "m"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	approved, err := ListSuggestionsByStatus(ctx, db, domain.SuggestionApproved)
	if err != nil || len(approved) != 1 || approved[0].ID != s.ID {
		t.Fatalf("ListSuggestionsByStatus = %+v, %v", approved, err)
	}
	undecided, err := ListSuggestionsByStatus(ctx, db, domain.SuggestionUndecided)
	if err != nil || len(undecided) != 0 {
		t.Fatalf("expected no undecided suggestions, got %+v, %v", undecided, err)
	}
	if n, err := CountSuggestionsByStatus(ctx, db, domain.SuggestionApproved); err != nil || n != 1 {
		t.Fatalf("CountSuggestionsByStatus = %d, %v", n, err)
	}
	if page, err := ListSuggestionsPage(ctx, db, domain.SuggestionApproved, 0, 10); err != nil || len(page) != 1 {
		t.Fatalf("ListSuggestionsPage = %+v, %v", page, err)
	}

	if err := DeleteSuggestion(ctx, db, s.ID); err != nil {
		t.Fatalf("DeleteSuggestion: %v", err)
	}
	if _, err := GetSuggestion(ctx, db, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
