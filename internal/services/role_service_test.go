package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRoles_ModuleWhitelistIsIdempotent(t *testing.T) {
	s := NewRoleService(newTestDB(t))
	ctx := context.Background()

	added, err := s.EnableModuleRole(ctx, "r2")
	if err != nil || !added {
		t.Fatalf("EnableModuleRole = %v, %v", added, err)
	}
	added, err = s.EnableModuleRole(ctx, " r2 ")
	if err != nil || added {
		t.Fatalf("repeated EnableModuleRole = %v, %v; want false, nil", added, err)
	}
	if _, err := s.EnableModuleRole(ctx, "r1"); err != nil {
		t.Fatalf("EnableModuleRole: %v", err)
	}
	if _, err := s.EnableModuleRole(ctx, ""); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}

	roles, err := s.ModuleRoles(ctx)
	if err != nil || !reflect.DeepEqual(roles, []string{"r1", "r2"}) {
		t.Fatalf("ModuleRoles = %v, %v", roles, err)
	}
	if ok, _ := s.IsModuleRole(ctx, "r1"); !ok {
		t.Fatalf("r1 should be whitelisted")
	}

	removed, err := s.DisableModuleRole(ctx, "r1")
	if err != nil || !removed {
		t.Fatalf("DisableModuleRole = %v, %v", removed, err)
	}
	removed, err = s.DisableModuleRole(ctx, "r1")
	if err != nil || removed {
		t.Fatalf("repeated DisableModuleRole = %v, %v", removed, err)
	}
}

func TestRoles_ReactionRoleMapping(t *testing.T) {
	s := NewRoleService(newTestDB(t))
	ctx := context.Background()

	if _, err := s.AddReactionRole(ctx, "m1", "👍", "r1"); err != nil {
		t.Fatalf("AddReactionRole: %v", err)
	}
	if _, err := s.AddReactionRole(ctx, "m1", "👎", "r2"); err != nil {
		t.Fatalf("AddReactionRole: %v", err)
	}
	if _, err := s.AddReactionRole(ctx, "m1", "👍", "r3"); !errors.Is(err, ErrReactionRoleExists) {
		t.Fatalf("expected ErrReactionRoleExists, got %v", err)
	}
	if _, err := s.AddReactionRole(ctx, "m1", "  ", "r3"); !errors.Is(err, ErrEmptyEmoji) {
		t.Fatalf("expected ErrEmptyEmoji, got %v", err)
	}

	role, err := s.ResolveReactionRole(ctx, "m1", "👍")
	if err != nil || role != "r1" {
		t.Fatalf("ResolveReactionRole = %q, %v", role, err)
	}
	if _, err := s.ResolveReactionRole(ctx, "m1", "🎉"); !errors.Is(err, ErrReactionRoleNotFound) {
		t.Fatalf("expected ErrReactionRoleNotFound, got %v", err)
	}

	if err := s.RemoveReactionRole(ctx, "m1", "👎"); err != nil {
		t.Fatalf("RemoveReactionRole: %v", err)
	}
	if err := s.RemoveReactionRole(ctx, "m1", "👎"); !errors.Is(err, ErrReactionRoleNotFound) {
		t.Fatalf("expected ErrReactionRoleNotFound, got %v", err)
	}
	list, err := s.ReactionRolesFor(ctx, "m1")
	if err != nil || len(list) != 1 || list[0].RoleID != "r1" {
		t.Fatalf("ReactionRolesFor = %+v, %v", list, err)
	}
}

func TestRoles_EmojiIsNormalized(t *testing.T) {
	s := NewRoleService(newTestDB(t))
	ctx := context.Background()

	composed := "\u00e9"
	decomposed := "e\u0301"
	if _, err := s.AddReactionRole(ctx, "m1", decomposed, "r1"); err != nil {
		t.Fatalf("AddReactionRole: %v", err)
	}
	role, err := s.ResolveReactionRole(ctx, "m1", composed)
	if err != nil || role != "r1" {
		t.Fatalf("composed lookup = %q, %v", role, err)
	}
	if _, err := s.AddReactionRole(ctx, "m1", composed, "r2"); !errors.Is(err, ErrReactionRoleExists) {
		t.Fatalf("expected composed form to collide, got %v", err)
	}
}

func TestRoles_ResolveGrant(t *testing.T) {
	s := NewRoleService(newTestDB(t))
	ctx := context.Background()

	for emoji, role := range map[string]string{"a": "red", "b": "blue", "c": "green"} {
		if _, err := s.AddReactionRole(ctx, "colors", emoji, role); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	g, err := s.ResolveGrant(ctx, "colors", "b")
	if err != nil || g.RoleID != "blue" || len(g.Revoke) != 0 {
		t.Fatalf("non-exclusive grant = %+v, %v", g, err)
	}

	if marked, err := s.MarkExclusive(ctx, "colors"); err != nil || !marked {
		t.Fatalf("MarkExclusive = %v, %v", marked, err)
	}
	if marked, err := s.MarkExclusive(ctx, "colors"); err != nil || marked {
		t.Fatalf("repeated MarkExclusive = %v, %v", marked, err)
	}
	g, err = s.ResolveGrant(ctx, "colors", "b")
	if err != nil {
		t.Fatalf("ResolveGrant: %v", err)
	}
	// Siblings come back in emoji order: a (red), c (green).
	if g.RoleID != "blue" || !reflect.DeepEqual(g.Revoke, []string{"red", "green"}) {
		t.Fatalf("exclusive grant = %+v", g)
	}

	if _, err := s.ResolveGrant(ctx, "colors", "z"); !errors.Is(err, ErrReactionRoleNotFound) {
		t.Fatalf("expected ErrReactionRoleNotFound, got %v", err)
	}

	if ok, _ := s.UnmarkExclusive(ctx, "colors"); !ok {
		t.Fatalf("UnmarkExclusive should report removal")
	}
	if ex, _ := s.IsExclusive(ctx, "colors"); ex {
		t.Fatalf("still exclusive after unmark")
	}
}

func TestRoles_ClearDropsMappingsAndExclusivity(t *testing.T) {
	s := NewRoleService(newTestDB(t))
	ctx := context.Background()

	for _, e := range []string{"a", "b"} {
		if _, err := s.AddReactionRole(ctx, "m", e, "r-"+e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := s.MarkExclusive(ctx, "m"); err != nil {
		t.Fatalf("MarkExclusive: %v", err)
	}

	n, err := s.ClearReactionRoles(ctx, "m")
	if err != nil || n != 2 {
		t.Fatalf("ClearReactionRoles = %d, %v", n, err)
	}
	if ex, _ := s.IsExclusive(ctx, "m"); ex {
		t.Fatalf("exclusivity mark survived clear")
	}
	if n, err := s.ClearReactionRoles(ctx, "m"); err != nil || n != 0 {
		t.Fatalf("second clear = %d, %v", n, err)
	}
}
