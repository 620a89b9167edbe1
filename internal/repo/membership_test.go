package repo

import (
	"context"
	"reflect"
	"testing"
)

func TestMembershipSet_AddContainsRemoveList(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for _, set := range []MembershipSet{ModuleRoles, UniquenessGroups, BotOnlyChannels} {
		t.Run(set.Table, func(t *testing.T) {
			if ok, err := set.Contains(ctx, db, "x"); err != nil || ok {
				t.Fatalf("empty set Contains = %v, %v", ok, err)
			}
			for _, id := range []string{"b", "a", "c"} {
				if err := set.Add(ctx, db, id); err != nil {
					t.Fatalf("Add(%s): %v", id, err)
				}
			}
			if err := set.Add(ctx, db, "a"); !IsDuplicate(err) {
				t.Fatalf("second Add should fail with ErrDuplicate, got %v", err)
			}
			if ok, err := set.Contains(ctx, db, "a"); err != nil || !ok {
				t.Fatalf("Contains(a) = %v, %v", ok, err)
			}

			got, err := set.List(ctx, db)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("List = %v; want %v", got, want)
			}

			if removed, err := set.Remove(ctx, db, "b"); err != nil || !removed {
				t.Fatalf("Remove(b) = %v, %v", removed, err)
			}
			if removed, err := set.Remove(ctx, db, "b"); err != nil || removed {
				t.Fatalf("second Remove(b) = %v, %v; want false", removed, err)
			}
			if ok, _ := set.Contains(ctx, db, "b"); ok {
				t.Fatalf("b still present after Remove")
			}
		})
	}
}

func TestMembershipSet_EmptyListIsNotNil(t *testing.T) {
	db := newRepoDB(t)
	got, err := BotOnlyChannels.List(context.Background(), db)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMembershipSet_NoTable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := ModuleRoles.Add(ctx, db, "r"); !IsStorageUnavailable(err) {
		t.Fatalf("Add without table: %v", err)
	}
	if _, err := ModuleRoles.Contains(ctx, db, "r"); !IsStorageUnavailable(err) {
		t.Fatalf("Contains without table: %v", err)
	}
	if _, err := ModuleRoles.Remove(ctx, db, "r"); !IsStorageUnavailable(err) {
		t.Fatalf("Remove without table: %v", err)
	}
	if _, err := ModuleRoles.List(ctx, db); !IsStorageUnavailable(err) {
		t.Fatalf("List without table: %v", err)
	}
}
