// Package storetest checks that a rules.RuleStore honors the store contract.
// Each backend's tests call Run with a constructor for an empty store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
)

// Run exercises newStore against the RuleStore contract. newStore must return
// an empty store on every call.
func Run(t *testing.T, newStore func(t *testing.T) rules.RuleStore) {
	t.Helper()

	t.Run("empty list", func(t *testing.T) {
		records, err := newStore(t).List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v, want nil", err)
		}
		if len(records) != 0 {
			t.Errorf("len(List()) = %d, want 0", len(records))
		}
	})

	t.Run("insert assigns id", func(t *testing.T) {
		store := newStore(t)
		rec, err := store.Insert(context.Background(), "temperature > 25", "A")
		if err != nil {
			t.Fatalf("Insert() error = %v, want nil", err)
		}
		if _, err := types.ParseRuleID(rec.ID.String()); err != nil {
			t.Errorf("Insert() id = %q, not a valid rule id: %v", rec.ID, err)
		}
		if rec.Condition != "temperature > 25" || rec.Action != "A" {
			t.Errorf("Insert() = %+v, want condition and action echoed", rec)
		}
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		want := []string{"A", "B", "C", "D"}
		for i, action := range want {
			if _, err := store.Insert(ctx, "x > "+string(rune('0'+i)), action); err != nil {
				t.Fatalf("Insert() error = %v, want nil", err)
			}
		}

		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v, want nil", err)
		}
		if len(records) != len(want) {
			t.Fatalf("len(List()) = %d, want %d", len(records), len(want))
		}
		for i, rec := range records {
			if rec.Action != want[i] {
				t.Errorf("List()[%d].Action = %q, want %q", i, rec.Action, want[i])
			}
		}
	})

	t.Run("get", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		rec, err := store.Insert(ctx, `status == "on"`, "B")
		if err != nil {
			t.Fatalf("Insert() error = %v, want nil", err)
		}

		got, err := store.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get() error = %v, want nil", err)
		}
		if got.ID != rec.ID || got.Condition != rec.Condition || got.Action != rec.Action {
			t.Errorf("Get() = %+v, want %+v", got, rec)
		}

		_, err = store.Get(ctx, types.NewRuleID())
		if !errors.Is(err, types.ErrRuleNotFound) {
			t.Errorf("Get(unknown) error = %v, want ErrRuleNotFound", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		keep, _ := store.Insert(ctx, "a > 1", "keep")
		drop, _ := store.Insert(ctx, "b > 1", "drop")

		removed, err := store.Remove(ctx, drop.ID)
		if err != nil {
			t.Fatalf("Remove() error = %v, want nil", err)
		}
		if !removed {
			t.Errorf("Remove() = false, want true")
		}

		removed, err = store.Remove(ctx, drop.ID)
		if err != nil {
			t.Fatalf("Remove(again) error = %v, want nil", err)
		}
		if removed {
			t.Errorf("Remove(again) = true, want false")
		}

		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v, want nil", err)
		}
		if len(records) != 1 || records[0].ID != keep.ID {
			t.Errorf("List() = %+v, want only %s", records, keep.ID)
		}
	})

	t.Run("clear", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		for i := 0; i < 3; i++ {
			if _, err := store.Insert(ctx, "a > 1", "A"); err != nil {
				t.Fatalf("Insert() error = %v, want nil", err)
			}
		}
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v, want nil", err)
		}
		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v, want nil", err)
		}
		if len(records) != 0 {
			t.Errorf("len(List()) after Clear = %d, want 0", len(records))
		}
		if _, err := store.Insert(ctx, "a > 1", "A"); err != nil {
			t.Errorf("Insert() after Clear error = %v, want nil", err)
		}
	})

	t.Run("duplicate rules get distinct ids", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		first, _ := store.Insert(ctx, "a > 1", "A")
		second, _ := store.Insert(ctx, "a > 1", "A")
		if first.ID == second.ID {
			t.Errorf("Insert() returned id %s twice", first.ID)
		}
	})
}
