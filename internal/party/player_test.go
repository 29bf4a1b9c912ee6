package party

import (
	"errors"
	"testing"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
)

func item(t *testing.T, id string) catalog.Item {
	t.Helper()
	it, ok := catalog.ItemByID(id)
	if !ok {
		t.Fatalf("unknown item %s", id)
	}
	return it
}

func TestToggleItemBudget(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "p", Coins: 20}

	if !p.ToggleItem(item(t, "d1")) { // 15
		t.Fatal("affordable dress refused")
	}
	if p.ToggleItem(item(t, "s1")) { // 11, would total 26
		t.Fatal("overspend allowed")
	}
	if p.Spent() != 15 {
		t.Fatalf("spent = %d", p.Spent())
	}

	// deselect frees the budget again
	if !p.ToggleItem(item(t, "d1")) {
		t.Fatal("deselect refused")
	}
	if len(p.Outfit) != 0 {
		t.Fatalf("outfit = %v", p.outfitIDs())
	}
}

func TestToggleItemCategorySwap(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "p", Coins: 30}

	p.ToggleItem(item(t, "d1")) // dress, 15
	p.ToggleItem(item(t, "a2")) // accessory, 6

	// swapping within a category must count the freed price
	if !p.ToggleItem(item(t, "d2")) { // dress, 20: 21 - 15 + 20 = 26 <= 30
		t.Fatal("category swap refused")
	}

	if len(p.Outfit) != 2 {
		t.Fatalf("outfit = %v, want one dress one accessory", p.outfitIDs())
	}
	dresses := 0
	for _, it := range p.Outfit {
		if it.Category == catalog.CategoryDress {
			dresses++
			if it.ID != "d2" {
				t.Fatalf("kept old dress %s", it.ID)
			}
		}
	}
	if dresses != 1 {
		t.Fatalf("%d dresses worn", dresses)
	}
}

func TestDirectoryLifecycle(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	if _, err := d.Join("h", "Ada", true); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := d.Join("g", "Bea", false); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := d.Join("g", "Bea again", false); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("duplicate join err = %v", err)
	}

	d.Start()
	if _, err := d.Join("late", "Cal", false); !errors.Is(err, ErrSessionStarted) {
		t.Fatalf("late join err = %v", err)
	}

	d.Reopen()
	if _, err := d.Join("late", "Cal", false); err != nil {
		t.Fatalf("join after reopen: %v", err)
	}

	if !d.Remove("g") || d.Remove("g") {
		t.Fatal("remove semantics broken")
	}
	if d.Index("late") != 1 {
		t.Fatalf("index after removal = %d", d.Index("late"))
	}
}

func TestDirectoryResetAndSnapshot(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	p, _ := d.Join("h", "Ada", true)
	p.Coins = 30
	p.Score = 20
	p.Outfit = catalog.ItemsByIDs([]string{"d1"})
	p.Total = 50

	snap := d.Snapshot()
	if snap[0].Coins != 30 || len(snap[0].Outfit) != 1 {
		t.Fatalf("snapshot = %+v", snap[0])
	}

	replica := NewDirectory()
	replica.Replace(snap)
	got, _ := replica.Player("h")
	if got.Coins != 30 || got.Outfit[0].ID != "d1" || !got.Host {
		t.Fatalf("replica = %+v", got)
	}

	d.ResetGame()
	if p.Coins != 0 || p.Score != 0 || p.Outfit != nil || p.Total != 0 {
		t.Fatalf("reset left state: %+v", p)
	}
}
