package catalog

import "testing"

func TestCatalogShape(t *testing.T) {
	t.Parallel()

	if len(Themes) == 0 {
		t.Fatal("no themes")
	}
	for _, theme := range Themes {
		if len(theme.Tags) != 3 {
			t.Errorf("theme %q has %d tags, want 3", theme.Name, len(theme.Tags))
		}
	}

	perCategory := map[Category]int{}
	for _, item := range Items {
		if item.Price <= 0 {
			t.Errorf("item %q has non-positive price %d", item.ID, item.Price)
		}
		perCategory[item.Category]++
	}
	for _, cat := range Categories {
		if perCategory[cat] == 0 {
			t.Errorf("category %s has no items", cat)
		}
	}
}

func TestItemByID(t *testing.T) {
	t.Parallel()

	item, ok := ItemByID("d1")
	if !ok || item.Name != "Sunny Sundress" {
		t.Fatalf("ItemByID(d1) = %+v, %v", item, ok)
	}

	if _, ok := ItemByID("zz"); ok {
		t.Fatal("unknown id resolved")
	}

	outfit := ItemsByIDs([]string{"d1", "zz", "a3"})
	if len(outfit) != 2 {
		t.Fatalf("ItemsByIDs dropped wrong count: %d", len(outfit))
	}
}

func TestPickWordPrefersUnused(t *testing.T) {
	t.Parallel()

	used := map[string]bool{}
	for _, w := range WordsEasy[1:] {
		used[w] = true
	}

	for i := 0; i < 20; i++ {
		if got := PickWord(DifficultyEasy, used); got != WordsEasy[0] {
			t.Fatalf("picked used word %q", got)
		}
	}
}

func TestPickWordResetsWhenExhausted(t *testing.T) {
	t.Parallel()

	used := map[string]bool{}
	for _, w := range WordsEasy {
		used[w] = true
	}

	got := PickWord(DifficultyEasy, used)
	found := false
	for _, w := range WordsEasy {
		if w == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("exhausted pool returned foreign word %q", got)
	}
}

func TestNewQuestionChoices(t *testing.T) {
	t.Parallel()

	for _, d := range []Difficulty{DifficultyEasy, DifficultyGrade4} {
		for i := 0; i < 200; i++ {
			q := NewQuestion(d)

			if len(q.Choices) != 4 {
				t.Fatalf("%s: %d choices", d, len(q.Choices))
			}
			if q.Choices[q.CorrectIndex] != q.Answer {
				t.Fatalf("%s: correct index points at %d, want %d", d, q.Choices[q.CorrectIndex], q.Answer)
			}

			seen := map[int]bool{}
			for _, c := range q.Choices {
				if c < 0 {
					t.Fatalf("%s: negative choice %d in %v", d, c, q.Choices)
				}
				if seen[c] {
					t.Fatalf("%s: duplicate choice %d in %v", d, c, q.Choices)
				}
				seen[c] = true
			}
		}
	}
}
