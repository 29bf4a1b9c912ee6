// Package catalog holds the static game content: runway themes, the
// boutique shop, pictionary word lists, and the math question
// generators. Everything here is immutable data plus pure-ish random
// pickers; no game state lives in this package.
package catalog

import (
	"github.com/enescakir/emoji"
	"github.com/valyala/fastrand"
)

type Difficulty string

const (
	// DifficultyEasy is the youngest tier: sums up to ten, short words,
	// first hint letter revealed for free.
	DifficultyEasy Difficulty = "age5"

	// DifficultyGrade4 adds multiplication, division and word problems.
	DifficultyGrade4 Difficulty = "grade4"
)

type Theme struct {
	Name  string
	Emoji string
	Tags  []string
}

type Category string

const (
	CategoryDress     Category = "dress"
	CategoryShoes     Category = "shoes"
	CategoryBag       Category = "bag"
	CategoryAccessory Category = "accessory"
)

var Categories = []Category{CategoryDress, CategoryShoes, CategoryBag, CategoryAccessory}

type Item struct {
	ID       string
	Category Category
	Name     string
	Emoji    string
	Tags     []string
	Price    int
}

var Themes = []Theme{
	{Name: "Beach Party", Emoji: emoji.BeachWithUmbrella.String(), Tags: []string{"bright", "casual", "summery"}},
	{Name: "Winter Gala", Emoji: emoji.Snowflake.String(), Tags: []string{"elegant", "sparkly", "cozy"}},
	{Name: "Superhero Chic", Emoji: emoji.HighVoltage.String(), Tags: []string{"bold", "bright", "powerful"}},
	{Name: "Pop Star Night", Emoji: emoji.GlowingStar.String(), Tags: []string{"sparkly", "glam", "bold"}},
	{Name: "Fairy Garden", Emoji: emoji.Fairy.String(), Tags: []string{"floral", "pastel", "whimsical"}},
	{Name: "Space Explorer", Emoji: emoji.Rocket.String(), Tags: []string{"futuristic", "bold", "metallic"}},
	{Name: "Candy Land", Emoji: emoji.Candy.String(), Tags: []string{"sweet", "bright", "pastel"}},
	{Name: "Jungle Safari", Emoji: emoji.Herb.String(), Tags: []string{"natural", "casual", "earthy"}},
}

var Items = []Item{
	{ID: "d1", Category: CategoryDress, Name: "Sunny Sundress", Emoji: emoji.Dress.String(), Tags: []string{"bright", "casual", "summery"}, Price: 15},
	{ID: "d2", Category: CategoryDress, Name: "Glitter Gown", Emoji: emoji.Dress.String(), Tags: []string{"sparkly", "elegant", "glam"}, Price: 20},
	{ID: "d3", Category: CategoryDress, Name: "Floral Wrap Dress", Emoji: emoji.Dress.String(), Tags: []string{"floral", "pastel", "whimsical"}, Price: 16},
	{ID: "d4", Category: CategoryDress, Name: "Power Suit Dress", Emoji: emoji.Dress.String(), Tags: []string{"bold", "powerful", "futuristic"}, Price: 18},

	{ID: "s1", Category: CategoryShoes, Name: "Sparkle Sneakers", Emoji: emoji.RunningShoe.String(), Tags: []string{"bright", "casual", "summery"}, Price: 11},
	{ID: "s2", Category: CategoryShoes, Name: "Crystal Heels", Emoji: emoji.HighHeeledShoe.String(), Tags: []string{"sparkly", "elegant", "glam"}, Price: 14},
	{ID: "s3", Category: CategoryShoes, Name: "Rainbow Boots", Emoji: emoji.WomanSBoot.String(), Tags: []string{"bold", "whimsical", "bright"}, Price: 12},
	{ID: "s4", Category: CategoryShoes, Name: "Silver Skates", Emoji: emoji.IceSkate.String(), Tags: []string{"futuristic", "metallic", "bold"}, Price: 13},

	{ID: "b1", Category: CategoryBag, Name: "Beach Tote", Emoji: emoji.Handbag.String(), Tags: []string{"casual", "summery", "natural"}, Price: 8},
	{ID: "b2", Category: CategoryBag, Name: "Glam Clutch", Emoji: emoji.ClutchBag.String(), Tags: []string{"sparkly", "glam", "elegant"}, Price: 11},
	{ID: "b3", Category: CategoryBag, Name: "Star Backpack", Emoji: emoji.Backpack.String(), Tags: []string{"bright", "bold", "sweet"}, Price: 9},
	{ID: "b4", Category: CategoryBag, Name: "Candy Bag", Emoji: emoji.Purse.String(), Tags: []string{"sweet", "pastel", "whimsical"}, Price: 9},

	{ID: "a1", Category: CategoryAccessory, Name: "Flower Crown", Emoji: emoji.CherryBlossom.String(), Tags: []string{"floral", "pastel", "whimsical"}, Price: 7},
	{ID: "a2", Category: CategoryAccessory, Name: "Star Sunglasses", Emoji: emoji.Sunglasses.String(), Tags: []string{"bright", "summery", "glam"}, Price: 6},
	{ID: "a3", Category: CategoryAccessory, Name: "Crystal Tiara", Emoji: emoji.Crown.String(), Tags: []string{"sparkly", "elegant", "bold"}, Price: 8},
	{ID: "a4", Category: CategoryAccessory, Name: "Lightning Bolts", Emoji: emoji.HighVoltage.String(), Tags: []string{"bold", "powerful", "futuristic"}, Price: 7},
}

var itemsByID = func() map[string]Item {
	m := make(map[string]Item, len(Items))
	for _, item := range Items {
		m[item.ID] = item
	}
	return m
}()

func ItemByID(id string) (Item, bool) {
	item, ok := itemsByID[id]
	return item, ok
}

// ItemsByIDs resolves a wire outfit, dropping unknown ids.
func ItemsByIDs(ids []string) []Item {
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := ItemByID(id); ok {
			items = append(items, item)
		}
	}
	return items
}

var WordsEasy = []string{
	"cat", "dog", "sun", "star", "fish", "cake", "ball", "tree",
	"house", "apple", "shoe", "hat", "duck", "boat", "moon", "book",
}

var WordsHard = []string{
	"rainbow", "butterfly", "ice cream", "rocket ship", "mermaid",
	"birthday cake", "roller coaster", "treasure chest", "hot air balloon",
	"shooting star", "fashion show", "magic wand", "sandcastle",
	"disco ball", "jellyfish", "tiara",
}

func Words(d Difficulty) []string {
	if d == DifficultyEasy {
		return WordsEasy
	}
	return WordsHard
}

func RandTheme() Theme {
	return Themes[fastrand.Uint32n(uint32(len(Themes)))]
}

// PickWord draws uniformly from the difficulty's list, preferring words
// not in used. Once every word has been used the whole list is eligible
// again (the caller resets its used set when that happens).
func PickWord(d Difficulty, used map[string]bool) string {
	list := Words(d)

	available := make([]string, 0, len(list))
	for _, w := range list {
		if !used[w] {
			available = append(available, w)
		}
	}
	if len(available) == 0 {
		available = list
	}

	return available[fastrand.Uint32n(uint32(len(available)))]
}

// randInt returns a uniform int in [min, max].
func randInt(min, max int) int {
	return min + int(fastrand.Uint32n(uint32(max-min+1)))
}
