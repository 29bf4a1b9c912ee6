// Package score computes every point value in the game. All functions
// are pure: fixed inputs give fixed outputs, nothing here reads state.
package score

import (
	"math"
	"time"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
)

const (
	// PointsPerTag is awarded for every item tag matching the theme.
	PointsPerTag = 10

	// GuessPointsMax bounds a single correct guess.
	GuessPointsMax = 100

	// DrawerBonus goes to the drawer when at least one player guessed.
	DrawerBonus = 50

	budgetBonusMax = 30
)

// Style scores an outfit against a theme: PointsPerTag for every item
// tag found in the theme's tag set. Tags are matched per occurrence,
// not deduplicated, so an item repeating a theme tag counts each time.
func Style(outfit []catalog.Item, theme catalog.Theme) int {
	themeTags := map[string]bool{}
	for _, tag := range theme.Tags {
		themeTags[tag] = true
	}

	points := 0
	for _, item := range outfit {
		for _, tag := range item.Tags {
			if themeTags[tag] {
				points += PointsPerTag
			}
		}
	}

	return points
}

// Breakdown is the head-to-head total used on the winner screen.
type Breakdown struct {
	Style       int
	MathPercent int
	BudgetBonus int
	Total       int
}

// Total combines style, math accuracy and thrift. style is the Style
// result (already PointsPerTag-weighted); spent must not exceed coins.
// A player who earned no coins gets no budget bonus.
func Total(style, correct, questions, coins, spent int) Breakdown {
	b := Breakdown{Style: style}

	if questions > 0 {
		b.MathPercent = int(math.Round(float64(correct) / float64(questions) * 100))
	}

	if coins > 0 {
		leftover := float64(coins-spent) / float64(coins)
		leftover = math.Max(0, math.Min(1, leftover))
		b.BudgetBonus = int(math.Round(leftover * budgetBonusMax))
	}

	b.Total = b.Style + b.MathPercent + b.BudgetBonus
	return b
}

// GuessPoints rewards guess speed: 30% of max guaranteed, the rest
// decaying linearly to zero over the turn.
func GuessPoints(elapsed, turn time.Duration, max int) int {
	fraction := math.Max(0, 1-elapsed.Seconds()/turn.Seconds())
	return int(math.Round(float64(max)*0.3 + float64(max)*0.7*fraction))
}
