package catalog

import (
	"fmt"

	"github.com/valyala/fastrand"
)

// Question is ephemeral: generated on demand, discarded once answered.
type Question struct {
	Text         string
	Answer       int
	Choices      []int
	CorrectIndex int
}

// NewQuestion generates a timed quiz question for the difficulty tier.
func NewQuestion(d Difficulty) Question {
	if d == DifficultyEasy {
		return easyQuestion()
	}

	switch fastrand.Uint32n(4) {
	case 0:
		return addition()
	case 1:
		return subtraction()
	case 2:
		return multiplication()
	default:
		return wordProblem()
	}
}

func easyQuestion() Question {
	if fastrand.Uint32n(2) == 0 {
		a, b := randInt(1, 5), randInt(1, 5)
		return withChoices(fmt.Sprintf("%d + %d = ?", a, b), a+b, 3)
	}

	a := randInt(2, 10)
	b := randInt(1, a-1)
	return withChoices(fmt.Sprintf("%d - %d = ?", a, b), a-b, 3)
}

func addition() Question {
	a, b := randInt(14, 75), randInt(11, 75)
	return withChoices(fmt.Sprintf("%d + %d = ?", a, b), a+b, 15)
}

func subtraction() Question {
	a := randInt(30, 99)
	b := randInt(10, a-5)
	return withChoices(fmt.Sprintf("%d - %d = ?", a, b), a-b, 15)
}

func multiplication() Question {
	a, b := randInt(2, 9), randInt(2, 9)
	return withChoices(fmt.Sprintf("%d × %d = ?", a, b), a*b, 15)
}

func wordProblem() Question {
	switch fastrand.Uint32n(4) {
	case 0:
		total := randInt(35, 80)
		spent := randInt(10, total-5)
		text := fmt.Sprintf("You have %d coins and spend %d on shoes.\nHow many coins are left?", total, spent)
		return withChoices(text, total-spent, 15)
	case 1:
		a, b := randInt(8, 25), randInt(8, 25)
		text := fmt.Sprintf("A dress costs %d and a bag costs %d.\nHow much do they cost in total?", a, b)
		return withChoices(text, a+b, 15)
	case 2:
		packs, each := randInt(2, 5), randInt(4, 9)
		text := fmt.Sprintf("You buy %d packs of hair clips.\nEach pack costs %d coins. Total cost?", packs, each)
		return withChoices(text, packs*each, 15)
	default:
		budget := randInt(40, 65)
		a, b, c := randInt(10, 18), randInt(6, 14), randInt(4, 10)
		left := budget - a - b - c
		if left < 0 {
			// this template can go negative, fall back to plain addition
			return addition()
		}
		text := fmt.Sprintf("You have %d coins. You buy items for %d, %d and %d.\nHow many coins are left?", budget, a, b, c)
		return withChoices(text, left, 15)
	}
}

// withChoices builds four distinct non-negative options around the
// correct answer, spread ±spread, and shuffles them.
func withChoices(text string, correct, spread int) Question {
	wrongs := map[int]bool{}
	for attempts := 0; len(wrongs) < 3 && attempts < 60; attempts++ {
		w := correct + randInt(-spread, spread)
		if w != correct && w >= 0 {
			wrongs[w] = true
		}
	}
	for i := 1; len(wrongs) < 3; i++ {
		wrongs[correct+len(wrongs)+i] = true
	}

	choices := []int{correct}
	for w := range wrongs {
		choices = append(choices, w)
	}
	for i := len(choices) - 1; i > 0; i-- {
		j := int(fastrand.Uint32n(uint32(i + 1)))
		choices[i], choices[j] = choices[j], choices[i]
	}

	correctIndex := 0
	for i, c := range choices {
		if c == correct {
			correctIndex = i
			break
		}
	}

	return Question{Text: text, Answer: correct, Choices: choices, CorrectIndex: correctIndex}
}
