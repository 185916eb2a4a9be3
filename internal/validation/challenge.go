package validation

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Challenge is the arithmetic question shown on the signup form.
type Challenge struct {
	A        int
	B        int
	Operator string
	Answer   int
}

// Question renders the challenge for display, e.g. "7 - 3".
func (c Challenge) Question() string {
	return fmt.Sprintf("%d %s %d", c.A, c.Operator, c.B)
}

// Verify reports whether input is the correct answer.
func (c Challenge) Verify(input string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	return err == nil && n == c.Answer
}

// NewChallenge builds a challenge from r. Subtraction never yields a
// negative answer and multiplication uses factors 2..9.
func NewChallenge(r *rand.Rand) Challenge {
	operators := []string{"+", "-", "*"}
	op := operators[r.IntN(len(operators))]
	a := r.IntN(10) + 1
	b := r.IntN(10) + 1

	switch op {
	case "-":
		if a < b {
			a, b = b, a
		}
		return Challenge{A: a, B: b, Operator: op, Answer: a - b}
	case "*":
		a = r.IntN(8) + 2
		b = r.IntN(8) + 2
		return Challenge{A: a, B: b, Operator: op, Answer: a * b}
	default:
		return Challenge{A: a, B: b, Operator: op, Answer: a + b}
	}
}
