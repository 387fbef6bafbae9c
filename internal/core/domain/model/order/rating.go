package order

import (
	"strings"
	"time"

	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is the customer's feedback on a delivered order.
type Rating struct {
	score  int
	review string
	at     time.Time
}

func newRating(score int, review string, at time.Time) (Rating, error) {
	if score < MinRating || score > MaxRating {
		return Rating{}, errs.NewValueIsOutOfRangeError("rating", score, MinRating, MaxRating)
	}
	return Rating{score: score, review: strings.TrimSpace(review), at: at}, nil
}

func RestoreRating(score int, review string, at time.Time) Rating {
	return Rating{score: score, review: review, at: at}
}

func (r Rating) Score() int {
	return r.score
}

func (r Rating) Review() string {
	return r.review
}

func (r Rating) At() time.Time {
	return r.at
}
