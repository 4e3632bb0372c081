package domain

import (
	"math"
	"strconv"

	"table-service/internal/common/apperr"
)

// Quantity is a strictly positive item count. Zero is expressed by removing the line.
type Quantity struct {
	value int
}

func NewQuantity(v int) (Quantity, error) {
	if v <= 0 {
		return Quantity{}, apperr.WithMetadata(apperr.CodeInvalidQuantity, "quantity must be greater than zero",
			map[string]string{"quantity": strconv.Itoa(v)})
	}
	return Quantity{value: v}, nil
}

func (q Quantity) Value() int { return q.value }

// Add sums two quantities, rejecting a sum that does not fit in an int.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	if o.value > math.MaxInt-q.value {
		return Quantity{}, apperr.WithMetadata(apperr.CodeInvalidQuantity, "quantity is too large",
			map[string]string{"quantity": strconv.Itoa(q.value), "added": strconv.Itoa(o.value)})
	}
	return Quantity{value: q.value + o.value}, nil
}
