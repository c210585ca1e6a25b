package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/satyam-chhatrala/gamma-ortho/dto"
	"github.com/satyam-chhatrala/gamma-ortho/models"
)

// ParseDimensions turns submitted dimension rows into the validated, ordered
// list persisted on a product.
//
// A row with both fields blank is an empty trailing form row and is skipped.
// A row with exactly one field filled in is a malformed submission and fails
// the whole request. Prices must parse as finite numbers and be 0 or greater.
// At least one complete row must survive.
func ParseDimensions(entries []dto.RawDimensionEntry) ([]models.Dimension, error) {
	dims := make([]models.Dimension, 0, len(entries))
	for i, entry := range entries {
		name := strings.TrimSpace(entry.DimensionName)
		price := strings.TrimSpace(entry.BasePrice)

		switch {
		case name == "" && price == "":
			continue
		case name == "":
			return nil, newValidationError(
				fmt.Sprintf("dimensions[%d].dimensionName", i),
				"dimensionName is required when basePrice is set",
			)
		case price == "":
			return nil, newValidationError(
				fmt.Sprintf("dimensions[%d].basePrice", i),
				"basePrice is required when dimensionName is set",
			)
		}

		value, err := strconv.ParseFloat(price, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, newValidationError(
				fmt.Sprintf("dimensions[%d].basePrice", i),
				fmt.Sprintf("%q is not a valid price", entry.BasePrice),
			)
		}
		if value < 0 {
			return nil, newValidationError(
				fmt.Sprintf("dimensions[%d].basePrice", i),
				"basePrice cannot be negative",
			)
		}

		dims = append(dims, models.Dimension{DimensionName: name, BasePrice: value})
	}

	if len(dims) == 0 {
		return nil, newValidationError("dimensions", "at least one complete and valid dimension is required")
	}
	return dims, nil
}
