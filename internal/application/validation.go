package application

import (
	"fmt"

	"tracewave/internal/domain"
)

// ValidateObjectID checks an operator supplied object id
func ValidateObjectID(objID int) error {
	if objID <= 0 {
		return &ValidationError{Field: "objId", Message: fmt.Sprintf("must be positive, got %d", objID)}
	}
	return nil
}

// ValidateLabel checks a point label
func ValidateLabel(label int) error {
	if label != domain.LabelBackground && label != domain.LabelForeground {
		return &ValidationError{Field: "label", Message: fmt.Sprintf("must be 0 or 1, got %d", label)}
	}
	return nil
}

// ValidateMode checks an interaction mode
func ValidateMode(mode string) error {
	if mode != domain.ModeBox && mode != domain.ModePoint {
		return &ValidationError{Field: "mode", Message: fmt.Sprintf("must be %q or %q, got %q", domain.ModeBox, domain.ModePoint, mode)}
	}
	return nil
}

// NormalizeBox turns two corner points into a box with non-negative size
func NormalizeBox(x0, y0, x1, y1 int) domain.Box {
	return domain.Box{
		X: min(x0, x1),
		Y: min(y0, y1),
		W: max(x0, x1) - min(x0, x1),
		H: max(y0, y1) - min(y0, y1),
	}
}
