package render

import (
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/graphcp/pkg/errors"
)

// Dimension defaults and bounds, in pixels.
const (
	DefaultWidth  = 500
	DefaultHeight = 500
	MaxDimension  = 10000
)

// DPI bounds for the derived resolution hint.
const (
	MinDPI = 72
	MaxDPI = 300
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Dimensions is a requested image size. It is advisory: Graphviz decides
// the final pixel size from the layout.
type Dimensions struct {
	Width  int `validate:"gte=1,lte=10000"`
	Height int `validate:"gte=1,lte=10000"`
}

// Validate checks both sides are in 1..MaxDimension.
// Violations carry errors.ErrCodeInvalidParameter.
func (d Dimensions) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidParameter, err, "invalid dimensions")
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "gte":
		return errors.New(errors.ErrCodeInvalidParameter, "%s must be a positive integer (got %v)", field, fe.Value())
	case "lte":
		return errors.New(errors.ErrCodeInvalidParameter, "%s must be at most %d pixels (got %v)", field, MaxDimension, fe.Value())
	default:
		return errors.New(errors.ErrCodeInvalidParameter, "invalid %s: %v", field, fe.Value())
	}
}

// DPI derives a resolution hint: min(width, height) / 5, clamped to
// [MinDPI, MaxDPI].
func (d Dimensions) DPI() float64 {
	dpi := float64(min(d.Width, d.Height)) / 5
	return max(MinDPI, min(MaxDPI, dpi))
}
