package pricing

import (
	"errors"
	"strings"
	"time"

	"aurora/internal/domain/service"
)

// Max length constants for admin-editable fields.
const (
	MaxNameLength        = 80
	MaxDescriptionLength = 300
	MaxFeatureLength     = 200
	MaxFeatures          = 20
)

// Color constants
const (
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorPurple = "purple"
)

// Icon constants. Unknown icons render as IconFallback.
const (
	IconFileText   = "FileText"
	IconCalculator = "Calculator"
	IconShield     = "Shield"
	IconGlobe      = "Globe"
	IconMonitor    = "Monitor"
	IconFallback   = "DollarSign"
)

// ValidColors contains all valid card accent colors.
var ValidColors = []string{ColorBlue, ColorGreen, ColorPurple}

// ValidIcons contains every icon key the pricing cards know how to draw.
var ValidIcons = []string{IconFileText, IconCalculator, IconShield, IconGlobe, IconMonitor}

// Domain errors
var (
	ErrEmptyName           = errors.New("tier name cannot be empty")
	ErrNameTooLong         = errors.New("tier name cannot exceed 80 characters")
	ErrDescriptionTooLong  = errors.New("tier description cannot exceed 300 characters")
	ErrInvalidColor        = errors.New("color must be one of: blue, green, purple")
	ErrTooManyFeatures     = errors.New("a tier cannot list more than 20 features")
	ErrFeatureTooLong      = errors.New("a feature cannot exceed 200 characters")
	ErrNotFound            = errors.New("pricing tier not found")
	ErrServiceTypeRequired = errors.New("tier service type must be taxation or web-design")
)

// Tier is one priced package shown on the pricing page.
type Tier struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	Price       int          `json:"price"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	Features    []string     `json:"features"`
	Popular     bool         `json:"popular"`
	ServiceType service.Type `json:"serviceType"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Patch is a partial update. Nil fields keep their stored value.
// There is no service type field: a tier never moves between service lines.
type Patch struct {
	Name        *string   `json:"name,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Price       *int      `json:"price,omitempty"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	Popular     *bool     `json:"popular,omitempty"`
}

// Validate checks if the Tier has valid data.
// PRE: Tier struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Tier) Validate() error {
	if !t.ServiceType.Valid() {
		return ErrServiceTypeRequired
	}
	if err := validateName(t.Name); err != nil {
		return err
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !isValidColor(t.Color) {
		return ErrInvalidColor
	}
	return validateFeatures(t.Features)
}

// Clone returns a copy that shares no slices with t.
func (t Tier) Clone() Tier {
	c := t
	c.Features = cloneFeatures(t.Features)
	return c
}

// IconKey is the icon to draw for this tier.
func (t Tier) IconKey() string {
	return IconKey(t.Icon)
}

// IconKey maps a stored icon name to a drawable key, falling back to IconFallback.
func IconKey(icon string) string {
	for _, i := range ValidIcons {
		if i == icon {
			return icon
		}
	}
	return IconFallback
}

// ClampPrice coerces a price to the non-negative range.
func ClampPrice(p int) int {
	if p < 0 {
		return 0
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Icon == nil && p.Price == nil && p.Description == nil &&
		p.Color == nil && p.Features == nil && p.Popular == nil
}

// Validate checks the fields the patch sets.
// PRE: none
// POST: Returns nil if every set field is valid
func (p Patch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if p.Color != nil && !isValidColor(*p.Color) {
		return ErrInvalidColor
	}
	if p.Features != nil {
		return validateFeatures(*p.Features)
	}
	return nil
}

// Apply returns t with the patch merged on top (shallow merge).
// INVARIANT: t is not mutated; ServiceType, ID and CreatedAt are untouched
func (p Patch) Apply(t Tier) Tier {
	out := t.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Icon != nil {
		out.Icon = *p.Icon
	}
	if p.Price != nil {
		out.Price = ClampPrice(*p.Price)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Features != nil {
		out.Features = cloneFeatures(*p.Features)
	}
	if p.Popular != nil {
		out.Popular = *p.Popular
	}
	return out
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateFeatures(features []string) error {
	if len(features) > MaxFeatures {
		return ErrTooManyFeatures
	}
	for _, f := range features {
		if len(f) > MaxFeatureLength {
			return ErrFeatureTooLong
		}
	}
	return nil
}

func cloneFeatures(f []string) []string {
	out := make([]string, len(f))
	copy(out, f)
	return out
}

func isValidColor(c string) bool {
	for _, v := range ValidColors {
		if v == c {
			return true
		}
	}
	return false
}
