package pricingview

import (
	"errors"
	"math"
	"strconv"
	"strings"

	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/service"
)

var (
	ErrEmptyFeature = errors.New("feature cannot be empty")
	ErrFeatureIndex = errors.New("feature index out of range")
)

// Draft is the edit form's working copy of one tier. It never shares
// backing arrays with the tier it was opened from.
type Draft struct {
	TierID      string
	Name        string
	Icon        string
	Price       int
	Description string
	Color       string
	Features    []string
	Popular     bool
	ServiceType service.Type
}

func newDraft(t domain.Tier) *Draft {
	features := make([]string, len(t.Features))
	copy(features, t.Features)
	return &Draft{
		TierID:      t.ID,
		Name:        t.Name,
		Icon:        t.Icon,
		Price:       t.Price,
		Description: t.Description,
		Color:       t.Color,
		Features:    features,
		Popular:     t.Popular,
		ServiceType: t.ServiceType,
	}
}

func (d *Draft) clone() Draft {
	c := *d
	c.Features = make([]string, len(d.Features))
	copy(c.Features, d.Features)
	return c
}

// AddFeature appends a trimmed feature line.
func (d *Draft) AddFeature(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyFeature
	}
	d.Features = append(d.Features, text)
	return nil
}

// RemoveFeature drops the feature at i.
func (d *Draft) RemoveFeature(i int) error {
	if i < 0 || i >= len(d.Features) {
		return ErrFeatureIndex
	}
	d.Features = append(d.Features[:i:i], d.Features[i+1:]...)
	return nil
}

// SetFeature replaces the feature at i. Empty text is kept as typed.
func (d *Draft) SetFeature(i int, text string) error {
	if i < 0 || i >= len(d.Features) {
		return ErrFeatureIndex
	}
	d.Features[i] = text
	return nil
}

// SetPriceText parses a price field. Anything unparseable, non-finite or
// negative becomes 0; fractional amounts are truncated.
func (d *Draft) SetPriceText(text string) {
	d.Price = ParsePrice(text)
}

// ParsePrice converts form input to a whole, non-negative price.
func ParsePrice(text string) int {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return domain.ClampPrice(n)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0
	}
	return domain.ClampPrice(int(f))
}

// Patch turns the draft into a full partial update. Every editable field is
// set; the service type is never part of it.
// POST: Popular and Features always present, Price >= 0
func (d *Draft) Patch() domain.Patch {
	name, icon, desc, color := d.Name, d.Icon, d.Description, d.Color
	price := domain.ClampPrice(d.Price)
	popular := d.Popular
	features := make([]string, len(d.Features))
	copy(features, d.Features)
	return domain.Patch{
		Name:        &name,
		Icon:        &icon,
		Price:       &price,
		Description: &desc,
		Color:       &color,
		Features:    &features,
		Popular:     &popular,
	}
}
