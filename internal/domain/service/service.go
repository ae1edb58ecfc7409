package service

import (
	"errors"
	"strings"
)

// Type identifies one of the two service lines the business sells.
type Type string

// Service line constants
const (
	Taxation  Type = "taxation"
	WebDesign Type = "web-design"
)

// Default is the service line shown to visitors who have not picked one.
const Default = Taxation

// ValidTypes contains all valid service line values.
var ValidTypes = []Type{Taxation, WebDesign}

// ErrInvalidServiceType is returned when a value is not a known service line.
var ErrInvalidServiceType = errors.New("service type must be one of: taxation, web-design")

var labels = map[Type]string{
	Taxation:  "Taxation Services",
	WebDesign: "Web Design",
}

// Parse converts a raw value (query string, cookie, form field) into a Type.
// PRE: none
// POST: Returns a valid Type or ErrInvalidServiceType
func Parse(raw string) (Type, error) {
	t := Type(strings.TrimSpace(strings.ToLower(raw)))
	if !t.Valid() {
		return "", ErrInvalidServiceType
	}
	return t, nil
}

// ParseOrDefault is Parse with a fallback to Default for unknown values.
func ParseOrDefault(raw string) Type {
	t, err := Parse(raw)
	if err != nil {
		return Default
	}
	return t
}

// Valid reports whether t is a known service line.
func (t Type) Valid() bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Toggle returns the other service line.
// INVARIANT: Toggle(Toggle(t)) == t for valid t
func (t Type) Toggle() Type {
	if t == WebDesign {
		return Taxation
	}
	return WebDesign
}

// Label is the display name used on pages and in emails.
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

func (t Type) String() string {
	return string(t)
}
