package enums

import (
	"fmt"
	"strings"
)

// Campus identifies the pickup campus for an order.
type Campus string

const (
	CampusAlameda   Campus = "Alameda"
	CampusTaguspark Campus = "Taguspark"
)

var validCampuses = []Campus{
	CampusAlameda,
	CampusTaguspark,
}

// String implements fmt.Stringer.
func (c Campus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Campus.
func (c Campus) IsValid() bool {
	for _, candidate := range validCampuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCampus converts raw input into a Campus. Matching is
// case-insensitive because the portal sends both spellings.
func ParseCampus(value string) (Campus, error) {
	for _, candidate := range validCampuses {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campus %q", value)
}
