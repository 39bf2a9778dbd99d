// Package email holds the address rules shared by registration and login.
package email

import (
	"regexp"
	"strings"
)

// shape mirrors the signup form check: something@something.something with no
// whitespace. Deliverability is not checked.
var shape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Normalize trims and lower-cases an address so uniqueness and login
// comparisons are case-insensitive.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid reports whether the address has the x@y.z shape.
func Valid(address string) bool {
	return shape.MatchString(strings.TrimSpace(address))
}

