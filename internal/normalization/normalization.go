package normalization

import (
  "strings"
)

// ParseInputString strips surrounding whitespace from user supplied input.
func ParseInputString(s string) string {
  return strings.TrimSpace(s)
}

// ParseEmail normalizes an email address for storage and lookup.
func ParseEmail(s string) string {
  return strings.ToLower(strings.TrimSpace(s))
}
