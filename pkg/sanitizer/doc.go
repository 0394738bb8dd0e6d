// Package sanitizer provides input normalization for intake form fields.
//
// All functions are idempotent and never fail: invalid input yields an empty
// string (or an empty slice) rather than an error, leaving rejection to the
// validators.
//
// Normalization includes:
//   - Leading dots: "...John" becomes "John", a placeholder artifact some
//     form fillers leave in name fields before submission
//   - Subject names: letters only at both ends, "  -O'Neil. " becomes "O'Neil"
//   - Free text: collapse whitespace, trim leading/trailing spaces
//   - Phone numbers: US numbers to E.164 (+1XXXXXXXXXX)
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
