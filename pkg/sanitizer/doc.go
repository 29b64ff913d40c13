// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent and never fail: invalid input comes back empty
// rather than as an error.
package sanitizer
