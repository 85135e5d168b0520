// Package sanitizer normalizes customer input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be normalized
// comes back trimmed (strings) or empty (phone numbers), and validation decides
// whether that is acceptable.
package sanitizer
