// Package textutil provides filename sanitization and display helpers.
//
// Group names supplied by callers (playlist or collection titles) become
// directory names under the destination. SanitizePathSegment normalizes them
// to NFC, strips characters that are unsafe on common filesystems, and refuses
// names that would escape the destination directory.
package textutil
