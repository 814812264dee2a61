// Package platform supplies the host capabilities the sync engine consumes:
// directory and file access, the current time, and device/app naming.
//
// Files are accessed through afero so the same code runs against the real
// disk and an in-memory filesystem in tests. Whole-file rewrites go through
// a temp file and a rename; appends use O_APPEND. Directory listings are
// cached per directory until ResetCache is called on it or an ancestor, or
// until something is created below it through the same FS.
package platform
