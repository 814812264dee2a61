// Package entry defines the update record exchanged between apps and its
// line encoding.
//
// An EntryWithPath says "at datetime, field key of path was set to value".
// One entry is one line of a bucket file. The line is a canonical JSON array
// with the path flattened in front of key, datetime and value, so that an
// unchanged entry always re-encodes to identical bytes.
package entry
