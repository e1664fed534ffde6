// Package catalog keeps a record of every recording (log) ever created,
// keyed by recording id under recmeta/{id}. Entries are written once, when
// the first append to a session creates its log.
package catalog
