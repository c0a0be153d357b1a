// Package fetch downloads the bulk reference snapshots.
//
// Each file is an independent download task; a file whose local copy is
// younger than the configured maximum age is skipped. Downloads land in a
// temp file and are renamed into place only once complete, so a failed
// transfer never clobbers a usable snapshot.
package fetch
