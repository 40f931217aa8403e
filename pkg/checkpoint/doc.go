// Package checkpoint stores the resume cursor of a download run.
//
// The checkpoint is a single integer, the highest ID whose processing has
// concluded, kept in a small JSON file:
//
//	{"last_id": 1342}
//
// A missing file means nothing has been processed yet. The file is
// replaced atomically on every save (temporary file, fsync, rename), so a
// crash leaves either the old or the new value on disk. Unknown fields are
// ignored when reading; a negative or undecodable value is reported as a
// storage error.
package checkpoint
