// Package storage is the content store: it maps an item ID to an artifact
// file named "<id>.<extension>" inside one output directory.
//
// The store handles:
//   - Creating the output directory
//   - Existence checks by stat, so files placed by hand are honoured
//   - Atomic writes through a temporary file, fsync and rename
//   - Scanning the directory for status reports
//
// Every failure is returned as a storage-typed error from pkg/errors; the
// caller treats those as fatal.
//
// Usage:
//
//	store, err := storage.NewManager("downloads", "epub")
//	if err != nil {
//	    return err
//	}
//
//	present, err := store.Has(84)
//	if err != nil {
//	    return err
//	}
//	if !present {
//	    _, err = store.Save(84, body)
//	}
package storage
