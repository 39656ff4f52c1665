// Package mirror is the filesystem side of a sync run.
//
// A Manager roots the mirror tree; each collection gets its own Dir named after
// the collection title, which must be a single path element. Dir provides what reconciliation needs:
//   - Ensure creates the directory, tolerating one that already exists
//   - Scan classifies existing files as keep, stale or empty
//   - Exists, Save and Remove act on single covers
//
// Save writes through a temporary file and an atomic rename:
//
//	dir, err := mirror.NewManager("covers", log).Dir("Bat Stuff")
//	if err != nil {
//	    return err
//	}
//	if err := dir.Ensure(); err != nil {
//	    return err
//	}
//	if err := dir.Save(bytes.NewReader(data), "Batman(1940)#1.jpg"); err != nil {
//	    log.WithError(err).Warn("cover not saved")
//	}
package mirror
