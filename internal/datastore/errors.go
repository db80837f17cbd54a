package datastore

import "errors"

// ErrSnapshotCorrupt is returned by Read when the snapshot cannot be decoded.
var ErrSnapshotCorrupt = errors.New("snapshot file is corrupt")
