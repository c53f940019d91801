package duckdb

import (
	"database/sql"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an ID list file, so a run
// can later be matched to the exact list it was filtered with.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
// An empty path yields the zero fingerprint.
func StatFile(path string) (FileFingerprint, error) {
	if path == "" {
		return FileFingerprint{}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// IsZero reports whether no file was fingerprinted.
func (fp FileFingerprint) IsZero() bool {
	return fp.Path == ""
}

func (fp FileFingerprint) nullTime() sql.NullTime {
	return sql.NullTime{Time: fp.ModTime.UTC(), Valid: !fp.IsZero()}
}
