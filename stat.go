package omnifs

import (
	"fmt"
	"os"
	"time"
)

// FileStat describes a file or directory entry. It is produced by FS.Stat
// and FS.ListStat and is immutable once constructed.
//
// Precision of LastModified varies by backend; some systems have no
// sub-second resolution. Size of a directory is backend-defined.
type FileStat struct {
	// Filename is the entry's name relative to the FS root.
	Filename string

	// LastModified is the modification time.
	LastModified time.Time

	// Mode holds the permission bits plus the directory flag.
	Mode os.FileMode

	// Size is the entry size in bytes.
	Size int64
}

// IsDir reports whether the entry is a directory, derived from the mode flag.
func (s *FileStat) IsDir() bool {
	return s.Mode.IsDir()
}

func (s *FileStat) String() string {
	return fmt.Sprintf("<FileStat filename=%q mode=%q>", s.Filename, s.Mode.String())
}
