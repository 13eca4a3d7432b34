package types

const (
	// NameMaxLen is the number of significant bytes in a file name. Longer
	// names are truncated, not rejected.
	NameMaxLen = 9

	// NumDirEntries is the fixed capacity of every directory table.
	NumDirEntries = 64
)

type DirEntry struct {
	InUse       bool   `json:"inUse"`
	IsDirectory bool   `json:"isDirectory"`
	Sector      Sector `json:"sector"`
	Name        string `json:"name"`
}

// Tag is the listing marker for the entry's kind.
func (entry *DirEntry) Tag() string {
	if entry.IsDirectory {
		return "[D]"
	}
	return "[F]"
}

// TruncateName clips `name` to the significant prefix stored on disk.
func TruncateName(name string) string {
	if len(name) > NameMaxLen {
		return name[:NameMaxLen]
	}
	return name
}
