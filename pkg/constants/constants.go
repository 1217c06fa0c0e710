// Package constants holds shared defaults for the importer.
package constants

import "time"

// Timeouts
const (
	// CommandTimeout bounds a single CLI command.
	CommandTimeout = 30 * time.Minute

	// StoreBusyTimeout is how long the SQLite store waits on a locked database.
	StoreBusyTimeout = 5 * time.Second
)

// File system permissions
const (
	// DirPermissions for created directories
	DirPermissions = 0755

	// FilePermissions for created files
	FilePermissions = 0644
)

// Grid geometry
const (
	// GridColumns is the fixed width of every ability grid.
	GridColumns = 4

	// ForcePowerGridRows is the height force power grids are padded to.
	ForcePowerGridRows = 5
)

// Default paths
const (
	// DefaultDBPath is the SQLite library file used when none is configured.
	DefaultDBPath = "ffgimport.db"

	// DefaultAssetsDir receives images staged out of the archive.
	DefaultAssetsDir = "assets"

	// DefaultLogFile receives the session import log.
	DefaultLogFile = "import-log.txt"

	// DefaultConfigFile is looked up in the working and home directories.
	DefaultConfigFile = ".ffgimport.yaml"
)

// Time formats
const (
	// TimeFormatHuman for user-facing summaries
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename for export directory names
	TimeFormatFilename = "20060102-150405"
)
