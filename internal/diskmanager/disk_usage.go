// Package diskmanager reports disk usage for paths holding the scan database
// and backup archives.
package diskmanager

// DiskSpaceInfo holds detailed disk space information.
type DiskSpaceInfo struct {
	TotalBytes uint64
	UsedBytes  uint64
}
