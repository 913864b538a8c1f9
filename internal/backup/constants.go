package backup

// MetadataVersion is the current version of the backup metadata format
const MetadataVersion = 1

// ArchiveExt is the file extension of backup archives
const ArchiveExt = ".tar.gz"
