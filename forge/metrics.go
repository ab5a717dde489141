package forge

// Metrics counts the work performed by one run. A second run over an
// already-generated tree reports zero files written, the observable form
// of the idempotence guarantee.
type Metrics struct {
	FilesWritten    int
	FilesSkipped    int
	FilesStale      int
	BytesWritten    int64
	ResourcesOK     int
	ResourcesFailed int
}
