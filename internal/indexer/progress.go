package indexer

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks are never invoked concurrently.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file selection begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called with the number of files to parse and
	// the number skipped as binary or unsupported.
	OnDiscoveryComplete(candidates, skippedBinary, skippedUnsupported int)

	// OnFileProcessingStart is called before parsing begins.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is parsed, successfully or not.
	OnFileProcessed(fileName string)

	// OnWritingManifest is called once every artifact is on disk.
	OnWritingManifest()

	// OnComplete is called when indexing completes successfully.
	OnComplete(report *Report)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart() {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(candidates, skippedBinary, skippedUnsupported int) {
}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)      {}
func (n *NoOpProgressReporter) OnWritingManifest()                   {}
func (n *NoOpProgressReporter) OnComplete(report *Report)            {}
