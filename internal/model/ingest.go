package model

// IngestEnvelope carries one raw line from the monitored stream with source metadata.
// It is the transport contract between log sources and the watcher.
type IngestEnvelope struct {
	Source string
	Line   string
}
