// Package config implements environment-variable configuration loading,
// defaulting, and validation for the VOD archiver supervisor.
package config

import "time"

// Settings is the fully resolved, validated configuration for one
// supervisor process.
type Settings struct {
	// Upstream.
	MediaMTXAPIBase    string // e.g. http://127.0.0.1:9997
	MediaMTXStreamBase string // e.g. rtsp://127.0.0.1:8554
	PollInterval       time.Duration

	// Object store.
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseTLS    bool
	S3VerifyTLS bool

	// Capture.
	ConcurrencyCap  int
	SegmentDuration time.Duration
	OutputExtension string
	RecordingsRoot  string
	ScanInterval    time.Duration

	// Upload pipeline.
	UploadWorkers int

	LogLevel string
}
