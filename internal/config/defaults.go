package config

import "time"

// Default values for configuration options left unset in the environment.
const (
	defaultPollInterval    = 10 * time.Second
	defaultScanInterval    = 30 * time.Second
	defaultConcurrencyCap  = 8
	defaultSegmentDuration = 60 * time.Second
	defaultOutputExtension = "mp4"
	defaultRecordingsRoot  = "/var/lib/vodarchiver/recordings"
	defaultUploadWorkers   = 3
	defaultLogLevel        = "info"
	defaultS3UseTLS        = true
	defaultS3VerifyTLS     = true
)

// applyDefaults turns raw environment strings into a fully populated
// Settings, substituting a default wherever the environment left a field
// unset. Required fields (S3 credentials and endpoint) are left as empty
// strings so Validate can report them as missing.
func applyDefaults(raw rawEnv) *Settings {
	return &Settings{
		MediaMTXAPIBase:    raw.mediaMTXAPIBase,
		MediaMTXStreamBase: raw.mediaMTXStreamBase,
		PollInterval:       parseSecondsOr(raw.pollIntervalSec, defaultPollInterval),

		S3Endpoint:  raw.s3Endpoint,
		S3Region:    raw.s3Region,
		S3Bucket:    raw.s3Bucket,
		S3AccessKey: raw.s3AccessKey,
		S3SecretKey: raw.s3SecretKey,
		S3UseTLS:    parseBoolOr(raw.s3UseTLS, defaultS3UseTLS),
		S3VerifyTLS: parseBoolOr(raw.s3VerifyTLS, defaultS3VerifyTLS),

		ConcurrencyCap:  parseIntOr(raw.concurrencyCap, defaultConcurrencyCap),
		SegmentDuration: parseSecondsOr(raw.segmentDurSec, defaultSegmentDuration),
		OutputExtension: defaultString(raw.outputExtension, defaultOutputExtension),
		RecordingsRoot:  defaultString(raw.recordingsRoot, defaultRecordingsRoot),
		ScanInterval:    parseSecondsOr(raw.scanIntervalSec, defaultScanInterval),

		UploadWorkers: parseIntOr(raw.uploadWorkers, defaultUploadWorkers),
		LogLevel:      defaultString(raw.logLevel, defaultLogLevel),
	}
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
