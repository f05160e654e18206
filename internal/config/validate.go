package config

import (
	"errors"
	"fmt"
)

// Validation range constants.
const (
	minConcurrencyCap = 1
	maxConcurrencyCap = 256
	minUploadWorkers  = 1
	maxUploadWorkers  = 64
	minSegmentSeconds = 1
	minPollSeconds    = 1
	minScanSeconds    = 1
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks every configuration value and returns all errors found.
// Credentials and endpoint are required per spec: startup must abort
// rather than run against a half-configured object store.
func Validate(s *Settings) error {
	var errs []error

	errs = append(errs, validateRequired(s)...)
	errs = append(errs, validateRanges(s)...)
	errs = append(errs, validateLogLevel(s.LogLevel)...)

	return errors.Join(errs...)
}

func validateRequired(s *Settings) []error {
	var errs []error

	required := map[string]string{
		EnvS3Endpoint:         s.S3Endpoint,
		EnvS3Bucket:           s.S3Bucket,
		EnvS3AccessKey:        s.S3AccessKey,
		EnvS3SecretKey:        s.S3SecretKey,
		EnvMediaMTXAPIBase:    s.MediaMTXAPIBase,
		EnvMediaMTXStreamBase: s.MediaMTXStreamBase,
	}

	for name, value := range required {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s: required, not set", name))
		}
	}

	return errs
}

func validateRanges(s *Settings) []error {
	var errs []error

	if s.ConcurrencyCap < minConcurrencyCap || s.ConcurrencyCap > maxConcurrencyCap {
		errs = append(errs, fmt.Errorf("%s: must be between %d and %d, got %d",
			EnvConcurrencyCap, minConcurrencyCap, maxConcurrencyCap, s.ConcurrencyCap))
	}

	if s.UploadWorkers < minUploadWorkers || s.UploadWorkers > maxUploadWorkers {
		errs = append(errs, fmt.Errorf("%s: must be between %d and %d, got %d",
			EnvUploadWorkers, minUploadWorkers, maxUploadWorkers, s.UploadWorkers))
	}

	if s.SegmentDuration.Seconds() < minSegmentSeconds {
		errs = append(errs, fmt.Errorf("%s: must be >= %ds, got %s",
			EnvSegmentDurSec, minSegmentSeconds, s.SegmentDuration))
	}

	if s.PollInterval.Seconds() < minPollSeconds {
		errs = append(errs, fmt.Errorf("%s: must be >= %ds, got %s",
			EnvPollIntervalSec, minPollSeconds, s.PollInterval))
	}

	if s.ScanInterval.Seconds() < minScanSeconds {
		errs = append(errs, fmt.Errorf("%s: must be >= %ds, got %s",
			EnvScanIntervalSec, minScanSeconds, s.ScanInterval))
	}

	if s.RecordingsRoot == "" {
		errs = append(errs, fmt.Errorf("%s: must not be empty", EnvRecordingsRoot))
	}

	if s.OutputExtension == "" {
		errs = append(errs, fmt.Errorf("%s: must not be empty", EnvOutputExtension))
	}

	return errs
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("%s: must be one of debug, info, warn, error; got %q",
			EnvLogLevel, level)}
	}

	return nil
}
