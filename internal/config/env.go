package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Environment variable names. All configuration is read from the
// environment; there is no config file layer.
const (
	EnvMediaMTXAPIBase    = "MEDIAMTX_API_BASE"
	EnvMediaMTXStreamBase = "MEDIAMTX_STREAM_BASE"
	EnvPollIntervalSec    = "POLL_INTERVAL_SECONDS"
	EnvScanIntervalSec    = "SCAN_INTERVAL_SECONDS"

	EnvS3Endpoint  = "S3_ENDPOINT"
	EnvS3Region    = "S3_REGION"
	EnvS3Bucket    = "S3_BUCKET"
	EnvS3AccessKey = "S3_ACCESS_KEY"
	EnvS3SecretKey = "S3_SECRET_KEY"
	EnvS3UseTLS    = "S3_USE_TLS"
	EnvS3VerifyTLS = "S3_VERIFY_TLS"

	EnvConcurrencyCap  = "CONCURRENCY_CAP"
	EnvSegmentDurSec   = "SEGMENT_DURATION_SECONDS"
	EnvOutputExtension = "OUTPUT_EXTENSION"
	EnvRecordingsRoot  = "RECORDINGS_ROOT"
	EnvUploadWorkers   = "UPLOAD_WORKERS"
	EnvLogLevel        = "LOG_LEVEL"
)

// rawEnv holds the unvalidated string form of every recognized environment
// variable. Reading is separated from defaulting and validation so each
// step stays testable in isolation.
type rawEnv struct {
	mediaMTXAPIBase    string
	mediaMTXStreamBase string
	pollIntervalSec    string
	scanIntervalSec    string

	s3Endpoint  string
	s3Region    string
	s3Bucket    string
	s3AccessKey string
	s3SecretKey string
	s3UseTLS    string
	s3VerifyTLS string

	concurrencyCap  string
	segmentDurSec   string
	outputExtension string
	recordingsRoot  string
	uploadWorkers   string
	logLevel        string
}

// readEnv reads every recognized environment variable. Unset variables
// yield the empty string; defaulting happens later.
func readEnv() rawEnv {
	return rawEnv{
		mediaMTXAPIBase:    os.Getenv(EnvMediaMTXAPIBase),
		mediaMTXStreamBase: os.Getenv(EnvMediaMTXStreamBase),
		pollIntervalSec:    os.Getenv(EnvPollIntervalSec),
		scanIntervalSec:    os.Getenv(EnvScanIntervalSec),

		s3Endpoint:  os.Getenv(EnvS3Endpoint),
		s3Region:    os.Getenv(EnvS3Region),
		s3Bucket:    os.Getenv(EnvS3Bucket),
		s3AccessKey: os.Getenv(EnvS3AccessKey),
		s3SecretKey: os.Getenv(EnvS3SecretKey),
		s3UseTLS:    os.Getenv(EnvS3UseTLS),
		s3VerifyTLS: os.Getenv(EnvS3VerifyTLS),

		concurrencyCap:  os.Getenv(EnvConcurrencyCap),
		segmentDurSec:   os.Getenv(EnvSegmentDurSec),
		outputExtension: os.Getenv(EnvOutputExtension),
		recordingsRoot:  os.Getenv(EnvRecordingsRoot),
		uploadWorkers:   os.Getenv(EnvUploadWorkers),
		logLevel:        os.Getenv(EnvLogLevel),
	}
}

// Load reads the environment, applies defaults for anything unset, and
// validates the result. It is the single entry point callers use.
func Load(logger *slog.Logger) (*Settings, error) {
	raw := readEnv()
	s := applyDefaults(raw)

	if err := Validate(s); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		slog.String("mediamtx_api_base", s.MediaMTXAPIBase),
		slog.String("s3_bucket", s.S3Bucket),
		slog.Int("concurrency_cap", s.ConcurrencyCap),
		slog.Int("upload_workers", s.UploadWorkers),
	)

	return s, nil
}

func parseIntOr(value string, fallback int) int {
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return n
}

func parseSecondsOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return time.Duration(n) * time.Second
}

func parseBoolOr(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return b
}
