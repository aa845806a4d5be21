package constants

import "errors"

// CLI configuration errors.
var (
	ErrNoCredentials     = errors.New("no API credentials configured, run 'auvo login' or set AUVO_API_KEY and AUVO_API_TOKEN")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrInvalidFilter     = errors.New("invalid filter, expected key=value")
	ErrDataRequired      = errors.New("--data is required")
	ErrNoExportSink      = errors.New("either --nats-url or --jsonl is required")
	ErrUnsupportedOutput = errors.New("unsupported output format")
)
