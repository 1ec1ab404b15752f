package types

import "errors"

// Config holds storage settings for the artifact store and catalog.
type Config struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
	Format  string `json:"format" yaml:"format"`
}

// Supported artifact formats.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Config validation errors.
var (
	ErrFormatEmpty   = errors.New("format must not be empty")
	ErrFormatUnknown = errors.New("unknown format")
)

// knownFormats lists the formats that Validate accepts.
var knownFormats = map[string]bool{
	FormatJSON:    true,
	FormatMsgpack: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Format == "" {
		return ErrFormatEmpty
	}
	if !knownFormats[c.Format] {
		return ErrFormatUnknown
	}
	return nil
}
