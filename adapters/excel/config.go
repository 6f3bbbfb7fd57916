package excel

// ReaderConfig holds configuration for a tabular data source
type ReaderConfig struct {
	Sheet     string `yaml:"sheet,omitempty" mapstructure:"sheet"`         // xlsx only; first sheet when empty
	Delimiter string `yaml:"delimiter,omitempty" mapstructure:"delimiter"` // overrides the extension default
}

// DefaultReaderConfig reads the first sheet and infers the delimiter from the extension
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}

func (c ReaderConfig) comma(fallback rune) rune {
	switch c.Delimiter {
	case "":
		return fallback
	case `\t`, "tab":
		return '\t'
	default:
		return []rune(c.Delimiter)[0]
	}
}
