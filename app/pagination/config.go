package pagination

// Config holds pagination settings.
type Config struct {
	PerPage int
}

// DefaultConfig returns the default pagination configuration.
func DefaultConfig() Config {
	return Config{PerPage: DefaultPerPage}
}

// Normalized replaces a non-positive page size with the default.
func (c Config) Normalized() Config {
	if c.PerPage < 1 {
		c.PerPage = DefaultPerPage
	}
	return c
}
