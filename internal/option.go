package internal

// Mode selects which components Run starts.
type Mode int

const (
	// ModeRun connects to the watch and serves HTTP.
	ModeRun Mode = iota
	// ModeServe serves HTTP over the stored records without a watch.
	ModeServe
	// ModeMCP serves MCP over stdio without a watch.
	ModeMCP
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   Mode
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets which components are started. The default is ModeRun.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}
