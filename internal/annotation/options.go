package annotation

import "github.com/dshills/annomodel/internal/logging"

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report dropped annotations and
// connection changes at debug level.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithName names the registry in log output.
func WithName(name string) Option {
	return func(r *Registry) {
		r.name = name
	}
}
