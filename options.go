package omnifs

type options struct {
	forceType string
	create    bool
	backend   map[string]string
	config    *SchemeConfig
	logger    *Logger
}

// Option configures FromURL and OpenURL behavior.
type Option func(*options)

// WithForceType overrides scheme detection. forceType is either a backend
// scheme name (which must then match the parsed scheme) or an archive marker
// such as "zip", which opens the URL's leaf file as an archive regardless of
// its suffix.
func WithForceType(forceType string) Option {
	return func(o *options) {
		o.forceType = forceType
	}
}

// WithCreate requests backend-side creation of the target path if it does
// not exist. Invalid for archive-wrapped targets.
func WithCreate() Option {
	return func(o *options) {
		o.create = true
	}
}

// WithBackendOption forwards a single backend-specific option, e.g.
// WithBackendOption("endpoint", "https://minio.internal:9000") for S3
// compatible stores. Caller-supplied options take precedence over
// custom-scheme configuration defaults.
func WithBackendOption(key, value string) Option {
	return func(o *options) {
		if o.backend == nil {
			o.backend = make(map[string]string)
		}
		o.backend[key] = value
	}
}

// WithBackendOptions forwards a set of backend-specific options.
func WithBackendOptions(opts map[string]string) Option {
	return func(o *options) {
		if o.backend == nil {
			o.backend = make(map[string]string, len(opts))
		}
		for k, v := range opts {
			o.backend[k] = v
		}
	}
}

// WithSchemeConfig sets the custom scheme configuration consulted for
// unknown schemes. If unset, DefaultSchemeConfig is used.
func WithSchemeConfig(cfg *SchemeConfig) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger configures structured logging for resolution and backends.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}
