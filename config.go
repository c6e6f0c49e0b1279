package argus

// Config carries the knobs of an analysis run.
type Config struct {
	// PTAPolicy is the context-sensitivity policy id for the points-to
	// solver: ci, 1-call, 2-call, 1-obj, 2-obj, 1-type or 2-type.
	PTAPolicy string
	// TaintConfig is the path of a YAML or JSON taint configuration; empty
	// disables the taint plugin.
	TaintConfig string
	// Concurrency bounds the fan-out of independent per-method analyses.
	// The inter-procedural solvers are always single-threaded.
	Concurrency int
}

// NewConfig returns the default configuration: context-insensitive
// points-to, no taint, sequential per-method analyses.
func NewConfig() *Config {
	return &Config{
		PTAPolicy:   "ci",
		Concurrency: 1,
	}
}
