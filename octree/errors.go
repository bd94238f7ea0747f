package octree

// Error types attached to the errors returned by this module. Check them
// with errors.IsType from github.com/aukilabs/go-tooling/pkg/errors.
const (
	ErrTypeConfig    = "svon_config"
	ErrTypeOracle    = "svon_oracle"
	ErrTypeInvariant = "svon_invariant"
	ErrTypeFormat    = "svon_format"
)
