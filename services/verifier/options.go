package verifier

type Option func(*Verifier)

// WithMaxHeaders bounds the number of headers in a single batch. Zero disables the bound.
func WithMaxHeaders(n int) Option {
	return func(v *Verifier) {
		v.maxHeaders = n
	}
}

// WithBoundaryParentOnly only accepts retargeting batches whose parent is the
// last header of its epoch.
func WithBoundaryParentOnly() Option {
	return func(v *Verifier) {
		v.boundaryParentOnly = true
	}
}
