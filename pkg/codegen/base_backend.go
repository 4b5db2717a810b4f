package codegen

// BaseBackend holds the options and feature flags common to every backend.
// A real backend embeds it and overrides SupportsFeature only where its
// defaults don't fit.
type BaseBackend struct {
	options  *BackendOptions
	features map[string]bool
}

// NewBaseBackend creates a BaseBackend with this compiler's baseline
// feature set: a 32-bit pointer target with indirect (register-target)
// calls, no hardware multiply/divide assumed until a specific backend
// turns them on.
func NewBaseBackend(options *BackendOptions) BaseBackend {
	return BaseBackend{
		options: options,
		features: map[string]bool{
			FeatureIndirectCalls:    true,
			Feature32BitPointers:    true,
			FeatureHardwareMultiply: false,
			FeatureHardwareDivide:   false,
		},
	}
}

// GetOptions returns the backend options this instance was constructed
// with.
func (b *BaseBackend) GetOptions() *BackendOptions {
	return b.options
}

// SetFeature sets a feature support flag.
func (b *BaseBackend) SetFeature(feature string, supported bool) {
	b.features[feature] = supported
}

// CheckFeature reports whether a feature is supported.
func (b *BaseBackend) CheckFeature(feature string) bool {
	return b.features[feature]
}
