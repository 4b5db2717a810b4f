package codegen

func init() {
	RegisterBackend("arm", func(options *BackendOptions) Backend {
		b := &ARMBackend{BaseBackend: NewBaseBackend(options)}
		b.SetFeature(FeatureHardwareMultiply, true)
		b.SetFeature(FeatureHardwareDivide, true)
		return b
	})
}

// ARMBackend emits ARM32 assembly text.
type ARMBackend struct {
	BaseBackend
}

func (b *ARMBackend) Name() string { return "arm" }

func (b *ARMBackend) Generate(prog *Program) (string, error) {
	return NewGenerator(prog).Generate(), nil
}

func (b *ARMBackend) GetFileExtension() string { return ".s" }

func (b *ARMBackend) SupportsFeature(feature string) bool {
	return b.CheckFeature(feature)
}
