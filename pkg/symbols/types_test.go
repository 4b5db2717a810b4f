package symbols

import "testing"

func TestIntTypeByteSize(t *testing.T) {
	tests := []struct {
		name string
		typ  *IntType
		want int
	}{
		{"int8", Int8, 1},
		{"int16", Int16, 2},
		{"int32", Int32, 4},
		{"uint8", UInt8, 1},
		{"uint32", UInt32, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.ByteSize(); got != tt.want {
				t.Errorf("ByteSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArrayTypeSize(t *testing.T) {
	tests := []struct {
		name string
		typ  *ArrayType
		size int
		elems int
	}{
		{"1d char", &ArrayType{Dims: []int{5}, Element: UInt8}, 40, 5},
		{"2d short", &ArrayType{Dims: []int{5, 5}, Element: Int16}, 400, 25},
		{"3d int32", &ArrayType{Dims: []int{2, 3, 4}, Element: Int32}, 768, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
			if got := tt.typ.ElementCount(); got != tt.elems {
				t.Errorf("ElementCount() = %d, want %d", got, tt.elems)
			}
		})
	}
}

func TestWiderOf(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Type
		want   Type
	}{
		{"both signed, widen to 32", Int8, Int32, Int32},
		{"both unsigned, widen to 16", UInt8, UInt16, UInt16},
		{"mixed signedness stays signed", UInt32, Int8, Int32},
		{"equal widths signed", Int16, Int16, Int16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WiderOf(tt.a, tt.b); got != tt.want {
				t.Errorf("WiderOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointerType(t *testing.T) {
	p := &PointerType{Pointee: Int32}
	if p.Size() != 32 || p.ByteSize() != 4 {
		t.Errorf("pointer size = %d/%d, want 32/4", p.Size(), p.ByteSize())
	}
}
