package lowered

import (
	"testing"

	"github.com/pl0beta/pl0c/pkg/symbols"
)

func TestLoadImmDefinedIncludesDest(t *testing.T) {
	dest := symbols.NewRegister("t1", symbols.Int32)
	stat := NewLoadImm(dest, 42)

	if !stat.Defined().Contains(dest) {
		t.Errorf("LoadImm.Defined() should contain its destination")
	}
	if len(stat.Used()) != 0 {
		t.Errorf("LoadImm.Used() should be empty, got %v", stat.Used())
	}
}

func TestStoreUsesSourceAndRegisterTarget(t *testing.T) {
	src := symbols.NewRegister("t1", symbols.Int32)

	t.Run("named memory target", func(t *testing.T) {
		target := symbols.NewNamed("x", symbols.Int32)
		stat := NewStore(target, src)
		used := stat.Used()
		if len(used) != 1 || !used.Contains(src) {
			t.Errorf("Store to a named target should only use its source register, got %v", used)
		}
		if len(stat.Defined()) != 0 {
			t.Errorf("Store defines no register, got %v", stat.Defined())
		}
	})

	t.Run("computed register target", func(t *testing.T) {
		target := symbols.NewRegister("t2", symbols.Int32)
		stat := NewStore(target, src)
		used := stat.Used()
		if len(used) != 2 || !used.Contains(src) || !used.Contains(target) {
			t.Errorf("Store through a register-held address should use both operands, got %v", used)
		}
	})
}

func TestBinOpUsesBothOperands(t *testing.T) {
	dest := symbols.NewRegister("t3", symbols.Int32)
	left := symbols.NewRegister("t1", symbols.Int32)
	right := symbols.NewRegister("t2", symbols.Int32)
	stat := NewBinOp(dest, OpAdd, left, right)

	used := stat.Used()
	if len(used) != 2 || !used.Contains(left) || !used.Contains(right) {
		t.Errorf("BinOp.Used() = %v, want {left,right}", used)
	}
	if !stat.Defined().Contains(dest) {
		t.Errorf("BinOp.Defined() should contain dest")
	}
}

func TestBranchUsesConditionOnly(t *testing.T) {
	target := &symbols.Symbol{Name: "l1", Type: &symbols.LabelType{}, Level: symbols.NoLevel}
	cond := symbols.NewRegister("t1", symbols.Int32)

	jump := NewJump(target)
	if len(jump.Used()) != 0 {
		t.Errorf("unconditional jump should use nothing, got %v", jump.Used())
	}

	cjump := NewConditionalJump(target, cond, true)
	if !cjump.Used().Contains(cond) {
		t.Errorf("conditional jump should use its condition register")
	}
	if !cjump.Negated {
		t.Errorf("expected Negated to be carried through")
	}
}

func TestCallMarksReturns(t *testing.T) {
	fn := symbols.NewNamed("p", &symbols.FunctionType{})
	call := NewCall(fn)
	if !call.Returns {
		t.Errorf("NewCall should set Returns")
	}
	if call.Target != fn {
		t.Errorf("NewCall should target the function symbol")
	}
}

func TestLabelAttachment(t *testing.T) {
	dest := symbols.NewRegister("t1", symbols.Int32)
	stat := NewLoadImm(dest, 1)
	if stat.Label() != nil {
		t.Errorf("fresh statement should carry no label")
	}
	lab := &symbols.Symbol{Name: "l1", Type: &symbols.LabelType{}, Level: symbols.NoLevel}
	stat.SetLabel(lab)
	if stat.Label() != lab {
		t.Errorf("SetLabel should attach the label")
	}
}

func TestReadDefinesDestOnly(t *testing.T) {
	dest := symbols.NewRegister("t1", symbols.Int32)
	stat := NewRead(dest)
	if !stat.Defined().Contains(dest) {
		t.Errorf("Read should define its destination")
	}
	if len(stat.Used()) != 0 {
		t.Errorf("Read uses nothing, got %v", stat.Used())
	}
}
