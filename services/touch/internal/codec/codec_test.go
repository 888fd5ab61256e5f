package codec

import (
	"testing"

	"plantsense-go/types"
	"plantsense-go/x/mathx"
)

func TestPackConfig1_Exhaustive(t *testing.T) {
	for cdc := uint8(0); cdc <= 63; cdc++ {
		for ffi := uint8(0); ffi <= 3; ffi++ {
			v := PackConfig1(cdc, ffi)
			if v != ffi<<6|cdc {
				t.Fatalf("PackConfig1(%d,%d) = %#02x", cdc, ffi, v)
			}
			if v>>6 != ffi || v&0x3F != cdc {
				t.Fatalf("PackConfig1(%d,%d) = %#02x: fields not in place", cdc, ffi, v)
			}
			if c, f := UnpackConfig1(v); c != cdc || f != ffi {
				t.Fatalf("UnpackConfig1(%#02x) = %d,%d", v, c, f)
			}
		}
	}
}

func TestPackConfig2_Exhaustive(t *testing.T) {
	for esi := uint8(0); esi <= 7; esi++ {
		for sfi := uint8(0); sfi <= 3; sfi++ {
			for cdt := uint8(0); cdt <= 7; cdt++ {
				v := PackConfig2(esi, sfi, cdt)
				if v&0x07 != esi || (v>>3)&0x03 != sfi || v>>5 != cdt {
					t.Fatalf("PackConfig2(%d,%d,%d) = %#02x", esi, sfi, cdt, v)
				}
			}
		}
	}
}

func TestRuleClampIdempotent(t *testing.T) {
	for v := 0; v <= 255; v++ {
		for _, r := range rules {
			once := mathx.Clamp(uint8(v), r.Min, r.Max)
			if once < r.Min || once > r.Max {
				t.Fatalf("Clamp(%d,%d,%d) = %d out of range", v, r.Min, r.Max, once)
			}
			if twice := mathx.Clamp(once, r.Min, r.Max); twice != once {
				t.Fatalf("Clamp not idempotent for %d in [%d,%d]", v, r.Min, r.Max)
			}
			if uint8(v) >= r.Min && uint8(v) <= r.Max && once != uint8(v) {
				t.Fatalf("Clamp changed in-range value %d", v)
			}
		}
	}
}

func TestRuleTable(t *testing.T) {
	want := map[types.ConfigField]Rule{
		types.FieldFFI: {0, 3, Config1},
		types.FieldCDC: {1, 63, Config1},
		types.FieldCDT: {1, 7, Config2},
		types.FieldSFI: {0, 3, Config2},
		types.FieldESI: {0, 7, Config2},
	}
	for f, w := range want {
		got, ok := RuleFor(f)
		if !ok || got != w {
			t.Fatalf("RuleFor(%v) = %+v, %v; want %+v", f, got, ok, w)
		}
	}
	if _, ok := RuleFor(types.ConfigField(9)); ok {
		t.Fatal("RuleFor accepted an unknown field")
	}
}

func TestApply_ClampsAndKeepsSiblings(t *testing.T) {
	p := types.DefaultParameterSet()

	next, reg, val, ok := Apply(p, types.FieldFFI, 255)
	if !ok || reg != Config1 {
		t.Fatalf("Apply FFI: ok=%v reg=%v", ok, reg)
	}
	if next.FFI != 3 || next.CDC != p.CDC || next.CDT != p.CDT || next.SFI != p.SFI || next.ESI != p.ESI {
		t.Fatalf("Apply FFI=255 -> %+v", next)
	}
	if val != PackConfig1(p.CDC, 3) {
		t.Fatalf("packed = %#02x", val)
	}

	next, reg, _, _ = Apply(p, types.FieldCDC, 0)
	if next.CDC != 1 || reg != Config1 {
		t.Fatalf("Apply CDC=0 -> %+v (%v)", next, reg)
	}

	next, reg, val, _ = Apply(p, types.FieldSFI, 2)
	if reg != Config2 || val != PackConfig2(p.ESI, 2, p.CDT) || next.SFI != 2 {
		t.Fatalf("Apply SFI=2 -> %+v reg=%v val=%#02x", next, reg, val)
	}

	if same, _, _, ok := Apply(p, types.ConfigField(42), 1); ok || same != p {
		t.Fatal("unknown field must be a no-op")
	}
}

func TestRegisters_Defaults(t *testing.T) {
	c1, c2 := Registers(types.DefaultParameterSet())
	if c1 != 0xD2 || c2 != 0x82 {
		t.Fatalf("defaults pack to %#02x/%#02x, want 0xd2/0x82", c1, c2)
	}
	if got := Unpack(c1, c2); got != types.DefaultParameterSet() {
		t.Fatalf("Unpack = %+v", got)
	}
}
