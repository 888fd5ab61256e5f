package persist

import (
	"errors"
	"testing"

	"plantsense-go/types"
)

func TestLoad_VirginStorage(t *testing.T) {
	a := New(NewMemory())
	one, two, found, err := a.Load()
	if err != nil || found {
		t.Fatalf("found=%v err=%v on virgin storage", found, err)
	}
	if one != (types.ParameterSet{}) || two != (types.ParameterSet{}) {
		t.Fatal("sets must be zero when not found")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	a := New(NewMemory())
	one := types.ParameterSet{FFI: 1, CDC: 63, CDT: 7, SFI: 3, ESI: 0}
	two := types.ParameterSet{FFI: 0, CDC: 1, CDT: 1, SFI: 0, ESI: 7}
	if err := a.Save(one, two); err != nil {
		t.Fatal(err)
	}
	g1, g2, found, err := a.Load()
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if g1 != one || g2 != two {
		t.Fatalf("got %+v %+v", g1, g2)
	}
}

func TestLoad_PartialIsNotFound(t *testing.T) {
	m := NewMemory()
	b, _ := types.DefaultParameterSet().MarshalBinary()
	_ = m.Put(Entry{Key: KeyChipOne, Value: b})
	if _, _, found, _ := New(m).Load(); found {
		t.Fatal("one key present must not count as initialised")
	}
}

func TestLoad_CorruptIsNotFound(t *testing.T) {
	m := NewMemory()
	good, _ := types.DefaultParameterSet().MarshalBinary()
	_ = m.Put(Entry{Key: KeyChipOne, Value: good}, Entry{Key: KeyChipTwo, Value: []byte{9, 9, 9, 9, 9}})
	if _, _, found, err := New(m).Load(); found || err != nil {
		t.Fatalf("found=%v err=%v for out-of-range blob", found, err)
	}
	_ = m.Put(Entry{Key: KeyChipTwo, Value: []byte{3, 18}})
	if _, _, found, _ := New(m).Load(); found {
		t.Fatal("short blob must not count as initialised")
	}
}

func TestClear(t *testing.T) {
	a := New(NewMemory())
	_ = a.Save(types.DefaultParameterSet(), types.DefaultParameterSet())
	if err := a.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, _, found, _ := a.Load(); found {
		t.Fatal("found after Clear")
	}
}

type brokenBackend struct{ Memory }

var errDisk = errors.New("disk gone")

func (*brokenBackend) Get(string) ([]byte, bool, error) { return nil, false, errDisk }
func (*brokenBackend) Put(...Entry) error               { return errDisk }

func TestBackendErrorsAreWrapped(t *testing.T) {
	a := New(&brokenBackend{})
	if _, _, found, err := a.Load(); found || !errors.Is(err, errDisk) {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if err := a.Save(types.ParameterSet{}, types.ParameterSet{}); !errors.Is(err, errDisk) {
		t.Fatalf("err = %v", err)
	}
}

func TestEncodingLayout(t *testing.T) {
	b, _ := types.ParameterSet{FFI: 3, CDC: 18, CDT: 4, SFI: 0, ESI: 2}.MarshalBinary()
	want := []byte{3, 18, 4, 0, 2}
	if string(b) != string(want) {
		t.Fatalf("encoding = %v, want %v", b, want)
	}
}
