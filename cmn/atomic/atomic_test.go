package atomic_test

import (
	"testing"

	"github.com/chwellgo/netcore/cmn/atomic"
)

func TestBool(t *testing.T) {
	var b atomic.Bool
	if b.Load() {
		t.Fatal("zero value should be false")
	}
	b.Store(true)
	if !b.Load() {
		t.Fatal("Store(true) did not take")
	}
	if b.CAS(false, true) {
		t.Fatal("CAS(false, true) should fail when current value is true")
	}
	if !b.CAS(true, false) {
		t.Fatal("CAS(true, false) should succeed when current value is true")
	}
	if b.Load() {
		t.Fatal("CAS(true, false) did not take")
	}
}

func TestInt64(t *testing.T) {
	var i atomic.Int64
	if i.Add(5) != 5 {
		t.Fatal("Add(5) from zero should return 5")
	}
	i.Store(10)
	if i.Load() != 10 {
		t.Fatal("Store(10) did not take")
	}
}

func TestUint32(t *testing.T) {
	var u atomic.Uint32
	if u.Add(3) != 3 {
		t.Fatal("Add(3) from zero should return 3")
	}
	u.Store(7)
	if u.Load() != 7 {
		t.Fatal("Store(7) did not take")
	}
}

func TestInt32(t *testing.T) {
	var i atomic.Int32
	if i.Add(-2) != -2 {
		t.Fatal("Add(-2) from zero should return -2")
	}
	i.Store(4)
	if i.Load() != 4 {
		t.Fatal("Store(4) did not take")
	}
}
