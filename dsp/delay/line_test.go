package delay

import "testing"

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- construction and validation ---

func TestNewValidation(t *testing.T) {
	if _, err := New(-1); err == nil {
		t.Fatal("expected error for size=-1")
	}

	d, err := New(0)
	if err != nil {
		t.Fatalf("size=0: %v", err)
	}
	d.Push(1)
	if len(d.Taps()) != 0 {
		t.Fatalf("Taps() = %v, want empty", d.Taps())
	}
	if d.Read(0) != 0 {
		t.Fatal("Read on empty line must be 0")
	}
}

func TestStartsZeroed(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 4 {
		t.Fatalf("Len: got %d want 4", d.Len())
	}
	if !equalSlices(d.Taps(), []float64{0, 0, 0, 0}) {
		t.Fatalf("Taps() = %v", d.Taps())
	}
}

// --- shifting ---

func TestPushNewestFirst(t *testing.T) {
	d, err := New(3)
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		in   float64
		want []float64
	}{
		{1, []float64{1, 0, 0}},
		{2, []float64{2, 1, 0}},
		{3, []float64{3, 2, 1}},
		{4, []float64{4, 3, 2}},
		{5, []float64{5, 4, 3}},
		{6, []float64{6, 5, 4}},
		{7, []float64{7, 6, 5}},
	}
	for i, st := range steps {
		d.Push(st.in)
		if got := d.Taps(); !equalSlices(got, st.want) {
			t.Fatalf("step %d: Taps() = %v, want %v", i, got, st.want)
		}
	}
}

func TestMatchesNaiveShiftRegister(t *testing.T) {
	const size = 5
	d, err := New(size)
	if err != nil {
		t.Fatal(err)
	}
	naive := make([]float64, size)
	for i := range 23 {
		x := float64(i*i%7) - 3
		copy(naive[1:], naive[:size-1])
		naive[0] = x
		d.Push(x)
		if !equalSlices(d.Taps(), naive) {
			t.Fatalf("step %d: Taps() = %v, want %v", i, d.Taps(), naive)
		}
		for k := range size {
			if d.Read(k) != naive[k] {
				t.Fatalf("step %d: Read(%d) = %v, want %v", i, k, d.Read(k), naive[k])
			}
		}
	}
}

func TestReadOutOfRange(t *testing.T) {
	d, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	d.Push(1)
	if d.Read(-1) != 0 || d.Read(2) != 0 {
		t.Fatal("out-of-range reads must be 0")
	}
}

func TestReset(t *testing.T) {
	d, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	d.Push(1)
	d.Push(2)
	d.Reset()
	if !equalSlices(d.Taps(), []float64{0, 0, 0}) {
		t.Fatalf("Taps() after Reset = %v", d.Taps())
	}
	d.Push(9)
	if !equalSlices(d.Taps(), []float64{9, 0, 0}) {
		t.Fatalf("Taps() = %v", d.Taps())
	}
}
