package trigger

import "testing"

func TestHandle_SkipsSentinel(t *testing.T) {
	fired := false
	d := New(func(id uint32) { fired = true })
	d.Handle(Sentinel)
	if fired {
		t.Fatal("Handle(Sentinel) invoked the callback")
	}
}

func TestHandle_DedupesRepeatedID(t *testing.T) {
	var calls []uint32
	d := New(func(id uint32) { calls = append(calls, id) })

	d.Handle(5)
	d.Handle(5)
	d.Handle(5)

	if len(calls) != 1 || calls[0] != 5 {
		t.Fatalf("calls = %v, want a single call with id 5", calls)
	}
}

func TestHandle_FiresOnChange(t *testing.T) {
	var calls []uint32
	d := New(func(id uint32) { calls = append(calls, id) })

	d.Handle(1)
	d.Handle(2)
	d.Handle(2)
	d.Handle(3)

	want := []uint32{1, 2, 3}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestReset_AllowsRefiringSameID(t *testing.T) {
	var calls []uint32
	d := New(func(id uint32) { calls = append(calls, id) })

	d.Handle(7)
	d.Reset()
	d.Handle(7)

	if len(calls) != 2 {
		t.Fatalf("calls = %v, want two calls after Reset", calls)
	}
}

func TestHandle_NilCallback(t *testing.T) {
	d := New(nil)
	d.Handle(1) // must not panic
}
