package log

import (
	"errors"
	"testing"
)

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentLedger).
		WithUser("u1").
		WithCollection("transactions").
		WithTransaction("tx-1", "Gaji", 1000000)

	want := map[string]any{
		FieldComponent:     ComponentLedger,
		FieldUserID:        "u1",
		FieldCollection:    "transactions",
		FieldTransactionID: "tx-1",
		FieldCategory:      "Gaji",
		FieldAmountRupiah:  int64(1000000),
	}
	if len(f) != len(want) {
		t.Fatalf("expected %d fields, got %d: %v", len(want), len(f), f)
	}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("field %s = %v, want %v", k, f[k], v)
		}
	}
}

func TestLogFieldsWithErrorNil(t *testing.T) {
	f := NewFields().WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Error("nil error must not add an error field")
	}

	f = f.WithError(errors.New("dial failed"))
	if f[FieldError] != "dial failed" {
		t.Errorf("error field = %v, want dial failed", f[FieldError])
	}
}

func TestLogFieldsToSlice(t *testing.T) {
	f := NewFields().WithUser("u1")
	s := f.ToSlice()
	if len(s) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(s))
	}
	if s[0] != FieldUserID || s[1] != "u1" {
		t.Errorf("unexpected slice %v", s)
	}
}
