package amqp

import (
	"testing"

	"dompet/internal/store"
)

func TestChangeMessageRoundTrip(t *testing.T) {
	msg := NewChangeMessage("u1", store.Goals)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.UserID != "u1" || got.Collection != store.Goals {
		t.Fatalf("unexpected message: %+v", got)
	}
	if !got.Valid() {
		t.Fatal("round-tripped message should be valid")
	}
}

func TestChangeMessageValid(t *testing.T) {
	cases := []struct {
		msg  ChangeMessage
		want bool
	}{
		{ChangeMessage{UserID: "u1", Collection: store.Transactions}, true},
		{ChangeMessage{UserID: "u1", Collection: store.Debts}, true},
		{ChangeMessage{UserID: "", Collection: store.Goals}, false},
		{ChangeMessage{UserID: "u1", Collection: "settings"}, false},
	}
	for i, tc := range cases {
		if got := tc.msg.Valid(); got != tc.want {
			t.Fatalf("case %d: Valid() = %v, want %v", i, got, tc.want)
		}
	}
}

func TestChangeMessageFromJSONMalformed(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
