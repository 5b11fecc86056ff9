package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

type memberPatch struct {
	MemberUserID Nullable[uuid.UUID] `json:"member_user_id"`
	Reason       Nullable[string]    `json:"reason"`
}

func TestNullableDistinguishesAbsentFromNull(t *testing.T) {
	cases := []struct {
		body    string
		set     bool
		cleared bool
	}{
		{`{}`, false, false},
		{`{"member_user_id": null}`, true, true},
		{`{"member_user_id": "00000000-0000-0000-0000-000000000001"}`, true, false},
	}
	for _, tc := range cases {
		var got memberPatch
		if err := json.Unmarshal([]byte(tc.body), &got); err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if got.MemberUserID.Set != tc.set || got.MemberUserID.Cleared() != tc.cleared {
			t.Fatalf("%s: got set=%v cleared=%v", tc.body, got.MemberUserID.Set, got.MemberUserID.Cleared())
		}
		if got.Reason.Set {
			t.Fatalf("%s: reason should stay absent", tc.body)
		}
	}
}

func TestNullableRejectsWrongType(t *testing.T) {
	var got memberPatch
	if err := json.Unmarshal([]byte(`{"member_user_id": "nope"}`), &got); err == nil {
		t.Fatal("expected malformed uuid to fail")
	}
	if err := json.Unmarshal([]byte(`{"reason": 5}`), &got); err == nil {
		t.Fatal("expected a number to fail for a string field")
	}
}

func TestNullableMarshal(t *testing.T) {
	reason := "late"
	out, err := json.Marshal(memberPatch{Reason: Nullable[string]{Set: true, Value: &reason}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"member_user_id":null,"reason":"late"}` {
		t.Fatalf("unexpected json %s", out)
	}
}
