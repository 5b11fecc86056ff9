package types

import (
	"encoding/json"
	"testing"
)

func TestItemsNeverNull(t *testing.T) {
	var empty []string
	body, err := json.Marshal(SuccessEnvelope{Data: Items(empty)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"data":{"items":[]}}` {
		t.Fatalf("unexpected body %s", body)
	}
}
