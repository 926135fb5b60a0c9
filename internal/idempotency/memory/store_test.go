package memory_test

import (
	"context"
	"testing"

	"github.com/ovenlight/checkout/internal/idempotency/memory"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key returns nil", func(t *testing.T) {
		store := memory.NewStore()

		resp, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if resp != nil {
			t.Errorf("expected nil response, got %+v", resp)
		}
	})

	t.Run("save then get round-trips", func(t *testing.T) {
		store := memory.NewStore()

		saved := ports.StoredResponse{StatusCode: 201, Body: []byte(`{"id":"ord_1"}`), OrderID: "ord_1"}
		if err := store.Save(ctx, "key_1", saved); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}

		resp, err := store.Get(ctx, "key_1")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if resp == nil {
			t.Fatal("expected stored response")
		}
		if resp.StatusCode != 201 || resp.OrderID != "ord_1" || string(resp.Body) != `{"id":"ord_1"}` {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("first write wins", func(t *testing.T) {
		store := memory.NewStore()

		_ = store.Save(ctx, "key_1", ports.StoredResponse{StatusCode: 201, OrderID: "ord_1"})
		if err := store.Save(ctx, "key_1", ports.StoredResponse{StatusCode: 500, OrderID: "ord_2"}); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}

		resp, _ := store.Get(ctx, "key_1")
		if resp.OrderID != "ord_1" {
			t.Errorf("expected first write to win, got %+v", resp)
		}
	})
}
