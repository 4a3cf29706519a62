package canopy

import (
	"context"
	"testing"
	"time"
)

func TestContext_ScratchData(t *testing.T) {
	machine := newTestMachine(t, &hookLog{})
	ctx := machine.Context()

	ctx.Set("retries", 3)
	value, exists := ctx.Get("retries")
	if !exists || value != 3 {
		t.Fatalf("Expected retries=3, got %v (%v)", value, exists)
	}

	if _, exists := ctx.Get("missing"); exists {
		t.Error("Expected missing key to not exist")
	}

	all := ctx.GetAll()
	if len(all) != 1 || all["retries"] != 3 {
		t.Fatalf("Expected copy with retries=3, got %v", all)
	}
	all["retries"] = 99
	if value, _ := ctx.Get("retries"); value != 3 {
		t.Error("Expected GetAll to return a copy")
	}
}

func TestContext_Machine(t *testing.T) {
	machine := newTestMachine(t, &hookLog{})

	if machine.Context().GetMachine() != machine {
		t.Error("Expected context to reference its machine")
	}
}

func TestContext_Shared(t *testing.T) {
	shared := map[string]int{"brightness": 70}
	machine, err := NewMachine(newTestHierarchy(&hookLog{}), shared)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, ok := machine.Context().Shared().(map[string]int)
	if !ok || got["brightness"] != 70 {
		t.Fatalf("Expected shared value to round-trip, got %v", got)
	}
}

func TestContext_EmbedsParentContext(t *testing.T) {
	parent, cancel := context.WithDeadline(context.Background(), time.Now().Add(time.Hour))
	defer cancel()

	machine, err := NewMachineWithContext(parent, newTestHierarchy(&hookLog{}), "shared")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, ok := machine.Context().Deadline(); !ok {
		t.Error("Expected deadline from parent context")
	}
}

func TestContext_EventAccessors(t *testing.T) {
	var name string
	var data any
	h := NewHierarchy().Root("device", func(ctx Context) State {
		return &FuncState{
			OnEvent: func(ctx Context, event Event) {
				name = ctx.GetEventName()
				data = ctx.GetEventData()
			},
		}
	})
	machine, err := NewMachine(h, "shared")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_ = machine.Start("device")

	if machine.Context().GetCurrentEvent() != nil {
		t.Error("Expected no current event outside dispatch")
	}
	if machine.Context().GetEventName() != "" || machine.Context().GetEventData() != nil {
		t.Error("Expected empty accessors outside dispatch")
	}

	machine.Dispatch("set-brightness", 40)
	if name != "set-brightness" || data != 40 {
		t.Errorf("Expected handler to see set-brightness/40, got %s/%v", name, data)
	}
}
