package canopy

import "testing"

func TestDispatch_Order(t *testing.T) {
	log := &hookLog{}
	machine := newTestMachine(t, log)

	_ = machine.Start("device")
	_ = machine.Transition("device", "on")
	_ = machine.Transition("on", "lamp")
	_ = machine.Transition("lamp", "beam")
	_ = machine.Transition("on", "blink")
	log.entries = nil

	result := machine.Dispatch("tick", nil)
	if !result.Success() {
		t.Fatalf("Expected dispatch to succeed, got: %v", result.Error)
	}

	AssertHookLog(t, log,
		"event:beam:tick", "event:lamp:tick", "event:blink:tick",
		"event:on:tick", "event:device:tick")
	expected := []StateType{"beam", "lamp", "blink", "on", "device"}
	if len(result.Delivered) != len(expected) {
		t.Fatalf("Expected delivery to %v, got %v", expected, result.Delivered)
	}
	for i := range expected {
		if result.Delivered[i] != expected[i] {
			t.Fatalf("Expected delivery %v, got %v", expected, result.Delivered)
		}
	}
}

func TestDispatch_NotRunning(t *testing.T) {
	machine := newTestMachine(t, &hookLog{})

	result := machine.Dispatch("tick", nil)
	if result.Success() {
		t.Fatal("Expected dispatch to fail on a machine with no active states")
	}
	AssertErrorCode(t, result.Error, ErrCodeNotRunning)
}

func TestDispatch_EventData(t *testing.T) {
	var seen any
	h := NewHierarchy().Root("device", func(ctx Context) State {
		return &FuncState{
			OnEvent: func(ctx Context, event Event) {
				seen = event.GetData()
			},
		}
	})
	machine, err := NewMachine(h, "shared")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_ = machine.Start("device")
	machine.Dispatch("set-brightness", 70)

	if seen != 70 {
		t.Errorf("Expected handler to receive event data 70, got %v", seen)
	}
}

func TestDispatch_SkipsStatesRemovedMidPass(t *testing.T) {
	// beam is visited first and its handler switches lamp to blink, so the
	// snapshot entry for lamp refers to a node that has already exited.
	log := &hookLog{}
	h := NewHierarchy().
		Root("device", loggingFactory("device", log)).
		Child("on", "device", loggingFactory("on", log)).
		Child("lamp", "on", loggingFactory("lamp", log)).
		Child("beam", "lamp", func(ctx Context) State {
			return &FuncState{
				OnExit: func(ctx Context) { log.add("exit:beam") },
				OnEvent: func(ctx Context, event Event) {
					log.add("event:beam:%s", event.GetName())
					if err := ctx.GetMachine().Transition("lamp", "blink"); err != nil {
						t.Errorf("Expected no error switching to blink, got: %v", err)
					}
				},
			}
		}).
		Child("blink", "on", loggingFactory("blink", log))

	machine, err := NewMachine(h, log)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	observer := NewRecordingObserver()
	machine.AddObserver(observer)

	_ = machine.Start("device")
	_ = machine.Transition("device", "on")
	_ = machine.Transition("on", "lamp")
	_ = machine.Transition("lamp", "beam")
	log.entries = nil

	result := machine.Dispatch("tick", nil)
	if !result.Success() {
		t.Fatalf("Expected dispatch to succeed, got: %v", result.Error)
	}

	// beam's handler exits the lamp branch and enters blink. lamp was in
	// the snapshot but is gone, so it is skipped; the freshly entered blink
	// was not in the snapshot and receives nothing.
	AssertHookLog(t, log,
		"event:beam:tick", "exit:beam", "exit:lamp", "enter:blink",
		"event:on:tick", "event:device:tick")
	if len(result.Skipped) != 1 || result.Skipped[0] != "lamp" {
		t.Fatalf("Expected lamp to be skipped, got %v", result.Skipped)
	}
	if len(observer.Skipped) != 1 || observer.Skipped[0] != "lamp" {
		t.Fatalf("Expected skip notification for lamp, got %v", observer.Skipped)
	}
}

func TestDispatch_NoIntermediateStateVisibleAfterRecursiveEnter(t *testing.T) {
	// A dispatch made after a recursive multi-enter transition sees the
	// final tree only.
	log := &hookLog{}
	h := NewHierarchy().
		Root("device", loggingFactory("device", log)).
		Child("on", "device", func(ctx Context) State {
			return &FuncState{
				OnEnter: func(ctx Context) {
					machine := ctx.GetMachine()
					_ = machine.Transition("on", "lamp")
					_ = machine.Transition("on", "blink")
				},
				OnEvent: func(ctx Context, event Event) {
					log.add("event:on:%s", event.GetName())
				},
			}
		}).
		Child("lamp", "on", loggingFactory("lamp", log)).
		Child("blink", "on", loggingFactory("blink", log))

	machine, err := NewMachine(h, log)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_ = machine.Start("device")
	_ = machine.Transition("device", "on")
	log.entries = nil

	result := machine.Dispatch("tick", nil)
	if !result.Success() {
		t.Fatalf("Expected dispatch to succeed, got: %v", result.Error)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("Expected no skipped states, got %v", result.Skipped)
	}
	AssertHookLog(t, log,
		"event:lamp:tick", "event:blink:tick", "event:on:tick", "event:device:tick")
}

func TestDispatch_CurrentEventRestored(t *testing.T) {
	// A handler that dispatches a nested event must see the outer event
	// restored afterwards.
	var during, after string
	h := NewHierarchy().
		Root("device", nil).
		Child("on", "device", func(ctx Context) State {
			return &FuncState{
				OnEvent: func(ctx Context, event Event) {
					if event.GetName() == "outer" {
						ctx.GetMachine().Dispatch("inner", nil)
						during = ctx.GetEventName()
					}
				},
			}
		})
	machine, err := NewMachine(h, "shared")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_ = machine.Start("device")
	_ = machine.Transition("device", "on")
	machine.Dispatch("outer", nil)
	after = machine.Context().GetEventName()

	if during != "outer" {
		t.Errorf("Expected outer event restored after nested dispatch, got %q", during)
	}
	if after != "" {
		t.Errorf("Expected no current event after dispatch, got %q", after)
	}
}

func TestDispatch_EventMetadataAndID(t *testing.T) {
	event := NewEventWithMetadata("tick", nil, map[string]any{"origin": "timer"})

	if event.GetID() == "" {
		t.Error("Expected event to carry a generated ID")
	}
	if event.GetMetadata()["origin"] != "timer" {
		t.Error("Expected metadata to round-trip")
	}
	if event.GetTimestamp().IsZero() {
		t.Error("Expected event timestamp to be set")
	}
}
