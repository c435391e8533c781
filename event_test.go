package cuboid

import (
	"testing"

	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// createTestBody creates a minimal movable RigidBody for event testing
func createTestBody(isSleeping bool) *actor.RigidBody {
	rb := actor.NewRigidBody()
	rb.CalculateDerivedData()
	rb.SetAwake(!isSleeping)

	return rb
}

// createTestContacts creates one contact per pair of bodies
func createTestContacts(bodies ...*actor.RigidBody) []constraint.Contact {
	contacts := make([]constraint.Contact, 0, len(bodies)/2)
	for i := 0; i+1 < len(bodies); i += 2 {
		c := constraint.Contact{Normal: mgl64.Vec3{1, 0, 0}, Penetration: 0.1}
		c.SetBodyData(bodies[i], bodies[i+1], 0, 0)
		contacts = append(contacts, c)
	}

	return contacts
}

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	for _, e := range ec.events {
		if e.Type() == eventType {
			return true
		}
	}
	return false
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_Subscribe(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}

	events.Subscribe(COLLISION_ENTER, capture.capture)

	if len(events.listeners[COLLISION_ENTER]) != 1 {
		t.Errorf("Expected 1 listener for COLLISION_ENTER, got %d", len(events.listeners[COLLISION_ENTER]))
	}
}

func TestEvents_MultipleListeners(t *testing.T) {
	events := NewEvents()
	captures := []*eventCapture{{}, {}, {}}

	for _, c := range captures {
		events.Subscribe(COLLISION_ENTER, c.capture)
	}

	events.recordContacts(createTestContacts(createTestBody(false), createTestBody(false)))
	events.flush()

	for i, c := range captures {
		if c.count() != 1 {
			t.Errorf("capture %d expected 1 event, got %d", i, c.count())
		}
	}
}

func TestEvents_DifferentEventTypes(t *testing.T) {
	events := NewEvents()
	captureCollision := &eventCapture{}
	captureSleep := &eventCapture{}

	events.Subscribe(COLLISION_ENTER, captureCollision.capture)
	events.Subscribe(ON_SLEEP, captureSleep.capture)

	events.recordContacts(createTestContacts(createTestBody(false), createTestBody(false)))
	events.flush()

	if captureCollision.count() != 1 {
		t.Errorf("Collision capture expected 1 event, got %d", captureCollision.count())
	}
	if captureSleep.count() != 0 {
		t.Errorf("Sleep capture expected 0 events, got %d", captureSleep.count())
	}
}

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{COLLISION_ENTER, "collision_enter"},
		{COLLISION_STAY, "collision_stay"},
		{COLLISION_EXIT, "collision_exit"},
		{ON_SLEEP, "sleep"},
		{ON_WAKE, "wake"},
		{EventType(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// makePairKey Tests
// =============================================================================

func TestMakePairKey_Normalization(t *testing.T) {
	bodyA := createTestBody(false)
	bodyB := createTestBody(false)

	if makePairKey(bodyA, bodyB) != makePairKey(bodyB, bodyA) {
		t.Error("makePairKey should normalize pairs to consistent ordering")
	}
}

func TestMakePairKey_DifferentPairs(t *testing.T) {
	bodyA := createTestBody(false)
	bodyB := createTestBody(false)
	bodyC := createTestBody(false)

	if makePairKey(bodyA, bodyB) == makePairKey(bodyA, bodyC) {
		t.Error("makePairKey should produce different keys for different pairs")
	}
}

func TestMakePairKey_WorldContact(t *testing.T) {
	body := createTestBody(false)

	pair := makePairKey(body, nil)
	if pair.bodyA != nil || pair.bodyB != body {
		t.Errorf("world pair = %+v, want the nil body first", pair)
	}
	if pair != makePairKey(nil, body) {
		t.Error("makePairKey should normalize world contacts")
	}
}

// =============================================================================
// Collision Events Tests
// =============================================================================

func TestEvents_CollisionEnter(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_ENTER, capture.capture)

	bodyA := createTestBody(false)
	bodyB := createTestBody(false)

	events.recordContacts(createTestContacts(bodyA, bodyB))
	events.flush()

	if capture.count() != 1 {
		t.Fatalf("Expected 1 event, got %d", capture.count())
	}

	event := capture.events[0].(CollisionEnterEvent)
	if makePairKey(event.BodyA, event.BodyB) != makePairKey(bodyA, bodyB) {
		t.Error("CollisionEnterEvent should carry both bodies")
	}
}

func TestEvents_CollisionEnter_OncePerPair(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_ENTER, capture.capture)

	bodyA := createTestBody(false)
	bodyB := createTestBody(false)

	// Two contacts for the same pair, in both orders
	contacts := append(createTestContacts(bodyA, bodyB), createTestContacts(bodyB, bodyA)...)
	events.recordContacts(contacts)
	events.flush()

	if capture.count() != 1 {
		t.Errorf("Expected 1 COLLISION_ENTER for one pair, got %d", capture.count())
	}
}

func TestEvents_CollisionStay(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_STAY, capture.capture)

	contacts := createTestContacts(createTestBody(false), createTestBody(false))

	// Frame 1: Enter (should not trigger STAY)
	events.recordContacts(contacts)
	events.flush()

	if capture.hasEventType(COLLISION_STAY) {
		t.Error("COLLISION_STAY should not occur on first frame")
	}

	// Frame 2: Stay
	events.recordContacts(contacts)
	events.flush()

	if !capture.hasEventType(COLLISION_STAY) {
		t.Error("Expected COLLISION_STAY event on second frame")
	}
}

func TestEvents_CollisionExit(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_EXIT, capture.capture)

	events.recordContacts(createTestContacts(createTestBody(false), createTestBody(false)))
	events.flush()

	// Frame 2: no contact
	events.recordContacts(nil)
	events.flush()

	if !capture.hasEventType(COLLISION_EXIT) {
		t.Error("Expected COLLISION_EXIT event")
	}
}

func TestEvents_CollisionStay_RestingPairs(t *testing.T) {
	floor := actor.NewRigidBody()
	floor.SetInverseMass(0)

	tests := []struct {
		name     string
		bodyA    *actor.RigidBody
		bodyB    *actor.RigidBody
		wantStay bool
	}{
		{name: "both sleeping", bodyA: createTestBody(true), bodyB: createTestBody(true), wantStay: false},
		{name: "sleeping on immovable", bodyA: createTestBody(true), bodyB: floor, wantStay: false},
		{name: "sleeping against the world", bodyA: createTestBody(true), bodyB: nil, wantStay: false},
		{name: "awake on immovable", bodyA: createTestBody(false), bodyB: floor, wantStay: true},
		{name: "one awake", bodyA: createTestBody(false), bodyB: createTestBody(true), wantStay: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := NewEvents()
			capture := &eventCapture{}
			events.Subscribe(COLLISION_STAY, capture.capture)

			contacts := createTestContacts(tt.bodyA, tt.bodyB)
			events.recordContacts(contacts)
			events.flush()
			events.recordContacts(contacts)
			events.flush()

			if capture.hasEventType(COLLISION_STAY) != tt.wantStay {
				t.Errorf("COLLISION_STAY received = %v, want %v", capture.hasEventType(COLLISION_STAY), tt.wantStay)
			}
		})
	}
}

// =============================================================================
// Sleep/Wake Events Tests
// =============================================================================

func TestEvents_OnSleep(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_SLEEP, capture.capture)

	body := createTestBody(false)
	bodies := []*actor.RigidBody{body}

	// Frame 1: Initialize state
	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events on initialization, got %d", capture.count())
	}

	// Frame 2: Body goes to sleep
	body.SetAwake(false)
	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 1 {
		t.Fatalf("Expected 1 event, got %d", capture.count())
	}
	if event := capture.events[0].(SleepEvent); event.Body != body {
		t.Error("SleepEvent should contain the correct body")
	}
}

func TestEvents_OnWake(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_WAKE, capture.capture)

	body := createTestBody(true)
	bodies := []*actor.RigidBody{body}

	events.processSleepEvents(bodies)
	events.flush()

	body.AddForce(mgl64.Vec3{0, 1, 0})
	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 1 {
		t.Fatalf("Expected 1 event, got %d", capture.count())
	}
	if event := capture.events[0].(WakeEvent); event.Body != body {
		t.Error("WakeEvent should contain the correct body")
	}
}

func TestEvents_NoSleepEvent_Unchanged(t *testing.T) {
	tests := []struct {
		name     string
		sleeping bool
	}{
		{name: "already sleeping", sleeping: true},
		{name: "already awake", sleeping: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := NewEvents()
			capture := &eventCapture{}
			events.Subscribe(ON_SLEEP, capture.capture)
			events.Subscribe(ON_WAKE, capture.capture)

			bodies := []*actor.RigidBody{createTestBody(tt.sleeping)}
			for range 3 {
				events.processSleepEvents(bodies)
				events.flush()
			}

			if capture.count() != 0 {
				t.Errorf("Expected no events, got %d", capture.count())
			}
		})
	}
}

func TestEvents_ImmovableBodiesNotTracked(t *testing.T) {
	events := NewEvents()

	floor := actor.NewRigidBody()
	floor.SetInverseMass(0)
	events.processSleepEvents([]*actor.RigidBody{floor})

	if _, ok := events.sleepStates[floor]; ok {
		t.Error("immovable body should not be tracked")
	}
}

// =============================================================================
// Buffer and Lifecycle Tests
// =============================================================================

func TestEvents_Flush_ClearsBuffer(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_ENTER, capture.capture)

	events.recordContacts(createTestContacts(createTestBody(false), createTestBody(false)))
	events.flush()

	if len(events.buffer) != 0 {
		t.Errorf("Expected buffer to be empty after flush, got %d events", len(events.buffer))
	}
	if capture.count() != 1 {
		t.Errorf("Expected 1 event received, got %d", capture.count())
	}
}

func TestEvents_NoListeners(t *testing.T) {
	events := NewEvents()

	events.flush()
	events.recordContacts(createTestContacts(createTestBody(false), createTestBody(false)))
	events.flush()
}

func TestEvents_Forget(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_EXIT, capture.capture)

	bodyA := createTestBody(false)
	bodyB := createTestBody(false)
	events.processSleepEvents([]*actor.RigidBody{bodyA, bodyB})
	events.recordContacts(createTestContacts(bodyA, bodyB))
	events.flush()

	events.forget(bodyA)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("a forgotten pair should not exit, got %d events", capture.count())
	}
	if _, ok := events.sleepStates[bodyA]; ok {
		t.Error("forgotten body still has a sleep state")
	}
}

func TestEvents_MultipleFrames_EnterExitEnter(t *testing.T) {
	events := NewEvents()
	captureEnter := &eventCapture{}
	captureExit := &eventCapture{}

	events.Subscribe(COLLISION_ENTER, captureEnter.capture)
	events.Subscribe(COLLISION_EXIT, captureExit.capture)

	contacts := createTestContacts(createTestBody(false), createTestBody(false))

	// Frame 1: Enter
	events.recordContacts(contacts)
	events.flush()

	if captureEnter.count() != 1 {
		t.Error("Expected ENTER on frame 1")
	}

	// Frame 2: Exit
	captureEnter.reset()
	events.recordContacts(nil)
	events.flush()

	if captureExit.count() != 1 {
		t.Error("Expected EXIT on frame 2")
	}

	// Frame 3: Enter again
	captureExit.reset()
	events.recordContacts(contacts)
	events.flush()

	if captureEnter.count() != 1 {
		t.Error("Expected ENTER again on frame 3")
	}
	if captureExit.count() != 0 {
		t.Error("Expected no EXIT on frame 3")
	}
}

func TestEvents_CollisionEventsFollowContactOrder(t *testing.T) {
	bodies := make([]*actor.RigidBody, 10)
	for i := range bodies {
		bodies[i] = createTestBody(false)
	}
	contacts := createTestContacts(bodies...)

	for run := range 20 {
		events := NewEvents()
		enter := &eventCapture{}
		exit := &eventCapture{}
		events.Subscribe(COLLISION_ENTER, enter.capture)
		events.Subscribe(COLLISION_EXIT, exit.capture)

		// The same pair twice only counts once.
		events.recordContacts(append(contacts, contacts[0]))
		events.flush()
		events.flush()

		if enter.count() != len(contacts) || exit.count() != len(contacts) {
			t.Fatalf("run %d: %d enter and %d exit events, want %d each", run, enter.count(), exit.count(), len(contacts))
		}
		for i := range contacts {
			want := makePairKey(contacts[i].Bodies[0], contacts[i].Bodies[1])

			entered := enter.events[i].(CollisionEnterEvent)
			if makePairKey(entered.BodyA, entered.BodyB) != want {
				t.Errorf("run %d: enter event %d is not the pair of contact %d", run, i, i)
			}
			exited := exit.events[i].(CollisionExitEvent)
			if makePairKey(exited.BodyA, exited.BodyB) != want {
				t.Errorf("run %d: exit event %d is not the pair of contact %d", run, i, i)
			}
		}
	}
}

func TestEvents_ForgetKeepsOrderOfOtherPairs(t *testing.T) {
	a, b, c, d := createTestBody(false), createTestBody(false), createTestBody(false), createTestBody(false)
	events := NewEvents()
	exit := &eventCapture{}
	events.Subscribe(COLLISION_EXIT, exit.capture)

	events.recordContacts(createTestContacts(a, b, c, d, a, d))
	events.flush()
	events.forget(a)
	events.flush()

	if exit.count() != 1 {
		t.Fatalf("got %d exit events, want 1", exit.count())
	}
	event := exit.events[0].(CollisionExitEvent)
	if makePairKey(event.BodyA, event.BodyB) != makePairKey(c, d) {
		t.Error("exit event should be for the pair without the forgotten body")
	}
}
