package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/models"
)

type fakeSink struct {
	mutex  sync.Mutex
	events []models.SessionEvent
}

func (f *fakeSink) SendEvent(event models.SessionEvent) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSink) ofType(eventType string) []models.SessionEvent {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []models.SessionEvent
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSink) count(eventType string) int {
	return len(f.ofType(eventType))
}

func TestJoinBroadcastsToExistingMembers(t *testing.T) {
	svc := NewCollabService(time.Second, 16)

	alice := &fakeSink{}
	bob := &fakeSink{}

	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice", Label: "Alice"}, alice))
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "bob", Label: "Bob"}, bob))

	joined := alice.ofType(models.EventParticipantJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "bob", joined[0].Participant.UserID)
	assert.Equal(t, "s1", joined[0].SessionID)

	// The joiner does not hear their own arrival.
	assert.Zero(t, bob.count(models.EventParticipantJoined))

	assert.Len(t, svc.Participants("s1"), 2)
}

func TestLeaveBroadcastsAndDropsEmptySession(t *testing.T) {
	svc := NewCollabService(time.Second, 16)

	alice := &fakeSink{}
	bob := &fakeSink{}
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice"}, alice))
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "bob"}, bob))

	svc.Leave("s1", "bob")

	left := alice.ofType(models.EventParticipantLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "bob", left[0].Participant.UserID)
	assert.Len(t, svc.Participants("s1"), 1)

	svc.Leave("s1", "alice")
	assert.Zero(t, svc.SessionCount())
}

func TestBroadcastUpdateRelaysSnapshot(t *testing.T) {
	svc := NewCollabService(time.Second, 16)
	engine := NewCalculatorService(ModeEnhanced)

	alice := &fakeSink{}
	bob := &fakeSink{}
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice"}, alice))
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "bob"}, bob))

	inputs := models.CalculatorInputs{CurrentPrice: models.Num(49), CompetitorPrice: models.Num(79)}
	result := engine.Compute(inputs)
	svc.BroadcastUpdate("s1", "alice", inputs, result)

	updates := bob.ofType(models.EventStateUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, "alice", updates[0].Participant.UserID)
	require.NotNil(t, updates[0].Inputs)
	require.NotNil(t, updates[0].Result)
	assert.Equal(t, 67.0, updates[0].Result.Metrics.OptimalPrice)

	// The sender does not receive their own update.
	assert.Zero(t, alice.count(models.EventStateUpdate))
}

func TestBroadcastFromUnknownSenderIsIgnored(t *testing.T) {
	svc := NewCollabService(time.Second, 16)

	alice := &fakeSink{}
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice"}, alice))

	svc.BroadcastUpdate("s1", "ghost", models.CalculatorInputs{}, models.CalculationResult{})
	svc.BroadcastUpdate("nosuch", "alice", models.CalculatorInputs{}, models.CalculationResult{})

	assert.Zero(t, alice.count(models.EventStateUpdate))
}

func TestTypingDebounce(t *testing.T) {
	svc := NewCollabService(40*time.Millisecond, 16)

	alice := &fakeSink{}
	bob := &fakeSink{}
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice"}, alice))
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "bob"}, bob))

	// Rapid signals collapse into a single typing_started.
	svc.SignalTyping("s1", "alice")
	svc.SignalTyping("s1", "alice")
	svc.SignalTyping("s1", "alice")

	assert.Equal(t, 1, bob.count(models.EventTypingStarted))
	assert.Zero(t, bob.count(models.EventTypingStopped))

	// Each signal rearms the timer, so typing survives past one timeout.
	time.Sleep(25 * time.Millisecond)
	svc.SignalTyping("s1", "alice")
	time.Sleep(25 * time.Millisecond)
	assert.Zero(t, bob.count(models.EventTypingStopped))

	require.Eventually(t, func() bool {
		return bob.count(models.EventTypingStopped) == 1
	}, time.Second, 5*time.Millisecond)

	// A fresh signal after expiry starts a new cycle.
	svc.SignalTyping("s1", "alice")
	assert.Equal(t, 2, bob.count(models.EventTypingStarted))

	// The typist never hears their own typing events.
	assert.Zero(t, alice.count(models.EventTypingStarted))
}

func TestLeaveCancelsPendingTyping(t *testing.T) {
	svc := NewCollabService(30*time.Millisecond, 16)

	alice := &fakeSink{}
	bob := &fakeSink{}
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice"}, alice))
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "bob"}, bob))

	svc.SignalTyping("s1", "alice")
	svc.Leave("s1", "alice")

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, bob.count(models.EventTypingStopped))
}

func TestSessionCapacity(t *testing.T) {
	svc := NewCollabService(time.Second, 2)

	require.NoError(t, svc.Join("s1", models.Participant{UserID: "u1"}, &fakeSink{}))
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "u2"}, &fakeSink{}))

	err := svc.Join("s1", models.Participant{UserID: "u3"}, &fakeSink{})
	assert.Error(t, err)

	// A rejoin with an existing id is a reconnect, not a new seat.
	assert.NoError(t, svc.Join("s1", models.Participant{UserID: "u2"}, &fakeSink{}))

	// A different session is unaffected.
	assert.NoError(t, svc.Join("s2", models.Participant{UserID: "u3"}, &fakeSink{}))
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := NewCollabService(time.Second, 16)

	alice := &fakeSink{}
	carol := &fakeSink{}
	require.NoError(t, svc.Join("s1", models.Participant{UserID: "alice"}, alice))
	require.NoError(t, svc.Join("s2", models.Participant{UserID: "carol"}, carol))

	require.NoError(t, svc.Join("s1", models.Participant{UserID: "bob"}, &fakeSink{}))

	assert.Equal(t, 1, alice.count(models.EventParticipantJoined))
	assert.Zero(t, carol.count(models.EventParticipantJoined))
	assert.Equal(t, 2, svc.SessionCount())
}
