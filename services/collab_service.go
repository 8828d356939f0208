package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"pricelens/models"
)

// EventSink delivers session events to a single participant. The websocket
// handler provides one per connection; tests provide fakes.
type EventSink interface {
	SendEvent(event models.SessionEvent) error
}

type sessionMember struct {
	participant models.Participant
	sink        EventSink
	typing      bool
	typingTimer *time.Timer
}

type collabSession struct {
	id      string
	members map[string]*sessionMember // keyed by user id
}

// CollabService relays calculator state between participants of a shared
// session. It is a pass-through broadcast: updates carry the full
// input/result snapshot and the last one received wins at each client. There
// is no merge and no conflict resolution for simultaneous edits; that is a
// documented limitation of the collaborative calculator, not a bug.
type CollabService struct {
	typingTimeout   time.Duration
	maxParticipants int

	mutex    sync.Mutex
	sessions map[string]*collabSession
}

func NewCollabService(typingTimeout time.Duration, maxParticipants int) *CollabService {
	if typingTimeout <= 0 {
		typingTimeout = time.Second
	}
	if maxParticipants <= 0 {
		maxParticipants = 16
	}
	return &CollabService{
		typingTimeout:   typingTimeout,
		maxParticipants: maxParticipants,
		sessions:        make(map[string]*collabSession),
	}
}

// Join subscribes a participant to a session and announces the arrival to
// everyone already in it.
func (cs *CollabService) Join(sessionID string, p models.Participant, sink EventSink) error {
	cs.mutex.Lock()

	session, exists := cs.sessions[sessionID]
	if !exists {
		session = &collabSession{
			id:      sessionID,
			members: make(map[string]*sessionMember),
		}
		cs.sessions[sessionID] = session
	}

	if _, already := session.members[p.UserID]; !already && len(session.members) >= cs.maxParticipants {
		cs.mutex.Unlock()
		return fmt.Errorf("session %s is full", sessionID)
	}

	// Rejoining with the same user id replaces the previous connection.
	if prev, already := session.members[p.UserID]; already && prev.typingTimer != nil {
		prev.typingTimer.Stop()
	}

	session.members[p.UserID] = &sessionMember{
		participant: p,
		sink:        sink,
	}

	sinks := session.sinksExcept(p.UserID)
	cs.mutex.Unlock()

	deliver(sinks, models.SessionEvent{
		Type:        models.EventParticipantJoined,
		SessionID:   sessionID,
		Participant: &p,
		SentAt:      time.Now(),
	})

	return nil
}

// Leave unsubscribes a participant, clears any pending typing state, and
// announces the departure. An empty session is dropped.
func (cs *CollabService) Leave(sessionID, userID string) {
	cs.mutex.Lock()

	session, exists := cs.sessions[sessionID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	member, exists := session.members[userID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	if member.typingTimer != nil {
		member.typingTimer.Stop()
	}

	p := member.participant
	delete(session.members, userID)
	if len(session.members) == 0 {
		delete(cs.sessions, sessionID)
	}

	sinks := session.sinksExcept(userID)
	cs.mutex.Unlock()

	deliver(sinks, models.SessionEvent{
		Type:        models.EventParticipantLeft,
		SessionID:   sessionID,
		Participant: &p,
		SentAt:      time.Now(),
	})
}

// BroadcastUpdate relays the sender's full input/result snapshot to every
// other participant.
func (cs *CollabService) BroadcastUpdate(sessionID, fromUserID string, inputs models.CalculatorInputs, result models.CalculationResult) {
	cs.mutex.Lock()

	session, exists := cs.sessions[sessionID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	member, exists := session.members[fromUserID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	p := member.participant
	sinks := session.sinksExcept(fromUserID)
	cs.mutex.Unlock()

	deliver(sinks, models.SessionEvent{
		Type:        models.EventStateUpdate,
		SessionID:   sessionID,
		Participant: &p,
		Inputs:      &inputs,
		Result:      &result,
		SentAt:      time.Now(),
	})
}

// SignalTyping marks a participant as typing. The first signal broadcasts
// typing_started; each signal rearms a single expiry timer, and when no
// signal arrives within the timeout a typing_stopped is broadcast. At most
// one pending timer exists per participant.
func (cs *CollabService) SignalTyping(sessionID, userID string) {
	cs.mutex.Lock()

	session, exists := cs.sessions[sessionID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	member, exists := session.members[userID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	started := !member.typing
	member.typing = true

	if member.typingTimer != nil {
		member.typingTimer.Stop()
	}
	member.typingTimer = time.AfterFunc(cs.typingTimeout, func() {
		cs.expireTyping(sessionID, userID)
	})

	p := member.participant
	var sinks []EventSink
	if started {
		sinks = session.sinksExcept(userID)
	}
	cs.mutex.Unlock()

	if started {
		deliver(sinks, models.SessionEvent{
			Type:        models.EventTypingStarted,
			SessionID:   sessionID,
			Participant: &p,
			SentAt:      time.Now(),
		})
	}
}

func (cs *CollabService) expireTyping(sessionID, userID string) {
	cs.mutex.Lock()

	session, exists := cs.sessions[sessionID]
	if !exists {
		cs.mutex.Unlock()
		return
	}

	member, exists := session.members[userID]
	if !exists || !member.typing {
		cs.mutex.Unlock()
		return
	}

	member.typing = false
	member.typingTimer = nil

	p := member.participant
	sinks := session.sinksExcept(userID)
	cs.mutex.Unlock()

	deliver(sinks, models.SessionEvent{
		Type:        models.EventTypingStopped,
		SessionID:   sessionID,
		Participant: &p,
		SentAt:      time.Now(),
	})
}

// Participants returns the current members of a session.
func (cs *CollabService) Participants(sessionID string) []models.Participant {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	session, exists := cs.sessions[sessionID]
	if !exists {
		return []models.Participant{}
	}

	participants := make([]models.Participant, 0, len(session.members))
	for _, m := range session.members {
		participants = append(participants, m.participant)
	}
	return participants
}

// SessionCount reports how many sessions are live.
func (cs *CollabService) SessionCount() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return len(cs.sessions)
}

func (s *collabSession) sinksExcept(userID string) []EventSink {
	sinks := make([]EventSink, 0, len(s.members))
	for id, m := range s.members {
		if id != userID {
			sinks = append(sinks, m.sink)
		}
	}
	return sinks
}

// deliver fans an event out without holding the session lock; a slow or dead
// receiver must not stall the rest of the session.
func deliver(sinks []EventSink, event models.SessionEvent) {
	for _, sink := range sinks {
		if err := sink.SendEvent(event); err != nil {
			log.Printf("Failed to deliver %s event: %v", event.Type, err)
		}
	}
}
