// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     pipeline
// Description: Orchestrator state machine
// Author:      Mike Stoffels
// Created:     2026-10-08
// License:     MIT
// ============================================================================

package pipeline

import "sync"

// State is the orchestrator state
type State int

const (
	// StateReady waits for a capture or a history recall
	StateReady State = iota

	// StatePageSelect waits for a page of a multi-page document
	StatePageSelect

	// StateScanning runs OCR
	StateScanning

	// StateChoosing waits for a target language
	StateChoosing

	// StateTranslating waits for the language service
	StateTranslating

	// StatePlaying shows and speaks the result
	StatePlaying
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StatePageSelect:
		return "PAGE_SELECT"
	case StateScanning:
		return "SCANNING"
	case StateChoosing:
		return "CHOOSING"
	case StateTranslating:
		return "TRANSLATING"
	case StatePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// Icon returns a symbol for the state
func (s State) Icon() string {
	switch s {
	case StateReady:
		return "📷"
	case StatePageSelect:
		return "📄"
	case StateScanning:
		return "🔍"
	case StateChoosing:
		return "🌐"
	case StateTranslating:
		return "⚙️"
	case StatePlaying:
		return "🔊"
	default:
		return "?"
	}
}

// Busy reports whether the state waits on OCR or the language service
func (s State) Busy() bool {
	return s == StateScanning || s == StateTranslating
}

var validTransitions = map[State][]State{
	StateReady:       {StatePageSelect, StateScanning, StatePlaying},
	StatePageSelect:  {StateScanning, StateReady},
	StateScanning:    {StateChoosing, StateReady},
	StateChoosing:    {StateTranslating},
	StateTranslating: {StatePlaying},
	StatePlaying:     {StateReady},
}

// StateChangeListener is called after every state change
type StateChangeListener func(oldState, newState State)

// StateMachine holds the current state and enforces the transition table
type StateMachine struct {
	mu           sync.RWMutex
	currentState State
	listeners    []StateChangeListener
}

// NewStateMachine starts in READY
func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateReady,
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to State) bool {
	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// Transition moves to newState when the table allows it
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.currentState
	if !CanTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}
	sm.currentState = newState
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}
	return true
}

// Reset forces READY regardless of the table
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	oldState := sm.currentState
	sm.currentState = StateReady
	listeners := sm.listeners
	sm.mu.Unlock()

	if oldState == StateReady {
		return
	}
	for _, listener := range listeners {
		listener(oldState, StateReady)
	}
}

// AddListener registers a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}
