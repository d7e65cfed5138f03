package tui

import (
	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/speech"
)

// sessionMsg carries an orchestrator snapshot
type sessionMsg pipeline.Session

// audioMsg carries a dispatcher status change
type audioMsg speech.Status

// opDoneMsg reports the end of an orchestrator command
type opDoneMsg struct {
	op  string
	err error
}

// copiedMsg reports a clipboard copy
type copiedMsg struct {
	err error
}
