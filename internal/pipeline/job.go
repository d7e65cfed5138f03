package pipeline

import (
	"context"

	"github.com/msto63/vaani/internal/translate"
)

// Job describes one unattended run from capture to playback
type Job struct {
	File     File
	Page     int
	Language string
	Voice    bool
	Mode     translate.Mode
}

// Run resets o and drives it through job. On success the session is in
// PLAYING; on failure the returned snapshot shows where it stopped.
func Run(ctx context.Context, o *Orchestrator, job Job) (Session, error) {
	o.Reset()
	if err := o.SetMode(job.Mode); err != nil {
		return o.Snapshot(), err
	}
	if err := o.SubmitCapture(ctx, job.File); err != nil {
		return o.Snapshot(), err
	}
	if o.State() == StatePageSelect {
		if err := o.SelectPage(ctx, job.Page); err != nil {
			return o.Snapshot(), err
		}
	}

	var err error
	if job.Voice {
		err = o.StartVoiceSelection(ctx)
	} else {
		err = o.ChooseLanguage(ctx, job.Language)
	}
	return o.Snapshot(), err
}
