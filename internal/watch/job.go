package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/translate"
)

// Pipeline returns a Handler that translates each file into lang and,
// when wait is set, blocks until playback has finished. PDFs use their
// first page.
func Pipeline(o *pipeline.Orchestrator, lang string, mode translate.Mode, wait func(ctx context.Context) error) Handler {
	return func(ctx context.Context, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}

		_, err = pipeline.Run(ctx, o, pipeline.Job{
			File:     pipeline.File{Name: filepath.Base(path), Data: data},
			Language: lang,
			Mode:     mode,
		})
		if wait != nil {
			if werr := wait(ctx); werr != nil && err == nil {
				err = werr
			}
		}
		return err
	}
}
