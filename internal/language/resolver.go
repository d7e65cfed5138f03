package language

import (
	"context"
	"errors"
	"strings"
	"time"

	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

// ErrNotRecognized is returned when a phrase does not name a supported language
var ErrNotRecognized = vaerr.New("language not recognized").WithCode(vaerr.CodeNotRecognized)

// Parser asks the language service which language a phrase names
type Parser interface {
	ParseLanguage(ctx context.Context, phrase string) (string, error)
}

// Resolver maps spoken phrases to supported languages
type Resolver struct {
	parser  Parser
	table   *Table
	timeout time.Duration
	logger  *logging.Logger
}

// NewResolver creates a resolver; a zero timeout disables the per-call deadline
func NewResolver(parser Parser, table *Table, timeout time.Duration) *Resolver {
	if table == nil {
		table = Default()
	}
	return &Resolver{
		parser:  parser,
		table:   table,
		timeout: timeout,
		logger:  logging.New("language-resolver"),
	}
}

// Table returns the table used for validation
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve sends the phrase to the service and validates the returned code.
// Transport failures are logged and reported as ErrNotRecognized.
func (r *Resolver) Resolve(ctx context.Context, phrase string) (Language, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return Language{}, vaerr.Wrap(ErrNotRecognized, "empty phrase")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	code, err := r.parser.ParseLanguage(ctx, phrase)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Language{}, err
		}
		r.logger.Warn("Language service unreachable", "phrase", phrase, "error", err)
		return Language{}, vaerr.Wrap(ErrNotRecognized, "parse-language failed").
			WithDetail("transport_error", err.Error())
	}

	if code == "" {
		r.logger.Info("No language in phrase", "phrase", phrase)
		return Language{}, vaerr.Wrap(ErrNotRecognized, "service returned no code")
	}

	lang, ok := r.table.Lookup(code)
	if !ok {
		r.logger.Info("Unsupported language code", "phrase", phrase, "code", code)
		return Language{}, vaerr.Wrapf(ErrNotRecognized, "unsupported code %q", code)
	}

	r.logger.Debug("Language resolved", "phrase", phrase, "code", lang.Code)
	return lang, nil
}
