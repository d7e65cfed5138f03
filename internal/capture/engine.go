package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine turns an encoded image into plain text
type Engine interface {
	Recognize(ctx context.Context, img []byte, languages []string) (string, error)
}

// TesseractEngine runs OCR through libtesseract
type TesseractEngine struct {
	tessdataPrefix string
	dpi            int
	clientFactory  func() *gosseract.Client
}

// NewTesseractEngine creates an engine. An empty prefix uses the system tessdata.
func NewTesseractEngine(tessdataPrefix string, dpi int) *TesseractEngine {
	return &TesseractEngine{
		tessdataPrefix: tessdataPrefix,
		dpi:            dpi,
		clientFactory:  gosseract.NewClient,
	}
}

// Recognize performs OCR on img. The client call itself is not
// interruptible, so a cancelled context only abandons the result.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte, languages []string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		text, err := e.recognize(img, languages)
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

func (e *TesseractEngine) recognize(img []byte, languages []string) (string, error) {
	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		c.TessdataPrefix = e.tessdataPrefix
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// SplitLanguages turns a "eng+hin+tel" hint into its parts
func SplitLanguages(hint string) []string {
	var out []string
	for _, p := range strings.Split(hint, "+") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
