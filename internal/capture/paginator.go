package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Document is a multi-page input awaiting page selection
type Document interface {
	PageCount() int
	// Page renders page i (zero-based) to an encoded image
	Page(ctx context.Context, i int) ([]byte, error)
	Close() error
}

// Paginator opens multi-page documents
type Paginator interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// PopplerPaginator renders PDF pages with pdfinfo and pdftoppm
type PopplerPaginator struct {
	pdfinfo  string
	pdftoppm string
	scale    float64
}

// NewPopplerPaginator creates a paginator rendering at scale x 72 DPI
func NewPopplerPaginator(pdfinfo, pdftoppm string, scale float64) *PopplerPaginator {
	if pdfinfo == "" {
		pdfinfo = "pdfinfo"
	}
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if scale <= 0 {
		scale = 1.5
	}
	return &PopplerPaginator{pdfinfo: pdfinfo, pdftoppm: pdftoppm, scale: scale}
}

// DPI is the render resolution derived from the scale
func (p *PopplerPaginator) DPI() int {
	return int(math.Round(72 * p.scale))
}

// Open stores data in a temp dir and reads the page count
func (p *PopplerPaginator) Open(ctx context.Context, data []byte) (Document, error) {
	dir, err := os.MkdirTemp("", "vaani-doc-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write document: %w", err)
	}

	out, err := exec.CommandContext(ctx, p.pdfinfo, path).Output()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("pdfinfo: %w", err)
	}
	pages, err := parsePageCount(out)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return &popplerDocument{p: p, dir: dir, path: path, pages: pages}, nil
}

type popplerDocument struct {
	p     *PopplerPaginator
	dir   string
	path  string
	pages int
}

func (d *popplerDocument) PageCount() int { return d.pages }

func (d *popplerDocument) Page(ctx context.Context, i int) ([]byte, error) {
	if i < 0 || i >= d.pages {
		return nil, fmt.Errorf("page %d out of range [0, %d)", i, d.pages)
	}
	prefix := filepath.Join(d.dir, fmt.Sprintf("page-%d", i))
	cmd := exec.CommandContext(ctx, d.p.pdftoppm, renderArgs(i, d.p.DPI(), d.path, prefix)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}
	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	return data, nil
}

func (d *popplerDocument) Close() error {
	return os.RemoveAll(d.dir)
}

func renderArgs(page, dpi int, input, prefix string) []string {
	n := strconv.Itoa(page + 1)
	return []string{
		"-f", n, "-l", n,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		input, prefix,
	}
}

func parsePageCount(info []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(info))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("invalid page count %q", line)
		}
		if n < 1 {
			return 0, fmt.Errorf("document has no pages")
		}
		return n, nil
	}
	return 0, fmt.Errorf("page count not reported")
}
