// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sassoftware/pdf-restamp/logger"
	"github.com/sassoftware/pdf-restamp/tracer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// A SourcePage is one page of the template document.
type SourcePage interface {
	// Contents returns the page's decoded content stream.
	Contents() ([]byte, error)
	// Fonts returns the page's font resources.
	Fonts() FontMap
}

// A Source is the template document. Pages are numbered from 1.
type Source interface {
	NumPage() int
	Page(num int) (SourcePage, error)
}

// A PageWriter is the instruction writer of one destination page. It is
// released with Close.
type PageWriter interface {
	Emitter
	Close() error
}

// A Destination is the document that rewritten pages are appended to.
type Destination interface {
	AddPage() (PageWriter, error)
}

// PageStrategy rewrites a single page. Different strategies handle errors
// differently (strict vs. best-effort).
type PageStrategy interface {
	RewritePage(ip *Interpreter, num int, page SourcePage, out Emitter) (PageStats, error)
}

func rewritePage(ip *Interpreter, page SourcePage, out Emitter) (PageStats, error) {
	content, err := page.Contents()
	if err != nil {
		return PageStats{}, err
	}
	return ip.Rewrite(content, page.Fonts(), out)
}

// StrictRewriter fails the document on the first page error.
type StrictRewriter struct{}

func (s *StrictRewriter) RewritePage(ip *Interpreter, num int, page SourcePage, out Emitter) (PageStats, error) {
	return rewritePage(ip, page, out)
}

// BestEffortRewriter keeps going when a page fails. The failed page keeps
// whatever was emitted before the error.
type BestEffortRewriter struct{}

func (b *BestEffortRewriter) RewritePage(ip *Interpreter, num int, page SourcePage, out Emitter) (PageStats, error) {
	st, err := rewritePage(ip, page, out)
	if err != nil {
		logger.Debug("BestEffortRewriter: failed to rewrite page, ignoring error", "page", num, "err", err, true)
		return st, &pageSkipped{err}
	}
	return st, nil
}

// pageSkipped marks a page error the strategy chose to tolerate.
type pageSkipped struct{ err error }

func (e *pageSkipped) Error() string { return e.err.Error() }
func (e *pageSkipped) Unwrap() error { return e.err }

// Processor rewrites template documents page by page, with bounded
// concurrency across documents.
type Processor struct {
	cfg      *Config
	sem      *semaphore.Weighted
	strategy PageStrategy
	repl     *Replacer
}

// NewProcessor validates the config and creates a new Processor.
// Selects the correct PageStrategy (Strict or BestEffort).
func NewProcessor(cfg *Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	//Select PageStrategy
	var strategy PageStrategy
	switch cfg.ParsingMode {
	case Strict:
		strategy = &StrictRewriter{}
	case BestEffort:
		strategy = &BestEffortRewriter{}
	}

	//Set the logger function
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	logger.Debug(fmt.Sprintf("Processor initialized: parsing_mode=%v, max_concurrent_docs=%d, substitutions=%d",
		cfg.ParsingMode, cfg.MaxConcurrentDocs, len(cfg.Substitutions)), true)

	return &Processor{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentDocs)),
		strategy: strategy,
		repl:     NewReplacer(cfg.Substitutions...),
	}, nil
}

// Interpreter returns an Interpreter using font and the configured substitutions.
func (p *Processor) Interpreter(font FontHandle) *Interpreter {
	return NewInterpreter(font, p.repl)
}

// Rewrite appends one rewritten page to dst for every page of src, in source
// order, showing all text in font. Each page writer is closed before the next
// page starts, also when the page fails.
func (p *Processor) Rewrite(ctx context.Context, src Source, dst Destination, font FontHandle) (Stats, error) {
	if err := p.acquireSlot(ctx); err != nil {
		logger.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return Stats{}, err
	}
	defer p.sem.Release(1)

	st, err := p.rewrite(ctx, src, dst, font)
	if err != nil && p.cfg.DebugOn {
		tracer.Flush()
	} else {
		// the trace holds shown text; drop it once it is no longer needed
		tracer.Reset()
	}
	return st, err
}

func (p *Processor) rewrite(ctx context.Context, src Source, dst Destination, font FontHandle) (Stats, error) {
	if font == nil {
		return Stats{}, ErrNoFont
	}
	ip := p.Interpreter(font)
	total := src.NumPage()
	logger.Debug(fmt.Sprintf("Starting rewrite: pages=%d", total), true)

	var st Stats
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			logger.Debug("Context cancelled between pages", true)
			return st, err
		}
		ps, err := p.rewriteOne(ip, src, dst, num)
		st.Pages++
		st.PageStats.add(ps)
		var skipped *pageSkipped
		switch {
		case errors.As(err, &skipped):
			st.FailedPages = append(st.FailedPages, num)
		case err != nil:
			logger.Debug(fmt.Sprintf("Strict mode error, stopping rewrite: page=%d err=%v", num, err), true)
			st.FailedPages = append(st.FailedPages, num)
			return st, fmt.Errorf("page %d: %w", num, err)
		}
	}
	logger.Debug(fmt.Sprintf("Rewrite completed: pages=%d failed=%d emitted=%d dropped=%d",
		st.Pages, len(st.FailedPages), st.Emitted, st.Dropped), true)
	return st, nil
}

// rewriteOne runs one page against a freshly added destination page. The
// page writer is released on every path out of this function.
func (p *Processor) rewriteOne(ip *Interpreter, src Source, dst Destination, num int) (st PageStats, err error) {
	page, err := src.Page(num)
	if err != nil {
		return PageStats{}, err
	}
	pw, err := dst.AddPage()
	if err != nil {
		return PageStats{}, err
	}
	defer func() {
		if cerr := pw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return p.strategy.RewritePage(ip, num, page, pw)
}

// A Job is one document for RewriteAll.
type Job struct {
	Name   string
	Source Source
	Dest   Destination
}

// JobResult carries the outcome of one Job.
type JobResult struct {
	Name  string `json:"name"`
	Stats Stats  `json:"stats"`
	Err   error  `json:"-"`
}

// RewriteAll rewrites several documents, at most Config.MaxConcurrentDocs at
// a time. Pages within a document are still processed in order by a single
// goroutine. The substitute font is shared read-only by all documents.
// Results are returned in job order; the first error cancels the remaining
// jobs in strict mode.
func (p *Processor) RewriteAll(ctx context.Context, jobs []Job, font FontHandle) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			st, err := p.Rewrite(gctx, job.Source, job.Dest, font)
			mu.Lock()
			results[i] = JobResult{Name: job.Name, Stats: st, Err: err}
			mu.Unlock()
			if err != nil {
				logger.Debug(fmt.Sprintf("Job failed: name=%s err=%v", job.Name, err), true)
				if p.cfg.ParsingMode == Strict {
					return fmt.Errorf("%s: %w", job.Name, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func (p *Processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}

// StaticPage is an in-memory SourcePage.
type StaticPage struct {
	Content   []byte
	Resources FontMap
}

func (sp StaticPage) Contents() ([]byte, error) { return sp.Content, nil }
func (sp StaticPage) Fonts() FontMap             { return sp.Resources }

// PageList is an in-memory Source.
type PageList []SourcePage

func (pl PageList) NumPage() int { return len(pl) }

func (pl PageList) Page(num int) (SourcePage, error) {
	if num < 1 || num > len(pl) {
		return nil, fmt.Errorf("page %d out of range 1..%d", num, len(pl))
	}
	return pl[num-1], nil
}

// MemoryDocument is an in-memory Destination. Each page is a content stream
// written through a ContentWriter.
type MemoryDocument struct {
	mu    sync.Mutex
	pages []*memoryPage
	open  int
}

type memoryPage struct {
	*ContentWriter
	doc *MemoryDocument
	buf bytes.Buffer
}

func (mp *memoryPage) Close() error {
	first := !mp.ContentWriter.closed
	err := mp.ContentWriter.Close()
	if first {
		mp.doc.mu.Lock()
		mp.doc.open--
		mp.doc.mu.Unlock()
	}
	return err
}

// AddPage appends an empty page and returns its writer.
func (d *MemoryDocument) AddPage() (PageWriter, error) {
	mp := &memoryPage{doc: d}
	mp.ContentWriter = NewContentWriter(&mp.buf)
	d.mu.Lock()
	d.pages = append(d.pages, mp)
	d.open++
	d.mu.Unlock()
	return mp, nil
}

// NumPage returns the number of pages added so far.
func (d *MemoryDocument) NumPage() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pages)
}

// Page returns the content stream of page num, numbered from 1.
func (d *MemoryDocument) Page(num int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if num < 1 || num > len(d.pages) {
		return nil
	}
	return d.pages[num-1].buf.Bytes()
}

// PageFonts returns the fonts used on page num.
func (d *MemoryDocument) PageFonts(num int) []FontHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if num < 1 || num > len(d.pages) {
		return nil
	}
	return d.pages[num-1].Fonts()
}

// OpenWriters reports how many page writers have not been closed.
func (d *MemoryDocument) OpenWriters() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}
