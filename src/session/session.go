// Package session runs the select, capture, recognize, translate, publish
// and render pipeline, one run at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/clipboard"
	"screen-translator/src/logutil"
	"screen-translator/src/screenshot"
)

const defaultStageTimeout = 20 * time.Second

// Selector lets the user pick a screen region. cancelled is true when the
// user backed out (Escape, window closed).
type Selector interface {
	Select(ctx context.Context) (region screenshot.Region, cancelled bool, err error)
}

type Recognizer interface {
	Recognize(ctx context.Context, img *screenshot.CapturedImage) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Presenter shows the translation over the selected region.
type Presenter interface {
	Show(region screenshot.Region, text string, background image.Image) error
	Close()
}

// LanguageSource supplies the current target language. It is read once per
// run, right before translating.
type LanguageSource interface {
	Current() string
}

// Publisher receives the translated text before it is rendered. Publish
// failures are logged and never abort the run.
type Publisher interface {
	Publish(text string) error
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Selector   Selector
	Capturer   screenshot.Capturer
	Recognizer Recognizer
	Translator Translator
	Presenter  Presenter
	Language   LanguageSource

	// Publisher defaults to the system clipboard.
	Publisher Publisher

	RecognizeTimeout time.Duration
	TranslateTimeout time.Duration

	// RenderEmpty shows the overlay even when the translation is empty.
	RenderEmpty bool
}

// RunOptions adjust a single run.
type RunOptions struct {
	// Language overrides the LanguageSource for this run.
	Language string
	// Publisher overrides Options.Publisher for this run.
	Publisher Publisher
}

// Orchestrator owns the single in-flight run. Starting a run cancels the
// previous one and waits for it to unwind before selecting.
type Orchestrator struct {
	opts Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Selector == nil:
		return nil, errors.New("session: Selector is required")
	case opts.Capturer == nil:
		return nil, errors.New("session: Capturer is required")
	case opts.Recognizer == nil:
		return nil, errors.New("session: Recognizer is required")
	case opts.Translator == nil:
		return nil, errors.New("session: Translator is required")
	case opts.Presenter == nil:
		return nil, errors.New("session: Presenter is required")
	case opts.Language == nil:
		return nil, errors.New("session: Language is required")
	}
	if opts.Publisher == nil {
		opts.Publisher = ClipboardPublisher{}
	}
	if opts.RecognizeTimeout <= 0 {
		opts.RecognizeTimeout = defaultStageTimeout
	}
	if opts.TranslateTimeout <= 0 {
		opts.TranslateTimeout = defaultStageTimeout
	}
	return &Orchestrator{opts: opts}, nil
}

// RunOnce runs the whole pipeline with the default language and publisher.
func (o *Orchestrator) RunOnce(ctx context.Context) (Result, error) {
	return o.Run(ctx, RunOptions{})
}

// Run runs the pipeline once. A non-nil error always comes with Outcome
// Failed and is an *apperr.Error naming the failed stage. Cancelled,
// NothingSelected and Superseded runs return a nil error.
func (o *Orchestrator) Run(ctx context.Context, ro RunOptions) (Result, error) {
	runCtx, finish := o.begin(ctx)
	defer finish()

	start := time.Now()
	res, err := o.pipeline(runCtx, ro)
	if err != nil {
		log.Printf("SESSION: run failed after %v: %v", time.Since(start), err)
	} else {
		log.Printf("SESSION: run finished after %v: %s", time.Since(start), res.Outcome)
	}
	return res, err
}

// begin supersedes the in-flight run, if any, and clears the previous
// result overlay.
func (o *Orchestrator) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	o.mu.Lock()
	prevCancel, prevDone := o.cancel, o.done
	o.cancel, o.done = cancel, done
	o.mu.Unlock()

	if prevCancel != nil {
		log.Printf("SESSION: superseding in-flight run")
		prevCancel()
		<-prevDone
	}
	o.opts.Presenter.Close()

	return ctx, func() {
		cancel()
		o.mu.Lock()
		if o.done == done {
			o.cancel, o.done = nil, nil
		}
		o.mu.Unlock()
		close(done)
	}
}

// Busy reports whether a run is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done != nil
}

// Cancel supersedes the in-flight run without starting a new one and waits
// for it to unwind.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (o *Orchestrator) pipeline(ctx context.Context, ro RunOptions) (Result, error) {
	region, cancelled, err := o.opts.Selector.Select(ctx)
	if superseded(ctx) {
		return Result{Outcome: Superseded}, nil
	}
	if err != nil {
		return failed(Result{}, apperr.Wrap(err, apperr.KindCapture, apperr.SubUnavailable, "selection overlay failed"))
	}
	if cancelled {
		return Result{Outcome: Cancelled}, nil
	}
	region = region.Normalize()
	if region.Empty() {
		return Result{Outcome: NothingSelected, Region: region}, nil
	}
	res := Result{Region: region}
	log.Printf("SESSION: selected (%d,%d) %dx%d", region.X, region.Y, region.Width, region.Height)

	img, err := o.opts.Capturer.Capture(region)
	if err != nil {
		return failed(res, stageError(err, apperr.KindCapture, "capture failed"))
	}

	rctx, rcancel := context.WithTimeout(ctx, o.opts.RecognizeTimeout)
	recognized, err := o.opts.Recognizer.Recognize(rctx, img)
	rcancel()
	if superseded(ctx) {
		return Result{Outcome: Superseded, Region: region}, nil
	}
	if err != nil {
		return failed(res, stageError(err, apperr.KindRecognition, "recognition failed"))
	}
	res.Recognized = recognized
	log.Printf("SESSION: recognized %q", logutil.SanitizeForLogging(recognized))

	lang := ro.Language
	if lang == "" {
		lang = o.opts.Language.Current()
	}
	translated := ""
	if recognized != "" {
		tctx, tcancel := context.WithTimeout(ctx, o.opts.TranslateTimeout)
		translated, err = o.opts.Translator.Translate(tctx, recognized, lang)
		tcancel()
		if superseded(ctx) {
			return Result{Outcome: Superseded, Region: region}, nil
		}
		if err != nil {
			return failed(res, stageError(err, apperr.KindTranslation, "translation failed"))
		}
	}
	res.Translated = translated
	res.Language = lang
	log.Printf("SESSION: translated to %s: %q", lang, logutil.SanitizeForLogging(translated))

	publisher := ro.Publisher
	if publisher == nil {
		publisher = o.opts.Publisher
	}
	if err := publisher.Publish(translated); err != nil {
		log.Printf("SESSION: publish failed, continuing: %v", err)
	}

	if translated == "" && !o.opts.RenderEmpty {
		log.Printf("SESSION: empty translation, overlay skipped")
		res.Outcome = Completed
		return res, nil
	}
	if err := o.opts.Presenter.Show(region, translated, img); err != nil {
		return failed(res, stageError(err, apperr.KindRender, "render failed"))
	}
	res.Outcome = Completed
	return res, nil
}

func superseded(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

func failed(res Result, err error) (Result, error) {
	res.Outcome = Failed
	res.Err = err
	return res, err
}

// stageError makes sure every stage failure carries its stage's kind. Errors
// already tagged by the stage are kept; a bare deadline becomes a timeout.
func stageError(err error, kind apperr.Kind, msg string) error {
	if apperr.Is(err, kind) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(err, kind, apperr.SubTimeout, "%s", msg)
	}
	return apperr.Wrap(err, kind, apperr.SubUnspecified, "%s", msg)
}

// ClipboardPublisher copies the translation to the system clipboard.
type ClipboardPublisher struct{}

func (ClipboardPublisher) Publish(text string) error { return clipboard.Write(text) }

// StdoutPublisher prints the translation instead of touching the clipboard.
type StdoutPublisher struct {
	Writer io.Writer
}

func (p StdoutPublisher) Publish(text string) error {
	w := p.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprint(w, text)
	return err
}

// DiscardPublisher drops the translation; the caller reads it from Result.
type DiscardPublisher struct{}

func (DiscardPublisher) Publish(string) error { return nil }
