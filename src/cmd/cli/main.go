// Command translate-tool runs recognition and translation on a PNG file
// without any screen interaction.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-translator/src/config"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/screenshot"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	language   string
	jsonOutput bool
	verbose    bool
	apiKeyPath string
}

// streams lets tests run the command in-process.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	s := streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := runWithArgs(normalizeLegacyArgs(os.Args), s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, s streams) error {
	if len(args) == 0 {
		args = []string{"translate-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, s)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, s streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "translate-tool",
		Short:         "Recognize and translate the text in a PNG image",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, s)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().StringVar(&opts.language, "lang", "", "Target language code (defaults to TARGET_LANGUAGE)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, s streams) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(s.errOut)
		fmt.Fprintf(s.errOut, "[verbose] Starting translate tool\n")
	}

	lang := ""
	if opts.language != "" {
		if lang = config.NormalizeLanguage(opts.language); lang == "" {
			return fmt.Errorf("invalid language %q", opts.language)
		}
	}
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride:     opts.apiKeyPath,
			TargetLanguageOverride: lang,
		},
	})
	if err != nil {
		return err
	}

	if opts.verbose {
		fmt.Fprintf(s.errOut, "[verbose] Effective API key path: %s\n", cfg.APIKeyPath)
		fmt.Fprintf(s.errOut, "[verbose] Target language: %s, OCR provider: %s\n", cfg.TargetLanguage, cfg.OCRProvider)
	}

	if cfg.APIKey == "" {
		// Translation always needs the key, even with local recognition.
		return runtimeinit.MissingKeyError(cfg)
	}
	clients, err := runtimeinit.NewClients(cfg)
	if err != nil {
		return err
	}

	imageData, err := readInput(opts.filePath, s.in)
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(s.errOut, "[verbose] Read %d bytes\n", len(imageData))
	}

	img, err := screenshot.DecodePNG(imageData)
	if err != nil {
		return fmt.Errorf("failed to decode PNG: %w", err)
	}

	p := pipeline{
		recognizer: clients.Recognizer,
		translator: clients.Translator,
		recognizeT: time.Duration(cfg.RecognizeTimeoutSec) * time.Second,
		translateT: time.Duration(cfg.TranslateTimeoutSec) * time.Second,
	}
	res, err := p.run(ctx, img, cfg.TargetLanguage)
	if err != nil {
		if opts.verbose {
			fmt.Fprintf(s.errOut, "[verbose] Failed after %v: %v\n", res.elapsed, err)
		}
		return err
	}
	if opts.verbose {
		fmt.Fprintf(s.errOut, "[verbose] Done in %v: %d characters recognized, %d translated\n",
			res.elapsed, len(res.recognized), len(res.translated))
	}

	return outputResult(s.out, res, opts.filePath, opts.jsonOutput)
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if err := validatePNG(data); err != nil {
		return nil, err
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

type recognizer interface {
	Recognize(ctx context.Context, img *screenshot.CapturedImage) (string, error)
}

type translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

type pipeline struct {
	recognizer recognizer
	translator translator
	recognizeT time.Duration
	translateT time.Duration
}

type pipelineResult struct {
	recognized string
	translated string
	language   string
	elapsed    time.Duration
}

func (p pipeline) run(ctx context.Context, img *screenshot.CapturedImage, lang string) (pipelineResult, error) {
	start := time.Now()
	res := pipelineResult{language: lang}

	rctx, cancel := withTimeout(ctx, p.recognizeT)
	text, err := p.recognizer.Recognize(rctx, img)
	cancel()
	if err != nil {
		res.elapsed = time.Since(start)
		return res, fmt.Errorf("recognition failed: %w", err)
	}
	res.recognized = text

	if strings.TrimSpace(text) != "" {
		tctx, cancel := withTimeout(ctx, p.translateT)
		res.translated, err = p.translator.Translate(tctx, text, lang)
		cancel()
		if err != nil {
			res.elapsed = time.Since(start)
			return res, fmt.Errorf("translation failed: %w", err)
		}
	}
	res.elapsed = time.Since(start)
	return res, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type TranslateResult struct {
	Recognized string  `json:"recognized"`
	Translated string  `json:"translated"`
	Language   string  `json:"language"`
	Source     string  `json:"source"`
	Timestamp  string  `json:"timestamp"`
	Duration   float64 `json:"duration_seconds"`
	CharCount  int     `json:"character_count"`
}

func outputResult(w io.Writer, res pipelineResult, sourcePath string, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, res.translated)
		return err
	}

	out := TranslateResult{
		Recognized: res.recognized,
		Translated: res.translated,
		Language:   res.language,
		Source:     sourcePath,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Duration:   res.elapsed.Seconds(),
		CharCount:  len([]rune(res.translated)),
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "lang", "json", "verbose", "api-key-path"} {
			single := "-" + name
			if arg == single {
				normalized[i] = "-" + single
				break
			}
			if strings.HasPrefix(arg, single+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
