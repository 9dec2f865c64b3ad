// Package ocr runs the external text recognition tool over a screenshot.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBinary   = "tesseract"
	DefaultLanguage = "deu"
	DefaultTimeout  = 30 * time.Second
)

// Config selects the recognition binary, its language pack and the time limit per run.
type Config struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

// Result is the output of one recognition run. On failure Text is empty, OK is false and
// Err says why.
type Result struct {
	Text string `json:"text"`
	OK   bool   `json:"ok"`
	Err  error  `json:"-"`
}

// Runner invokes the recognition tool as `<binary> <file> stdout -l <language>`.
type Runner struct {
	cfg Config
}

// NewRunner fills unset fields of cfg with the defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Runner{cfg: cfg}
}

// Recognize runs the tool on path. A missing binary, a timeout and a non-zero exit are
// reported in the result, never returned as a Go error.
func (r *Runner) Recognize(ctx context.Context, path string) Result {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.cfg.Binary, path, "stdout", "-l", r.cfg.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("recognition timed out after %s", r.cfg.Timeout)
	case err != nil:
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("recognition failed: %w: %s", err, msg)
		} else {
			err = fmt.Errorf("recognition failed: %w", err)
		}
	}
	if err != nil {
		logrus.Warnf("ocr of %s failed: %v", path, err)
		return Result{Err: err}
	}

	logrus.Debugf("ocr of %s produced %d bytes", path, stdout.Len())
	return Result{Text: stdout.String(), OK: true}
}
