package raster

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/observability"
)

// Rasterizer renders the first page of a PDF file as PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, dpi int) ([]byte, error)
}

// Pdftoppm rasterises with poppler's pdftoppm.
type Pdftoppm struct {
	// Binary overrides the executable name or path. Default "pdftoppm".
	Binary string
}

func (p Pdftoppm) binary() string {
	if p.Binary == "" {
		return "pdftoppm"
	}
	return p.Binary
}

// Available reports whether the pdftoppm executable can be found.
func (p Pdftoppm) Available() bool {
	_, err := exec.LookPath(p.binary())
	return err == nil
}

// Rasterize implements Rasterizer. The PNG is written to stdout so no
// temporary files are involved.
func (p Pdftoppm) Rasterize(ctx context.Context, path string, dpi int) ([]byte, error) {
	bin, err := exec.LookPath(p.binary())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterizeFailed, err,
			"%s not found (install poppler: brew install poppler, apt install poppler-utils)", p.binary())
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin,
		"-png", "-singlefile",
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(dpi),
		path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	observability.Raster().OnRasterize(ctx, path, dpi, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Wrap(errors.ErrCodeRasterizeFailed, err, "pdftoppm %s: %s", path, msg)
	}
	if stdout.Len() == 0 {
		return nil, errors.New(errors.ErrCodeRasterizeFailed, "pdftoppm %s produced no output", path)
	}
	return stdout.Bytes(), nil
}
