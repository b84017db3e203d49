package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stache/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger returns a logger writing uncolored output into a buffer.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		goldenName string
	}{
		{name: "simple message", msg: "rendered index", goldenName: "info_basic"},
		{name: "empty message", msg: "", goldenName: "info_empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Info(tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Warn(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		goldenName string
	}{
		{name: "simple warning", msg: "2 template(s) with diagnostics", goldenName: "warn_basic"},
		{name: "multiline warning", msg: "first\nsecond", goldenName: "warn_multiline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Warn(tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error(t *testing.T) {
	errDenied := errors.New("open footer.mustache: permission denied")

	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name:       "multiline error",
			err:        errors.New("yaml: unmarshal errors:\n  line 3: field foo not found in type config.Stachefile"),
			goldenName: "error_multiline",
		},
		{
			name: "three level zerr chain",
			err: zerr.Wrap(
				zerr.Wrap(
					errors.New("open templates/footer.mustache: permission denied"),
					"failed to read template",
				),
				"failed to render root",
			),
			goldenName: "error_chain_zerr_three",
		},
		{
			name:       "two level zerr chain",
			err:        zerr.Wrap(errors.New("unexpected EOF"), "failed to load config"),
			goldenName: "error_chain_zerr_two",
		},
		{
			name: "stdlib chain is printed whole",
			err: fmt.Errorf("failed to initialize watcher: %w",
				fmt.Errorf("failed to watch directory: %w", errors.New("too many open files"))),
			goldenName: "error_chain_stdlib",
		},
		{
			name:       "single metadata field",
			err:        zerr.With(zerr.New("template has a cyclic include"), "template", "index"),
			goldenName: "error_metadata_single",
		},
		{
			name: "metadata keys are sorted",
			err: func() error {
				e := zerr.New("template is not renderable")
				e = zerr.With(e, "root", "index")
				e = zerr.With(e, "diagnostics", 2)
				return e
			}(),
			goldenName: "error_metadata_sorted",
		},
		{
			name: "metadata on main error and cause",
			err: func() error {
				inner := zerr.With(zerr.New("include depth exceeded"), "depth", 65)
				outer := zerr.Wrap(inner, "failed to render root")
				return zerr.With(outer, "root", "index")
			}(),
			goldenName: "error_metadata_partial",
		},
		{
			name: "metadata on a joined sentinel",
			err: zerr.With(
				errors.Join(errors.New("failed to read template"), errDenied),
				"path", "/proj/templates/footer.mustache",
			),
			goldenName: "error_metadata_joined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		lg, buf := newTestLogger(t)
		lg.SetJSON(true)
		lg.Error(errors.New("test error message"))

		out := buf.String()
		assert.Contains(t, out, `"error":"test error message"`)
		assert.Contains(t, out, `"level":"ERROR"`)
		assert.NotContains(t, out, "✗")
	})

	t.Run("disabled", func(t *testing.T) {
		lg, buf := newTestLogger(t)
		lg.SetJSON(false)
		lg.Error(errors.New("test error message"))

		g := goldie.New(t)
		g.Assert(t, "setjson_disabled", buf.Bytes())
	})
}

func TestLogger_SetJSON_WithMetadata(t *testing.T) {
	err := zerr.With(
		zerr.Wrap(errors.New("no such file"), "failed to read template"),
		"template", "footer",
	)

	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, "failed to read template: no such file")
	assert.Contains(t, out, `"metadata":{"template":"footer"}`)
	assert.NotContains(t, out, "✗")
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.New("pretty"))
	pretty := buf.String()
	buf.Reset()

	lg.SetJSON(true)
	lg.Error(errors.New("json"))
	jsonOut := buf.String()
	buf.Reset()

	lg.SetJSON(false)
	lg.Error(errors.New("pretty again"))
	again := buf.String()

	assert.Contains(t, pretty, "✗")
	assert.Contains(t, jsonOut, `"error"`)
	assert.NotContains(t, jsonOut, "✗")
	assert.Contains(t, again, "✗ Error: pretty again")
}

func TestLogger_SetOutput_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		lg := logger.New().(*logger.Logger)
		lg.SetOutput(nil)
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)
	lg.SetOutput(io.Discard)

	var wg sync.WaitGroup
	wg.Go(func() { lg.Info("concurrent info") })
	wg.Go(func() { lg.Warn("concurrent warn") })
	wg.Go(func() { lg.Error(errors.New("concurrent error")) })
	wg.Go(func() { lg.SetJSON(true) })
	wg.Go(func() { lg.SetJSON(false) })
	wg.Go(func() { lg.SetOutput(io.Discard) })
	wg.Wait()
}
