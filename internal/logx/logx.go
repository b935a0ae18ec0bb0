// Package logx contains the github.com/apex/log handlers used by our
// binaries. The runner logs to a terminal and uses [CLIHandler] while
// backends log to a captured stdout and use [PlainHandler].
package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

var bold = color.New(color.Bold)

// Colors mapping.
var Colors = [...]*color.Color{
	log.DebugLevel: color.New(color.FgWhite),
	log.InfoLevel:  color.New(color.FgBlue),
	log.WarnLevel:  color.New(color.FgYellow),
	log.ErrorLevel: color.New(color.FgRed),
	log.FatalLevel: color.New(color.FgRed),
}

// Strings mapping.
var Strings = [...]string{
	log.DebugLevel: "•",
	log.InfoLevel:  "•",
	log.WarnLevel:  "•",
	log.ErrorLevel: "⨯",
	log.FatalLevel: "⨯",
}

// CLIHandler is a coloured handler for interactive use.
type CLIHandler struct {
	mu      sync.Mutex
	Writer  io.Writer
	Padding int
}

var _ log.Handler = &CLIHandler{}

// NewCLIHandler creates a [CLIHandler] writing to w.
func NewCLIHandler(w io.Writer) *CLIHandler {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
	}
	return &CLIHandler{
		Writer:  w,
		Padding: 3,
	}
}

// HandleLog implements log.Handler.
func (h *CLIHandler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	color := Colors[e.Level]
	level := Strings[e.Level]
	s := color.Sprintf("%s %-25s", bold.Sprintf("%*s", h.Padding+1, level), e.Message)
	for _, name := range e.Fields.Names() {
		s += fmt.Sprintf(" %s=%v", color.Sprint(name), e.Fields.Get(name))
	}
	_, err := fmt.Fprintln(h.Writer, s)
	return err
}

// PlainHandler emits uncoloured lines prefixed by the number of seconds
// elapsed since the handler was created.
type PlainHandler struct {
	mu     sync.Mutex
	start  time.Time
	Writer io.Writer
}

var _ log.Handler = &PlainHandler{}

// NewPlainHandler creates a [PlainHandler] writing to w.
func NewPlainHandler(w io.Writer) *PlainHandler {
	return &PlainHandler{start: time.Now(), Writer: w}
}

// HandleLog implements log.Handler.
func (h *PlainHandler) HandleLog(e *log.Entry) (err error) {
	s := fmt.Sprintf("[%14.6f] <%s> %s", time.Since(h.start).Seconds(), e.Level, e.Message)
	if len(e.Fields) > 0 {
		s += fmt.Sprintf(": %+v", e.Fields)
	}
	s += "\n"
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.Writer.Write([]byte(s))
	return
}

// Setup installs handler as the apex/log handler and selects the level.
func Setup(handler log.Handler, verbose bool) {
	log.SetHandler(handler)
	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.InfoLevel)
}
