package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dociq/pagepdf/observability"
)

// jsonlSink is a line-oriented observability.Logger that writes one JSON
// object per call (§5 "logging sinks (JIT/perf JSONL), whose writes are
// bracketed per render and serialized"). Each Render builds its own sink
// (buildSink); writes through a sink are serialized by its mutex.
type jsonlSink struct {
	mu     sync.Mutex
	w      io.Writer
	fields []observability.Field
}

// newJSONLSink wraps w; nil w yields a sink whose writes are silently
// dropped (used when neither a debug nor a perf output path is
// configured, or the output file cannot be opened).
func newJSONLSink(w io.Writer) *jsonlSink {
	return &jsonlSink{w: w}
}

func (s *jsonlSink) log(level, msg string, fields []observability.Field) {
	if s.w == nil {
		return
	}
	rec := map[string]interface{}{
		"level": level,
		"msg":   msg,
		"ts":    nowFunc().UTC().Format(time.RFC3339Nano),
	}
	for _, f := range append(append([]observability.Field{}, s.fields...), fields...) {
		rec[f.Key()] = f.Value()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(rec); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	io.Copy(s.w, &buf)
}

func (s *jsonlSink) Debug(msg string, fields ...observability.Field) { s.log("debug", msg, fields) }
func (s *jsonlSink) Info(msg string, fields ...observability.Field)  { s.log("info", msg, fields) }
func (s *jsonlSink) Warn(msg string, fields ...observability.Field)  { s.log("warn", msg, fields) }
func (s *jsonlSink) Error(msg string, fields ...observability.Field) { s.log("error", msg, fields) }

func (s *jsonlSink) With(fields ...observability.Field) observability.Logger {
	return &jsonlSink{w: s.w, fields: append(append([]observability.Field{}, s.fields...), fields...)}
}

// bracket writes the opening/closing markers §5 calls "bracketed per
// render": one line naming the render's start, one naming its end,
// around whatever Debug/Info calls the render itself makes.
func (s *jsonlSink) bracket(name string) func(err error) {
	s.Info(fmt.Sprintf("%s.start", name))
	return func(err error) {
		if err != nil {
			s.Error(fmt.Sprintf("%s.end", name), observability.Error("error", err))
			return
		}
		s.Info(fmt.Sprintf("%s.end", name))
	}
}

// nowFunc is overridable so tests can pin a deterministic timestamp.
var nowFunc = time.Now
