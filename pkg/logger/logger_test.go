package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	lines []string
}

func (r *recorder) Debug(m string, _ ...any) { r.lines = append(r.lines, "debug:"+m) }
func (r *recorder) Info(m string, _ ...any)  { r.lines = append(r.lines, "info:"+m) }
func (r *recorder) Warn(m string, _ ...any)  { r.lines = append(r.lines, "warn:"+m) }
func (r *recorder) Error(m string, _ ...any) { r.lines = append(r.lines, "error:"+m) }
func (r *recorder) Fatal(m string, _ ...any) { r.lines = append(r.lines, "fatal:"+m) }

func TestUninitialisedIsSilent(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() {
		Info("nothing")
		Debug("nothing", "k", 1)
	})
}

func TestDispatchToAllBackends(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Init(a, b)
	defer Reset()

	Info("hello", "k", "v")
	Warn("careful")
	Debug("detail")

	want := []string{"info:hello", "warn:careful", "debug:detail"}
	assert.Equal(t, want, a.lines)
	assert.Equal(t, want, b.lines)
}
