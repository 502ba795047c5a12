package logging

import (
	"errors"
	"testing"
)

func TestDiscardNeverPanics(t *testing.T) {
	Discard.Log("section", "a", 1)
	Discard.Error("section", errors.New("boom"), "a", 1)
}

func TestNewStderrOnly(t *testing.T) {
	l := New(Config{Verbose: true})
	l.Log("test.stderr", "k", "v")
}

func TestNewWithFile(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{FilePath: dir + "/colorist.log"})
	l.Log("test.file")
	l.Error("test.file", errors.New("boom"))
}
