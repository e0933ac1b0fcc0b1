package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	cause := errors.New("stat FAQ.pdf: no such file")
	err := Wrap(ErrFileNotFound, cause, "file not found: %s", "FAQ.pdf")

	if !errors.Is(err, ErrFileNotFound) {
		t.Error("wrapped error should match ErrFileNotFound")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("wrapped error should not match ErrUnsupportedFormat")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}

	outer := fmt.Errorf("ingest: %w", err)
	if !errors.Is(outer, ErrFileNotFound) {
		t.Error("fmt-wrapped error should still match")
	}
}

func TestError_Message(t *testing.T) {
	err := NewError(CodeConfiguration, "missing key")
	if err.Error() != "[CONFIGURATION] missing key" {
		t.Errorf("got %q", err.Error())
	}
	wrapped := Wrap(ErrEmbeddingProvider, errors.New("timeout"), "batch %d", 2)
	if wrapped.Error() != "[EMBEDDING_PROVIDER] batch 2: timeout" {
		t.Errorf("got %q", wrapped.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrFileNotFound, nil, "x"), true},
		{Wrap(ErrIndexBuild, errors.New("boom"), "x"), true},
		{Wrap(ErrProviderMismatch, nil, "x"), true},
		{Wrap(ErrGenerationProvider, nil, "x"), false},
		{ErrEmptyQuestion, false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestManifest_MatchesSource(t *testing.T) {
	m := &Manifest{Source: "/docs/FAQ.pdf", SourceSize: 42, SourceModTime: 1000}
	if !m.MatchesSource("/docs/FAQ.pdf", 42, unixNano(1000)) {
		t.Error("expected match")
	}
	if m.MatchesSource("/docs/FAQ.pdf", 43, unixNano(1000)) {
		t.Error("size change should not match")
	}
	if m.MatchesSource("/docs/other.pdf", 42, unixNano(1000)) {
		t.Error("path change should not match")
	}
}
