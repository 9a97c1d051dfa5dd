package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	// Given/When: errors built from codes across categories
	cfg := New(ErrCodeConfigInvalid, "bad config", nil)
	graph := New(ErrCodeNotFound, "node 7 not found", nil)
	index := New(ErrCodeStoreFailure, "commit failed", nil)
	proj := New(ErrCodeUnsupportedType, "no handler", nil)

	// Then: category, severity, and retryability follow the code
	assert.Equal(t, CategoryConfig, cfg.Category)
	assert.Equal(t, CategoryGraph, graph.Category)
	assert.Equal(t, CategoryIndex, index.Category)
	assert.Equal(t, CategoryProjection, proj.Category)

	assert.Equal(t, SeverityWarning, graph.Severity)
	assert.Equal(t, SeverityFatal, index.Severity)
	assert.True(t, index.Retryable)
	assert.False(t, graph.Retryable)
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeRebuildBusy, "a full rebuild is already running", nil)

	assert.Equal(t, "[ERR_303_REBUILD_IN_PROGRESS] a full rebuild is already running", err.Error())
}

func TestIsNotFound_MatchesThroughWrapping(t *testing.T) {
	// Given: a not-found error wrapped by fmt
	inner := NotFound("node", 42)
	wrapped := fmt.Errorf("loading document: %w", inner)

	// Then: code-based matching survives the chain
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Contains(t, inner.Message, "42")
}

func TestWrap_PreservesCause(t *testing.T) {
	// Given: an underlying error
	cause := errors.New("disk full")

	// When: wrapping it with an index code
	err := Wrap(ErrCodeStoreFailure, cause)

	// Then: the chain and message carry the cause
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "disk full", err.Message)

	// And: wrapping nil stays nil
	assert.Nil(t, Wrap(ErrCodeStoreFailure, nil))
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeNotFound, "node missing", nil).
		WithDetail("node_id", "7").
		WithDetail("object_type", "Item")

	assert.Equal(t, "7", err.Details["node_id"])
	assert.Equal(t, "Item", err.Details["object_type"])
}

func TestGetCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(ErrCodeResolutionFailure, "walk failed", nil))

	assert.Equal(t, ErrCodeResolutionFailure, GetCode(wrapped))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestIsRetryableAndIsFatal(t *testing.T) {
	busy := New(ErrCodeRebuildBusy, "rebuild running", nil)
	corrupt := New(ErrCodeCorruptIndex, "index unreadable", nil)

	assert.True(t, IsRetryable(busy))
	assert.False(t, IsFatal(busy))
	assert.True(t, IsFatal(corrupt))
	assert.False(t, IsRetryable(errors.New("plain")))
}
