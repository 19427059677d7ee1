package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	base := NewStd("tag literal unparsable")
	err := New(base).
		Component("api").
		Category(CategoryValidation).
		Context("tag", "crow;3").
		Build()

	assert.Equal(t, "tag literal unparsable", err.Error())
	assert.Equal(t, "api", err.GetComponent())
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, "crow;3", err.GetContext()["tag"])
	assert.True(t, Is(err, base))
}

func TestCategoryDetectionFromMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"not found", NewStd("record not found"), CategoryNotFound},
		{"validation", NewStd("invalid operation value"), CategoryValidation},
		{"network", NewStd("connection refused"), CategoryNetwork},
		{"generic", NewStd("something else"), CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := New(tt.err).Build()
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestIsCategoryHelpers(t *testing.T) {
	t.Parallel()

	nf := NotFoundError("no matching record for url")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsValidation(nf))

	// Category checks must survive wrapping.
	wrapped := fmt.Errorf("edit failed: %w", nf)
	assert.True(t, IsNotFound(wrapped))

	ve := ValidationError("missing url list")
	assert.True(t, IsValidation(ve))
}

func TestEnhancedErrorUnwrap(t *testing.T) {
	t.Parallel()

	base := NewStd("detector unavailable")
	err := New(base).Category(CategoryDetector).Build()

	require.NotNil(t, Unwrap(err))
	assert.Equal(t, base, Unwrap(err))
}
