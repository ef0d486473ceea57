package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignmentLabelRoundTrip(t *testing.T) {
	for _, alignment := range []Alignment{AlignmentFail, AlignmentUnknown, AlignmentPass} {
		parsed, err := ParseAlignment(alignment.String())
		require.NoError(t, err)
		assert.Equal(t, alignment, parsed)
	}

	_, err := ParseAlignment("partial")
	assert.Error(t, err)
}

func TestDispositionLabelRoundTrip(t *testing.T) {
	for _, disposition := range []Disposition{DispositionReject, DispositionQuarantine, DispositionNone} {
		parsed, err := ParseDisposition(disposition.String())
		require.NoError(t, err)
		assert.Equal(t, disposition, parsed)
	}

	_, err := ParseDisposition("drop")
	assert.Error(t, err)
}

func TestWorstCaseOrdering(t *testing.T) {
	// MIN over record codes has to pick the worst outcome.
	assert.Less(t, int(AlignmentFail), int(AlignmentPass))
	assert.Less(t, int(DispositionReject), int(DispositionQuarantine))
	assert.Less(t, int(DispositionQuarantine), int(DispositionNone))
}
