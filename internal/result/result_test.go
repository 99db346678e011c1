package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	ok := Succeed()
	assert.True(t, ok.OK)
	assert.Empty(t, ok.Message)
	assert.NoError(t, ok.Error())

	failed := Failed("bot k1 failed: invalid webhook url")
	assert.False(t, failed.OK)
	assert.Equal(t, "bot k1 failed: invalid webhook url", failed.Message)
	assert.EqualError(t, failed.Error(), "bot k1 failed: invalid webhook url")
}
