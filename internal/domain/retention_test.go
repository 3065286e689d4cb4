package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionPolicyValidate(t *testing.T) {
	require.NoError(t, RetentionPolicy{MaxAgeDays: 30}.Validate())
	require.NoError(t, RetentionPolicy{MaxAgeDays: 1}.Validate())

	assert.Error(t, RetentionPolicy{MaxAgeDays: -1}.Validate())

	// Zero means purge-everything and needs the explicit override.
	assert.Error(t, RetentionPolicy{MaxAgeDays: 0}.Validate())
	assert.NoError(t, RetentionPolicy{MaxAgeDays: 0, AllowPurge: true}.Validate())
}
