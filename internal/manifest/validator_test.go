package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SchemaCompiles(t *testing.T) {
	schema, err := getSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)
}

func TestValidate_Valid(t *testing.T) {
	result, err := Validate([]byte(`[{"identity": "a", "source": "http://x/a.js"}]`), FormatJSON)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
}

func TestValidate_IssueFields(t *testing.T) {
	result, err := Validate([]byte(`[{"identity": "a", "source": 7}]`), FormatJSON)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Issues)

	issue := result.Issues[0]
	assert.Equal(t, "/0/source", issue.Path)
	assert.Equal(t, "type", issue.Keyword)
	assert.NotEmpty(t, issue.Message)
	assert.Contains(t, result.Summary(), "/0/source")
}

func TestValidateFile_TopLevelObject(t *testing.T) {
	path := writeManifest(t, "bad.yaml", "a: http://x/a.js\n")
	result, err := ValidateFile(path)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, objectHint, result.Hint)
}
