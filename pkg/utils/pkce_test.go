package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeChallenge(t *testing.T) {
	// RFC 7636 附录 B
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", CodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))

	v1, err := NewCodeVerifier()
	require.NoError(t, err)
	v2, err := NewCodeVerifier()
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
	assert.GreaterOrEqual(t, len(v1), 43)
}
