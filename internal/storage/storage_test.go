package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenDigest(t *testing.T) {
	a := TokenDigest("header.payload.signature")

	assert.Len(t, a, 64)
	assert.Equal(t, a, TokenDigest("header.payload.signature"))
	assert.NotEqual(t, a, TokenDigest("header.payload.signaturf"))
	assert.NotContains(t, a, "payload")
}
