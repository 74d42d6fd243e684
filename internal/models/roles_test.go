package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_OrDefault(t *testing.T) {
	assert.Equal(t, RoleStandard, Role("").OrDefault())
	assert.Equal(t, RoleStandard, Role("root").OrDefault())
	assert.Equal(t, RoleAdmin, RoleAdmin.OrDefault())
	assert.True(t, RoleStandard.Valid())
	assert.False(t, Role("player").Valid())
}
