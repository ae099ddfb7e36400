package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldMigrate(t *testing.T) {
	// debug 模式启动即迁移
	assert.True(t, ShouldMigrate(false, "debug"))
	assert.True(t, ShouldMigrate(true, "debug"))

	// release 模式必须 --migrate 显式开启
	assert.False(t, ShouldMigrate(false, "release"))
	assert.True(t, ShouldMigrate(true, "release"))
}
