package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInstanceKey_String 测试实例标识格式
func TestInstanceKey_String(t *testing.T) {
	k := InstanceKey{Address: "192.168.1.20", Port: 57427}
	assert.Equal(t, "192.168.1.20:57427", k.String())
}

// TestDefaultName 测试由端口派生的默认名称
func TestDefaultName(t *testing.T) {
	assert.Equal(t, "Shards Instance (4000)", DefaultName(4000))
}

// TestInstance_Clone 测试深拷贝不共享能力表
func TestInstance_Clone(t *testing.T) {
	orig := Instance{Capabilities: map[string]bool{"a": true}}
	c := orig.Clone()
	c.Capabilities["a"] = false

	assert.True(t, orig.Capabilities["a"])
}

// TestInstance_Record 测试观察者视图的 JSON 字段
func TestInstance_Record(t *testing.T) {
	inst := Instance{
		Key:     InstanceKey{Address: "10.0.0.2", Port: 4000},
		Name:    "game",
		Args:    "shards run",
		Address: "10.0.0.2",
		Port:    4000,
		Running: true,
	}

	data, err := json.Marshal(inst.Record())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"10.0.0.2:4000","name":"game","executableArgs":"shards run","port":4000,"ipAddress":"10.0.0.2","isRunning":true}`, string(data))
}

// TestRunning 测试运行中实例过滤
func TestRunning(t *testing.T) {
	list := []Instance{
		{Name: "a", Running: true},
		{Name: "b"},
		{Name: "c", Running: true},
	}

	got := Running(list)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
}

// TestFindByID 测试按 ID 查找
func TestFindByID(t *testing.T) {
	list := []Instance{
		{Key: InstanceKey{Address: "1.1.1.1", Port: 1}},
		{Key: InstanceKey{Address: "2.2.2.2", Port: 2}},
	}

	inst, ok := FindByID(list, "2.2.2.2:2")
	assert.True(t, ok)
	assert.Equal(t, 2, inst.Key.Port)

	_, ok = FindByID(list, "3.3.3.3:3")
	assert.False(t, ok)
}

// TestEndpoint 测试附加目标
func TestEndpoint(t *testing.T) {
	ep := DefaultEndpoint()
	assert.Equal(t, "127.0.0.1:57427", ep.String())
	assert.NoError(t, ep.Validate())

	assert.Equal(t, "[::1]:80", Endpoint{Address: "::1", Port: 80}.String())
	assert.ErrorIs(t, Endpoint{Port: 80}.Validate(), ErrEmptyAddress)
	assert.ErrorIs(t, Endpoint{Address: "x", Port: 0}.Validate(), ErrPortOutOfRange)
}
