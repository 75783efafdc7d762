package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeAnnouncement_Valid 测试合法报文解码
func TestDecodeAnnouncement_Valid(t *testing.T) {
	data := []byte(`{
		"service": "shards-debug-adapter",
		"instance": {"name": "game", "port": 57427, "protocol": "dap", "args": "shards run game.shs"},
		"version": "0.9",
		"capabilities": {"breakpoints": true, "stepBack": false}
	}`)

	a, err := DecodeAnnouncement(data)
	require.NoError(t, err)
	assert.Equal(t, ServiceName, a.Service)
	assert.Equal(t, "game", a.Instance.Name)
	assert.Equal(t, 57427, a.Instance.Port)
	assert.Equal(t, "dap", a.Instance.Protocol)
	assert.Equal(t, "shards run game.shs", a.Instance.Args)
	assert.Equal(t, "0.9", a.Version)
	assert.Equal(t, Capabilities{"breakpoints": true, "stepBack": false}, a.Capabilities)
}

// TestDecodeAnnouncement_OptionalFields 测试可选字段缺失
func TestDecodeAnnouncement_OptionalFields(t *testing.T) {
	a, err := DecodeAnnouncement([]byte(`{"service":"shards-debug-adapter","instance":{"port":4000}}`))
	require.NoError(t, err)
	assert.Empty(t, a.Instance.Name)
	assert.Empty(t, a.Instance.Args)
	assert.Nil(t, a.Capabilities)
}

// TestDecodeAnnouncement_ExtraFields 测试未知字段被忽略
func TestDecodeAnnouncement_ExtraFields(t *testing.T) {
	data := []byte(`{"service":"shards-debug-adapter","instance":{"port":4000,"pid":12},"future":{"x":1},"version":"2"}`)

	a, err := DecodeAnnouncement(data)
	require.NoError(t, err)
	assert.Equal(t, 4000, a.Instance.Port)
}

// TestDecodeAnnouncement_LenientCapabilities 测试非布尔能力值被忽略
func TestDecodeAnnouncement_LenientCapabilities(t *testing.T) {
	data := []byte(`{"service":"shards-debug-adapter","instance":{"port":4000},"capabilities":{"a":true,"b":"yes","c":{"nested":1}}}`)

	a, err := DecodeAnnouncement(data)
	require.NoError(t, err)
	assert.Equal(t, Capabilities{"a": true}, a.Capabilities)
}

// TestDecodeAnnouncement_LenientVersion 测试 version 与 capabilities 类型不符时仍接受报文
func TestDecodeAnnouncement_LenientVersion(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"数字 version", `{"service":"shards-debug-adapter","instance":{"name":"game","port":4000},"version":2}`},
		{"对象 version", `{"service":"shards-debug-adapter","instance":{"name":"game","port":4000},"version":{"major":1}}`},
		{"数组 capabilities", `{"service":"shards-debug-adapter","instance":{"name":"game","port":4000},"capabilities":[1,2]}`},
		{"null 字段", `{"service":"shards-debug-adapter","instance":{"name":"game","port":4000},"version":null,"capabilities":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeAnnouncement([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "game", a.Instance.Name)
			assert.Equal(t, 4000, a.Instance.Port)
			assert.Empty(t, a.Version)
			assert.Nil(t, a.Capabilities)
		})
	}
}

// TestDecodeAnnouncement_Rejected 测试各类应丢弃的报文
func TestDecodeAnnouncement_Rejected(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"非 UTF-8", []byte{0xff, 0xfe, 0xfd}, ErrNotUTF8},
		{"非 JSON", []byte("hello"), ErrMalformed},
		{"截断 JSON", []byte(`{"service":"shards-debug-adapter"`), ErrMalformed},
		{"数组", []byte(`[1,2,3]`), ErrMalformed},
		{"端口类型错误", []byte(`{"service":"shards-debug-adapter","instance":{"port":"57427"}}`), ErrMalformed},
		{"缺少 service", []byte(`{"instance":{"port":57427}}`), ErrWrongService},
		{"错误 service", []byte(`{"service":"other","instance":{"port":57427}}`), ErrWrongService},
		{"null", []byte(`null`), ErrWrongService},
		{"缺少 instance", []byte(`{"service":"shards-debug-adapter"}`), ErrInvalidPort},
		{"端口为 0", []byte(`{"service":"shards-debug-adapter","instance":{"port":0}}`), ErrInvalidPort},
		{"端口过大", []byte(`{"service":"shards-debug-adapter","instance":{"port":70000}}`), ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeAnnouncement(tt.data)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestAnnouncement_Encode 测试编码后可被解码
func TestAnnouncement_Encode(t *testing.T) {
	data, err := NewAnnouncement("editor", 9000).Encode()
	require.NoError(t, err)

	a, err := DecodeAnnouncement(data)
	require.NoError(t, err)
	assert.Equal(t, "editor", a.Instance.Name)
	assert.Equal(t, 9000, a.Instance.Port)
}

// TestDecodeAnnouncementFor 测试自定义 service
func TestDecodeAnnouncementFor(t *testing.T) {
	data := []byte(`{"service":"custom","instance":{"port":4000}}`)

	a, err := DecodeAnnouncementFor(data, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", a.Service)

	_, err = DecodeAnnouncement(data)
	assert.ErrorIs(t, err, ErrWrongService)
}
