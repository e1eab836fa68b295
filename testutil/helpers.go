// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	dir := testutil.WriteFiles(t, map[string]string{"report_VAC_1.json": "{}"})
//	db := testutil.NewTestDB(t)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/internal/database"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertJSONEqual 断言两个值序列化后的 JSON 等价
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()
	require.JSONEq(t, string(MustJSON(t, expected)), string(MustJSON(t, actual)))
}

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, condition, timeout, 10*time.Millisecond)
}

// MustJSON 序列化 v，失败时终止测试
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	if raw, ok := v.(string); ok {
		return []byte(raw)
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// =============================================================================
// 📁 文件辅助
// =============================================================================

// WriteFiles 在临时目录中写入 name → content 文件并返回目录
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// ReadFile 读取文件内容，失败时终止测试
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// =============================================================================
// 🗄️ 数据库辅助
// =============================================================================

// NewTestPool 打开纯 Go 的内存 sqlite 连接池，测试结束时关闭。
// 连接池固定为单连接，所有语句共享同一个内存库。
func NewTestPool(t *testing.T) *database.PoolManager {
	t.Helper()
	pm, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

// NewTestDB 返回 NewTestPool 的 gorm 实例
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewTestPool(t).DB()
}
