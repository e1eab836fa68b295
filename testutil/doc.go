/*
Package testutil 提供 reportrepair 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext
  - 断言工具: AssertJSONEqual / AssertEventuallyTrue
  - 文件工具: WriteFiles / ReadFile，在临时目录中构造输入
  - 数据库: NewTestPool / NewTestDB 打开内存 sqlite（glebarez 纯 Go 驱动）

# 子包

  - testutil/mocks: MockProvider（llm.Provider），支持 Builder 模式与错误注入
  - testutil/fixtures: 报告原文与各类生成器输出样例
*/
package testutil
