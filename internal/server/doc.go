/*
包 server 管理批处理期间暴露 Prometheus 指标的 HTTP 服务器。

# 核心类型

  - Manager：封装 net/http.Server 与 net.Listener，Start 同步绑定端口
    （地址错误立即返回），随后在后台 goroutine 中服务。
  - Config：监听地址、请求头读取超时、写入超时与优雅关闭超时。

# 主要能力

  - MetricsHandler：基于独立 prometheus.Registry 的 /metrics handler
  - Shutdown：在超时内排空请求，可重复调用
  - Errors：异步服务错误通道
*/
package server
