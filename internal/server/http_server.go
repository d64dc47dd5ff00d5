package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"camoufox-launcher/internal/supervisor"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatusSource 提供实例状态的只读视图
type StatusSource interface {
	State() supervisor.State
	Snapshot() []supervisor.InstanceStatus
}

// HTTPServer 只读状态服务器
type HTTPServer struct {
	source  StatusSource
	metrics http.Handler
	router  *gin.Engine

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewHTTPServer 创建状态服务器，metrics 为空时不注册 /metrics
func NewHTTPServer(source StatusSource, metrics http.Handler) *HTTPServer {
	s := &HTTPServer{
		source:  source,
		metrics: metrics,
	}
	s.router = s.setupRoutes()
	return s
}

// Start 启动服务器（不处理信号，阻塞直到 Shutdown）
func (s *HTTPServer) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	logrus.Infof("启动状态服务器: %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// setupRoutes 设置路由
func (s *HTTPServer) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 设置gin使用logrus的输出
	gin.DefaultWriter = logrus.StandardLogger().Out
	gin.DefaultErrorWriter = logrus.StandardLogger().Out

	router := gin.New()
	router.Use(s.ginLogrusMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", s.healthHandler)

	api := router.Group("/api/v1")
	{
		api.GET("/instances", s.instancesHandler)
	}

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	return router
}

// ginLogrusMiddleware 使用logrus的gin日志中间件
func (s *HTTPServer) ginLogrusMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logrus.WithFields(logrus.Fields{
			"status":  param.StatusCode,
			"method":  param.Method,
			"path":    param.Path,
			"ip":      param.ClientIP,
			"latency": param.Latency,
		}).Debug("HTTP请求")

		// 返回空字符串，因为我们已经通过logrus记录了
		return ""
	})
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// InstancesResponse 实例列表
type InstancesResponse struct {
	State     string                      `json:"state"`
	Total     int                         `json:"total"`
	Running   int                         `json:"running"`
	Instances []supervisor.InstanceStatus `json:"instances"`
}

// respondSuccess 返回成功响应
func (s *HTTPServer) respondSuccess(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// healthHandler 健康检查（启动器自身）
func (s *HTTPServer) healthHandler(c *gin.Context) {
	s.respondSuccess(c, map[string]any{
		"status":    "healthy",
		"service":   "camoufox-launcher",
		"timestamp": time.Now().Unix(),
	}, "服务正常")
}

// instancesHandler 返回每个已启动实例的状态
func (s *HTTPServer) instancesHandler(c *gin.Context) {
	instances := s.source.Snapshot()

	running := 0
	for _, inst := range instances {
		if !inst.Exited {
			running++
		}
	}

	s.respondSuccess(c, InstancesResponse{
		State:     s.source.State().String(),
		Total:     len(instances),
		Running:   running,
		Instances: instances,
	}, "")
}
