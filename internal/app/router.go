package app

import (
	"quizmind_backend/docs"
	"quizmind_backend/internal/config"
	"quizmind_backend/internal/middleware"
	"quizmind_backend/pkg/monitoring"
	"quizmind_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. AI 动作直连端点：历史契约，宽松 CORS，裸 JSON 响应
	ai := router.Group("/api/quiz/ai")
	ai.Use(security.PermissiveCORS())
	{
		// 预检由 PermissiveCORS 以空 200 截获；该端点不要求登录，
		// 与会话无关，供老前端直接调用
		ai.OPTIONS("", func(*gin.Context) {})
		ai.POST("", c.quizAI.Dispatch)
	}

	// 3. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerQuizRoutes(authGroup, c)
		a.registerUserRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	quiz := rg.Group("/quiz")
	{
		// 会话：状态机从创建走到结果
		sessions := quiz.Group("/sessions")
		{
			sessions.POST("", c.session.Create)
			sessions.GET("/:id", c.session.Get)
			sessions.DELETE("/:id", c.session.Delete)
			sessions.POST("/:id/generate", c.session.Generate)
			sessions.POST("/:id/answer", c.session.Answer)
			sessions.POST("/:id/next", c.session.Next)
			sessions.POST("/:id/prev", c.session.Prev)
			sessions.POST("/:id/finish", c.session.Finish)
			sessions.GET("/:id/certificate", c.session.Certificate)
		}

		// 历史与榜单
		quiz.GET("/history", c.history.List)
		quiz.GET("/history/:id", c.history.Get)
		quiz.GET("/leaderboard", c.leaderboard.Top)

		// 出题素材
		quiz.POST("/documents", c.document.Upload)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	users := rg.Group("/users")
	{
		users.GET("/profile", c.user.GetProfile)
		users.PUT("/profile", c.user.UpdateProfile)
	}
}
