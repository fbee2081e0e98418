package routes

import (
	"net/http"

	"memo-app/src/config"
	"memo-app/src/interface/handler"
	"memo-app/src/middleware"
	"memo-app/src/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all API routes
func SetupRoutes(r *gin.Engine, memoHandler *handler.MemoHandler, cfg *config.Config, jwtService service.JWTService) {
	api := r.Group("/api")
	api.Use(middleware.LoggerMiddleware())
	api.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	api.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))

	// プリフライトは認証より前にCORSMiddlewareが204で応答する
	api.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	memos := api.Group("/memos")
	// AUTH_ENABLED=true のときだけBearerトークンを要求
	if cfg.Auth.Enabled && jwtService != nil {
		memos.Use(middleware.AuthMiddleware(jwtService))
	}
	{
		// 一覧と検索
		memos.GET("", memoHandler.ListMemos)          // GET /api/memos?search=
		memos.GET("/search", memoHandler.SearchMemos) // GET /api/memos/search?q=
		memos.PUT("/query", memoHandler.SetQuery)     // PUT /api/memos/query

		// 編集操作
		memos.POST("", memoHandler.AddMemo)                    // POST /api/memos
		memos.POST("/:id/edit", memoHandler.BeginEdit)         // POST /api/memos/:id/edit
		memos.PATCH("/:id/content", memoHandler.ChangeContent) // PATCH /api/memos/:id/content
		memos.PUT("/:id", memoHandler.SaveMemo)                // PUT /api/memos/:id
		memos.POST("/:id/cancel", memoHandler.CancelEdit)      // POST /api/memos/:id/cancel
		memos.DELETE("/:id", memoHandler.DeleteMemo)           // DELETE /api/memos/:id?confirm=true
	}
}
