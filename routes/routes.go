package routes

import (
	"net/http"

	"parkingreserve/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由需要的處理器
type Handlers struct {
	Members      *handlers.MemberHandler
	Slots        *handlers.SlotHandler
	Reservations *handlers.ReservationHandler
}

// NewRouter 建立 gin 引擎與所有路由
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestIDMiddleware(), MetricsMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		handlers.ErrorResponse(c, http.StatusNotFound, "頁面不存在", "route not found", "ERR_NOT_FOUND")
	})

	api := r.Group("/api")
	{
		Path(api, h)
	}
	return r
}

func Path(router *gin.RouterGroup, h Handlers) {
	// 版本控制
	v1 := router.Group("/v1")
	{
		// 測試路由
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		// 會員路由
		members := v1.Group("/members")
		{
			// 公開路由：不需要 token 驗證
			members.POST("/register", h.Members.Register) // 註冊會員
			members.POST("/login", h.Members.Login)       // 登入會員並獲取 token

			// 受保護路由：需要 token 驗證
			membersWithAuth := members.Group("")
			membersWithAuth.Use(AuthMiddleware())
			{
				membersWithAuth.GET("/profile", h.Members.Profile)
				membersWithAuth.DELETE("/profile", h.Members.DeleteProfile) // 刪除帳號並釋放車位
			}
		}

		// 車位路由
		slots := v1.Group("/slots")
		slots.Use(AuthMiddleware())
		{
			slots.GET("", h.Slots.ListSlots)
			slots.GET("/available", h.Slots.ListAvailableSlots)
			slots.GET("/:id", h.Slots.GetSlot)
		}

		// 預約路由
		reservations := v1.Group("/reservations")
		reservations.Use(AuthMiddleware())
		{
			reservations.POST("", h.Reservations.CreateReservation)
			reservations.GET("", h.Reservations.ListMyReservations)
			reservations.POST("/verify", h.Reservations.VerifyReservation) // 掃描憑證
			reservations.GET("/:id", h.Reservations.GetReservation)
			reservations.POST("/:id/checkout", h.Reservations.CheckoutReservation)
		}
	}
}
