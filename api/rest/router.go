package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/config"
	"github.com/unrealsaint/lucera2missionparser/editor"
	mw "github.com/unrealsaint/lucera2missionparser/middleware"
	"github.com/unrealsaint/lucera2missionparser/scheduler"
	"go.uber.org/zap"
)

// Deps are the collaborators the REST routes need.
type Deps struct {
	Editor    *editor.Service
	Scheduler *scheduler.Scheduler
	Cache     cache.Cache
	Server    config.ServerConfig
	Security  config.SecurityConfig
	Logger    *zap.Logger
}

// Register mounts every /api route on api.
func Register(api *gin.RouterGroup, d Deps) {
	authH := NewAuthHandler(d.Cache, d.Security, d.Logger)
	rewardH := NewRewardHandler(d.Editor, NewRewardValidator())
	catalogH := NewCatalogHandler(d.Editor)
	adminH := NewAdminHandler(d.Editor, d.Scheduler)
	auth := mw.Auth(d.Security, d.Cache)

	authG := api.Group("/auth")
	authG.POST("/login", authH.Login)
	authG.POST("/logout", auth, authH.Logout)
	authG.POST("/refresh", auth, authH.Refresh)

	rewardsG := api.Group("/rewards")
	rewardsG.Use(auth, WithActor())
	rewardsG.GET("", rewardH.List)
	rewardsG.POST("", rewardH.Create)
	rewardsG.POST("/delete", rewardH.BulkDelete)
	rewardsG.GET("/:id", rewardH.Get)
	rewardsG.PUT("/:id", rewardH.Update)
	rewardsG.DELETE("/:id", rewardH.Delete)

	catalogG := api.Group("/catalog")
	catalogG.Use(auth, WithActor())
	catalogG.POST("/load", catalogH.Load)
	catalogG.POST("/save", catalogH.Save)
	catalogG.GET("/export", catalogH.Export)
	catalogG.POST("/import", catalogH.Import)
	catalogG.POST("/snapshot", catalogH.Snapshot)
	catalogG.POST("/restore", catalogH.Restore)

	adminG := api.Group("/admin")
	adminG.Use(mw.IPWhitelist(d.Security.AdminIPs), AdminAuth(d.Server.AdminKey))
	adminG.GET("/metrics", adminH.Metrics)
	adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	adminG.POST("/export", adminH.RunExport)
}
