package api

import (
	"Hydro/internal/api/handler"
	"Hydro/internal/service"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler     *handler.UserHandler
	AnalysisHandler *handler.AnalysisHandler
	WaterHandler    *handler.WaterHandler
	FavoriteHandler *handler.FavoriteHandler
	WorkerHandler   *handler.WorkerHandler

	// 鉴权中间件依赖
	UserService service.UserService
}
