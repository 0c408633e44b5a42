package handler

import (
	"Hydro/internal/api/middleware"
	"Hydro/internal/pkg/util"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

// bindJSON 绑定后再按 validate 标签校验
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return err
	}
	return util.ValidateDTO(obj)
}

// bindOptionalJSON 请求体为空时保留零值
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return util.ValidateDTO(obj)
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return util.ValidateDTO(obj)
}

func userID(c *gin.Context) uint64 {
	return c.GetUint64(middleware.CtxUserID)
}

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
