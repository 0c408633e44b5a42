package llm

import (
	"golang.org/x/sync/semaphore"
)

// 进程内并发上限，图片请求更重
var (
	TextWeight  = int64(8)
	TextSem     = semaphore.NewWeighted(TextWeight)
	ImageWeight = int64(4)
	ImageSem    = semaphore.NewWeighted(ImageWeight)
)
