package consts

const (
	MimePrefixImage = "image"
	MimeJPEG        = "image/jpeg"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	// DateLayout 用户本地日期格式
	DateLayout = "2006-01-02"
)

// 数据来源
const (
	BarcodeSourceLLM           = "llm"
	BarcodeSourceOpenFoodFacts = "openfoodfacts+llm"
)

// 任务类型
const (
	JobTypeRetentionCleanup = "retention-cleanup"
	JobTypeLoadTest         = "load-test"
)
