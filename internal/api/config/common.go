package config

// Config 配置主体
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	DB            DBConfig            `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Vision        VisionConfig        `mapstructure:"vision"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Queue         QueueConfig         `mapstructure:"queue"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Security      SecurityConfig      `mapstructure:"security"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig 日志配置，Logstash 地址为空时只输出到 stdout
type LogConfig struct {
	Level           string `mapstructure:"level"`
	LogstashAddress string `mapstructure:"logstash_address"`
	Index           string `mapstructure:"index"`
	Token           string `mapstructure:"token"`
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig 分析日志存储，URI 为空时关闭
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	UploadRetries    int    `mapstructure:"upload_retries"`
	UploadRetryDelay int    `mapstructure:"upload_retry_delay_ms"`
}

type LLMConfig struct {
	Provider    string `mapstructure:"provider"`
	URL         string `mapstructure:"url"`
	TextModel   string `mapstructure:"text_model"`
	VisionModel string `mapstructure:"vision_model"`
	ApiKey      string `mapstructure:"api_key"`
	PromptsPath string `mapstructure:"prompts_path"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
}

// VisionConfig OCR 条码识别
type VisionConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ApiKey     string `mapstructure:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type OpenFoodFactsConfig struct {
	Enable     bool   `mapstructure:"enable"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// LimitsConfig 每日配额
type LimitsConfig struct {
	ImageUpload  int `mapstructure:"image_upload"`
	BarcodeScan  int `mapstructure:"barcode_scan"`
	TextAnalysis int `mapstructure:"text_analysis"`
}

type RetentionConfig struct {
	Days     int    `mapstructure:"days"`
	CronSpec string `mapstructure:"cron_spec"`
}

// QueueConfig 任务表清理阈值（分钟）
type QueueConfig struct {
	CompleteTTL int    `mapstructure:"complete_ttl_min"`
	ErrorTTL    int    `mapstructure:"error_ttl_min"`
	PendingTTL  int    `mapstructure:"pending_ttl_min"`
	StuckAfter  int    `mapstructure:"stuck_after_min"`
	CleanupSpec string `mapstructure:"cleanup_spec"`
	StatsWindow int    `mapstructure:"stats_window_min"`
}

type WorkerConfig struct {
	PollSpec    string `mapstructure:"poll_spec"`
	BatchSize   int    `mapstructure:"batch_size"`
	Concurrency int    `mapstructure:"concurrency"`
}

type SecurityConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	WorkerSecret  string `mapstructure:"worker_secret"`
	CookieName    string `mapstructure:"cookie_name"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`
	// CORSOrigins 为空时允许任意来源
	CORSOrigins []string `mapstructure:"cors_origins"`
}
