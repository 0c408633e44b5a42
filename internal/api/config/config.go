package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 HYDRO_* 覆盖文件配置
func LoadConfig() error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetEnvPrefix("HYDRO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

// Default 返回只包含默认值的配置，测试与工具命令使用
func Default() *Config {
	v := viper.New()
	applyDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults() {
	applyDefaults(viper.GetViper())
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.index", "logstash-hydro")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("mongo.database", "hydro")
	v.SetDefault("mongo.collection", "analysis_logs")

	v.SetDefault("minio.main_bucket", "water-images")
	v.SetDefault("minio.upload_retries", 3)
	v.SetDefault("minio.upload_retry_delay_ms", 500)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.text_model", "gpt-4o-mini")
	v.SetDefault("llm.vision_model", "gpt-4o")
	v.SetDefault("llm.timeout_sec", 45)

	v.SetDefault("vision.endpoint", "https://vision.googleapis.com/v1/images:annotate")
	v.SetDefault("vision.timeout_sec", 15)

	v.SetDefault("openfoodfacts.enable", true)
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.timeout_sec", 5)

	v.SetDefault("limits.image_upload", 25)
	v.SetDefault("limits.barcode_scan", 40)
	v.SetDefault("limits.text_analysis", 50)

	v.SetDefault("retention.days", 40)
	v.SetDefault("retention.cron_spec", "@hourly")

	v.SetDefault("queue.complete_ttl_min", 60)
	v.SetDefault("queue.error_ttl_min", 180)
	v.SetDefault("queue.pending_ttl_min", 1440)
	v.SetDefault("queue.stuck_after_min", 15)
	v.SetDefault("queue.cleanup_spec", "@every 10m")
	v.SetDefault("queue.stats_window_min", 10)

	v.SetDefault("worker.poll_spec", "@every 15s")
	v.SetDefault("worker.batch_size", 20)
	v.SetDefault("worker.concurrency", 4)

	v.SetDefault("security.token_ttl_hours", 24*30)
	v.SetDefault("security.cookie_name", "session")
}
