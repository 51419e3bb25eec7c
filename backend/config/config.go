package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	CORS         CORSConfig      `mapstructure:"cors"`
	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 写接口限流配置
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DatabaseConfig PostgreSQL 数据库配置（网点上传监控使用）
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（排班数据快照与限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScheduleConfig 排班解析与冲突检测配置
type ScheduleConfig struct {
	HistoryDepth        int      `mapstructure:"history_depth"`
	MaxWeekendGroups    int      `mapstructure:"max_weekend_groups"`
	LeadershipPositions []string `mapstructure:"leadership_positions"`
	DefaultBranch       string   `mapstructure:"default_branch"`
	SnapshotKeyWork     string   `mapstructure:"snapshot_key_work"`
	SnapshotKeyRest     string   `mapstructure:"snapshot_key_rest"`
	MaxPasteBytes       int      `mapstructure:"max_paste_bytes"`
}

// MonitoringConfig 网点上传监控配置
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.rate_limit.limit", 60)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "sched_master")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Manila")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("schedule.history_depth", 10)
	v.SetDefault("schedule.max_weekend_groups", 2)
	v.SetDefault("schedule.leadership_positions", []string{"Branch Head", "Site Supervisor", "OIC"})
	v.SetDefault("schedule.default_branch", "UnnamedBranch")
	v.SetDefault("schedule.snapshot_key_work", "workScheduleData_v3")
	v.SetDefault("schedule.snapshot_key_rest", "restDayData_v3")
	v.SetDefault("schedule.max_paste_bytes", 2<<20)

	v.SetDefault("monitoring.enabled", true)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SCHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Schedule.HistoryDepth <= 0 {
		return fmt.Errorf("配置校验失败: schedule.history_depth 必须大于 0")
	}
	if c.Schedule.MaxWeekendGroups <= 0 {
		return fmt.Errorf("配置校验失败: schedule.max_weekend_groups 必须大于 0")
	}
	if c.Schedule.SnapshotKeyWork == "" || c.Schedule.SnapshotKeyRest == "" {
		return fmt.Errorf("配置校验失败: schedule.snapshot_key_work / snapshot_key_rest 不能为空")
	}
	if c.Schedule.SnapshotKeyWork == c.Schedule.SnapshotKeyRest {
		return fmt.Errorf("配置校验失败: 工作排班与休息日排班的快照键不能相同")
	}
	if c.Schedule.MaxPasteBytes <= 0 {
		return fmt.Errorf("配置校验失败: schedule.max_paste_bytes 必须大于 0")
	}
	return nil
}
