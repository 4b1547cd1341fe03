// internal/pkg/config/config.go
package config

import (
	"os"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 汇总了一个服务进程启动所需的全部配置。
// 来源优先级: 环境变量 > CONFIG_FILE 指向的 YAML 文件 > 默认值。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	// DefaultUserID 是下单接口使用的默认买家。
	DefaultUserID string `yaml:"defaultUserId"`
	// EventTopic 是四个服务共享的事件主题。
	EventTopic string `yaml:"eventTopic"`
}

type InfraConfig struct {
	Mysql  MysqlConfig  `yaml:"mysql"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Redis  RedisConfig  `yaml:"redis"`
	Nacos  NacosConfig  `yaml:"nacos"`
	Jaeger JaegerConfig `yaml:"jaeger"`
}

type MysqlConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DSN 用 go-sql-driver 的 mysql.Config 拼装连接串，避免手写格式出错。
func (m MysqlConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = m.Addr
	cfg.User = m.User
	cfg.Passwd = m.Password
	cfg.DBName = m.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

type KafkaConfig struct {
	// Brokers 格式为 "host1:port1,host2:port2"
	Brokers string `yaml:"brokers"`
}

func (k KafkaConfig) BrokerList() []string {
	return strings.Split(k.Brokers, ",")
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

var (
	current Config
	once    sync.Once
)

// MustLoad 加载配置，失败时直接退出进程。应在 main 中最先调用。
func MustLoad() {
	if err := Load(); err != nil {
		panic(err)
	}
}

// Load 加载并缓存当前配置。重复调用只生效一次。
func Load() error {
	var err error
	once.Do(func() {
		current = defaults()
		if path := os.Getenv("CONFIG_FILE"); path != "" {
			var raw []byte
			raw, err = os.ReadFile(path)
			if err != nil {
				err = errors.Wrapf(err, "read config file %s", path)
				return
			}
			if err = yaml.Unmarshal(raw, &current); err != nil {
				err = errors.Wrap(err, "parse config file")
				return
			}
		}
		applyEnvOverrides(&current)
	})
	return err
}

// GetCurrentConfig 返回进程当前生效的配置。
func GetCurrentConfig() Config {
	return current
}

func defaults() Config {
	return Config{
		App: AppConfig{
			DefaultUserID: "user-default",
			EventTopic:    "fulfillment-events",
		},
		Infra: InfraConfig{
			Mysql:  MysqlConfig{Addr: "localhost:3306", User: "root", Password: "root", Database: "minimall"},
			Kafka:  KafkaConfig{Brokers: "localhost:9092"},
			Redis:  RedisConfig{Addr: "localhost:6379"},
			Nacos:  NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		},
	}
}

func applyEnvOverrides(c *Config) {
	c.App.DefaultUserID = getEnv("DEFAULT_USER_ID", c.App.DefaultUserID)
	c.App.EventTopic = getEnv("EVENT_TOPIC", c.App.EventTopic)
	c.Infra.Mysql.Addr = getEnv("MYSQL_ADDR", c.Infra.Mysql.Addr)
	c.Infra.Mysql.User = getEnv("MYSQL_USER", c.Infra.Mysql.User)
	c.Infra.Mysql.Password = getEnv("MYSQL_PASSWORD", c.Infra.Mysql.Password)
	c.Infra.Mysql.Database = getEnv("MYSQL_DATABASE", c.Infra.Mysql.Database)
	c.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", c.Infra.Kafka.Brokers)
	c.Infra.Redis.Addr = getEnv("REDIS_ADDR", c.Infra.Redis.Addr)
	c.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", c.Infra.Nacos.ServerAddrs)
	c.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", c.Infra.Nacos.Namespace)
	c.Infra.Nacos.Group = getEnv("NACOS_GROUP", c.Infra.Nacos.Group)
	c.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Infra.Jaeger.Endpoint)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
