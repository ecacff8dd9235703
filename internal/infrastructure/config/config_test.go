package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)
	require.NoError(t, validate(cfg))

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Inventory.LowStockThreshold)
	assert.False(t, cfg.Inventory.ClampCounters)
	assert.EqualValues(t, 1001, cfg.Order.NumberStart)
	assert.Equal(t, AuditSinkLog, cfg.Audit.Sink)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ERP_DATABASE_DRIVER", "memory")
	t.Setenv("ERP_INVENTORY_CLAMP_COUNTERS", "true")
	t.Setenv("ERP_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.Inventory.ClampCounters)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"生产环境默认密钥", func(c *Config) { c.Server.Mode = "release" }},
		{"未知驱动", func(c *Config) { c.Database.Driver = "mongo" }},
		{"内存驱动不能写审计表", func(c *Config) { c.Database.Driver = DriverMemory; c.Audit.Sink = AuditSinkDB }},
		{"MQ审计未开启RabbitMQ", func(c *Config) { c.Audit.Sink = AuditSinkMQ }},
		{"队列长度为0", func(c *Config) { c.Audit.QueueSize = 0 }},
		{"分布式锁TTL过短", func(c *Config) { c.Redis.Enabled = true; c.Redis.LockTTL = time.Second }},
		{"锁等待时间为0", func(c *Config) { c.Inventory.LockTimeout = 0 }},
		{"Saga超时为0", func(c *Config) { c.Order.SagaTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Driver: DriverMySQL, User: "u", Password: "p", Host: "h", Port: 3306, DBName: "db", Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai"}
	assert.Equal(t, "u:p@tcp(h:3306)/db?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())

	d.Driver = DriverPostgres
	d.Port = 5432
	d.SSLMode = "disable"
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable TimeZone=Asia/Shanghai", d.DSN())
}
