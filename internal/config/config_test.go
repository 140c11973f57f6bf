package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	config := GetDefaultConfig()

	assert.NotNil(t, config)
	assert.NotNil(t, config.Server)
	assert.NotNil(t, config.Blockchain)
	assert.NotNil(t, config.Contract)
	assert.NotNil(t, config.Gas)
	assert.NotNil(t, config.Audit)
	assert.NotNil(t, config.Store)
	assert.NotNil(t, config.Logging)

	// 测试服务配置
	assert.Equal(t, 8080, config.Server.Port)

	// 测试区块链配置
	assert.NotEmpty(t, config.Blockchain.Nodes)
	firstNode := config.Blockchain.Nodes[0]
	assert.Equal(t, "local_node", firstNode.Name)
	assert.Equal(t, "", firstNode.URL) // 需要在YAML、数据库或环境变量中配置
	assert.Equal(t, "local", firstNode.Type)
	assert.Equal(t, int64(1), config.Blockchain.ChainID)
	assert.Equal(t, "30s", config.Blockchain.RPCTimeout)

	// 测试Gas配置
	assert.Equal(t, uint64(200000), config.Gas.LimitCeiling)

	// 测试审计配置
	assert.Equal(t, "file", config.Audit.Format)
	assert.Equal(t, "./outputs", config.Audit.Directory)
	assert.NotNil(t, config.Audit.Kafka)
	assert.Equal(t, []string{"localhost:9092"}, config.Audit.Kafka.Brokers)

	// 测试日志配置
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "stdout", config.Logging.Output)
}

func TestConfigValidate(t *testing.T) {
	valid := GetDefaultConfig()
	valid.Contract.Address = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	valid.Blockchain.Nodes[0].URL = "http://localhost:8545"

	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{
			name:   "missing contract address",
			mutate: func(c *Config) { c.Contract.Address = "" },
		},
		{
			name:   "invalid contract address",
			mutate: func(c *Config) { c.Contract.Address = "0x1234" },
		},
		{
			name:   "no nodes",
			mutate: func(c *Config) { c.Blockchain.Nodes = nil },
		},
		{
			name:   "node missing URL",
			mutate: func(c *Config) { c.Blockchain.Nodes[0].URL = "" },
		},
		{
			name:   "invalid chain id",
			mutate: func(c *Config) { c.Blockchain.ChainID = 0 },
		},
		{
			name:   "missing gas ceiling",
			mutate: func(c *Config) { c.Gas.LimitCeiling = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := GetDefaultConfig()
			config.Contract.Address = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
			config.Blockchain.Nodes[0].URL = "http://localhost:8545"
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	yaml := `
server:
  port: 9090
blockchain:
  nodes:
    - name: "test_node"
      url: "http://localhost:8545"
      type: "local"
      rate_limit: 500
      priority: 1
  chain_id: 1337
  rpc_timeout: "10s"
contract:
  address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
gas:
  limit_ceiling: 200000
audit:
  format: "none"
logging:
  level: "debug"
  format: "text"
  output: "stdout"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	config, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Len(t, config.Blockchain.Nodes, 1)
	assert.Equal(t, "test_node", config.Blockchain.Nodes[0].Name)
	assert.Equal(t, "http://localhost:8545", config.Blockchain.Nodes[0].URL)
	assert.Equal(t, int64(1337), config.Blockchain.ChainID)
	assert.Equal(t, "10s", config.Blockchain.RPCTimeout)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", config.Contract.Address)
	assert.Equal(t, "none", config.Audit.Format)
	assert.Equal(t, "debug", config.Logging.Level)

	// 默认值填充未出现的段
	assert.Equal(t, "./data/records.db", config.Store.Path)

	assert.NoError(t, config.Validate())
}

func TestLoadConfigFromFile_NotFound(t *testing.T) {
	_, err := LoadConfigFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	os.Setenv("TOKENGATE_NODE_URL", "http://override:8545")
	os.Setenv("TOKENGATE_CONTRACT_ADDRESS", "0x0000000000000000000000000000000000000001")
	os.Setenv("TOKENGATE_OWNER_KEY", "abc123")
	defer func() {
		os.Unsetenv("TOKENGATE_NODE_URL")
		os.Unsetenv("TOKENGATE_CONTRACT_ADDRESS")
		os.Unsetenv("TOKENGATE_OWNER_KEY")
	}()

	config := GetDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, "http://override:8545", config.Blockchain.Nodes[0].URL)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", config.Contract.Address)
	assert.Equal(t, "abc123", config.Account.OwnerPrivateKey)
}

func BenchmarkGetDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GetDefaultConfig()
	}
}
