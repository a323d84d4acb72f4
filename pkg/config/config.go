package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Symbol is one instrument in the technical-snapshot universe.
type Symbol struct {
	Code string `yaml:"code" validate:"required"`
	Name string `yaml:"name"`
}

type Config struct {
	Environment string `yaml:"environment" default:"production"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	HTTP struct {
		Timeout time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"http"`

	Cache struct {
		Dir     string `yaml:"dir" default:"cache"`
		Backend string `yaml:"backend" default:"file" validate:"oneof=file redis"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"insight"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Report struct {
		OutputPath string `yaml:"output_path" default:"reports/index.html"`
	} `yaml:"report"`

	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Textfile string `yaml:"textfile" default:"cache/insight.prom"`
	} `yaml:"metrics"`

	Providers struct {
		Tencent struct {
			BaseURL string `yaml:"base_url" default:"http://web.ifzq.gtimg.cn"`
		} `yaml:"tencent"`
		Eastmoney struct {
			BaseURL     string `yaml:"base_url" default:"http://push2.eastmoney.com"`
			HistBaseURL string `yaml:"hist_base_url" default:"http://push2his.eastmoney.com"`
		} `yaml:"eastmoney"`
		Sina struct {
			BaseURL string `yaml:"base_url" default:"https://vip.stock.finance.sina.com.cn"`
		} `yaml:"sina"`
		Legu struct {
			BaseURL string `yaml:"base_url" default:"https://legulegu.com"`
		} `yaml:"legu"`
	} `yaml:"providers"`

	IndustryMap struct {
		Delay time.Duration `yaml:"delay" default:"300ms"`
	} `yaml:"industry_map"`

	Snapshot struct {
		Workers int      `yaml:"workers" default:"5" validate:"min=1,max=32"`
		Days    int      `yaml:"days" default:"21"`
		Symbols []Symbol `yaml:"symbols"`
	} `yaml:"snapshot"`

	Commentary struct {
		Enabled  bool          `yaml:"enabled"`
		Endpoint string        `yaml:"endpoint" default:"https://ark.cn-beijing.volces.com/api/v3/bots/chat/completions"`
		Model    string        `yaml:"model"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"commentary"`
}

// DefaultSymbols is the snapshot universe used when the config file does not
// provide one: the mainstream sector ETF list.
var DefaultSymbols = []Symbol{
	{Code: "sh510300", Name: "沪深300ETF"},
	{Code: "sh510500", Name: "中证500ETF"},
	{Code: "sh512880", Name: "证券ETF"},
	{Code: "sh512480", Name: "半导体ETF"},
	{Code: "sh515790", Name: "光伏ETF"},
	{Code: "sh512690", Name: "酒ETF"},
	{Code: "sh512760", Name: "芯片ETF"},
	{Code: "sh512000", Name: "券商ETF"},
	{Code: "sh512170", Name: "医疗ETF"},
	{Code: "sh512010", Name: "医药ETF"},
	{Code: "sh515030", Name: "新能源车ETF"},
	{Code: "sh512660", Name: "军工ETF"},
	{Code: "sh512980", Name: "传媒ETF"},
	{Code: "sh512800", Name: "银行ETF"},
	{Code: "sh512700", Name: "银行龙头ETF"},
	{Code: "sh515220", Name: "煤炭ETF"},
	{Code: "sh512400", Name: "有色ETF"},
	{Code: "sh512200", Name: "房地产ETF"},
	{Code: "sh515210", Name: "钢铁ETF"},
}

// Load reads and parses a YAML configuration file. A missing file yields the
// built-in defaults so the binary can run with zero setup.
func Load(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Snapshot.Symbols) == 0 {
		c.Snapshot.Symbols = DefaultSymbols
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("INSIGHT_COMMENTARY_API_KEY"); v != "" {
		c.Commentary.APIKey = v
	}
	if v := os.Getenv("INSIGHT_COMMENTARY_MODEL"); v != "" {
		c.Commentary.Model = v
	}
	if v := os.Getenv("INSIGHT_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("INSIGHT_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}

	return c, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Commentary.Enabled && c.Commentary.Model == "" {
		return fmt.Errorf("commentary enabled but model not set")
	}
	return nil
}

// UniqueSymbols returns the snapshot universe deduplicated by code, keeping
// first occurrence order.
func (c *Config) UniqueSymbols() []Symbol {
	seen := make(map[string]bool, len(c.Snapshot.Symbols))
	out := make([]Symbol, 0, len(c.Snapshot.Symbols))
	for _, s := range c.Snapshot.Symbols {
		if seen[s.Code] {
			continue
		}
		seen[s.Code] = true
		out = append(out, s)
	}
	return out
}
