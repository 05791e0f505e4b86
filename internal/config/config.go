package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-custody-ledger/pkg/mysql"
)

// DefaultPath 預設設定檔位置
const DefaultPath = "config/config.yaml"

// 帳本後端
const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

// 出金方式
const (
	PayoutMemory = "memory"
	PayoutGRPC   = "grpc"
)

type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	Journal JournalConfig `yaml:"journal"`
	Payout  PayoutConfig  `yaml:"payout"`
	Log     LogConfig     `yaml:"log"`
	MySQL   mysql.Config  `yaml:"mysql"`
}

// LedgerConfig 帳本上限，部署後不應再變更
type LedgerConfig struct {
	Backend         string `yaml:"backend"`
	WithdrawalLimit uint64 `yaml:"withdrawal_limit"`
	BankCap         uint64 `yaml:"bank_cap"`
}

type GRPCConfig struct {
	Addr       string `yaml:"addr"`
	Reflection bool   `yaml:"reflection"`
}

// JournalConfig 事件 WAL，memory 後端重啟時由此重放
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	NoSync  bool   `yaml:"no_sync"`
}

type PayoutConfig struct {
	Mode    string        `yaml:"mode"`
	Target  string        `yaml:"target"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load 讀取 YAML 設定，套用環境變數覆寫與預設值後驗證
func Load(path string) (Config, error) {
	cfgData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv 載入 .env (不存在時略過)，不覆蓋已存在的環境變數
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv 以 LEDGER_* 環境變數覆寫設定
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	uintVars := map[string]*uint64{
		"LEDGER_WITHDRAWAL_LIMIT": &c.Ledger.WithdrawalLimit,
		"LEDGER_BANK_CAP":         &c.Ledger.BankCap,
	}
	for name, dst := range uintVars {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	boolVars := map[string]*bool{
		"LEDGER_JOURNAL_ENABLED": &c.Journal.Enabled,
		"LEDGER_JOURNAL_NO_SYNC": &c.Journal.NoSync,
		"LEDGER_MYSQL_ENABLED":   &c.MySQL.Enabled,
		"LEDGER_GRPC_REFLECTION": &c.GRPC.Reflection,
		"LEDGER_LOG_DEVELOPMENT": &c.Log.Development,
	}
	for name, dst := range boolVars {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	stringVars := map[string]*string{
		"LEDGER_BACKEND":        &c.Ledger.Backend,
		"LEDGER_GRPC_ADDR":      &c.GRPC.Addr,
		"LEDGER_JOURNAL_PATH":   &c.Journal.Path,
		"LEDGER_PAYOUT_MODE":    &c.Payout.Mode,
		"LEDGER_PAYOUT_TARGET":  &c.Payout.Target,
		"LEDGER_LOG_LEVEL":      &c.Log.Level,
		"LEDGER_MYSQL_HOST":     &c.MySQL.Host,
		"LEDGER_MYSQL_USER":     &c.MySQL.User,
		"LEDGER_MYSQL_PASSWORD": &c.MySQL.Password,
		"LEDGER_MYSQL_DB_NAME":  &c.MySQL.DBName,
	}
	for name, dst := range stringVars {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	return nil
}

// SetDefaults 補全預設配置 (如果 yaml 沒寫)
func (c *Config) SetDefaults() {
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendMemory
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "wal.log"
	}
	if c.Payout.Mode == "" {
		c.Payout.Mode = PayoutMemory
	}
	if c.Payout.Timeout == 0 {
		c.Payout.Timeout = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.MySQL.Enabled || c.Ledger.Backend == BackendMySQL {
		c.MySQL.SetDefaults()
	}
}

// Validate 檢查設定
// withdrawal_limit 與 bank_cap 之間不強制大小關係
func (c *Config) Validate() error {
	var errs []error
	if c.Ledger.BankCap == 0 {
		errs = append(errs, errors.New("ledger.bank_cap is required"))
	}
	if c.Ledger.WithdrawalLimit == 0 {
		errs = append(errs, errors.New("ledger.withdrawal_limit is required"))
	}
	switch c.Ledger.Backend {
	case BackendMemory:
	case BackendMySQL:
		if c.MySQL.Host == "" || c.MySQL.DBName == "" {
			errs = append(errs, errors.New("mysql.host and mysql.db_name are required for the mysql backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend))
	}
	switch c.Payout.Mode {
	case PayoutMemory:
	case PayoutGRPC:
		if c.Payout.Target == "" {
			errs = append(errs, errors.New("payout.target is required when payout.mode is grpc"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown payout.mode %q", c.Payout.Mode))
	}
	return errors.Join(errs...)
}
