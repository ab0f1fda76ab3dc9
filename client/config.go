package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gridbot/world"
)

const (
	DefaultServer     = "151.216.74.213:4000"
	DefaultUsername   = "MASTER CONTROL PROGRAM"
	DefaultGreeting   = "You shouldn't have come back, Flynn."
	DefaultConfigFile = "gridbot.yaml"
)

// Config 启动时读取一次，运行期间不再重新读取
type Config struct {
	Server      string        `yaml:"server"`
	DialTimeout time.Duration `yaml:"dial_timeout"`

	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	UsernameFile string `yaml:"username_file"`
	PasswordFile string `yaml:"password_file"`

	Greeting string `yaml:"greeting"`
	BeamMode string `yaml:"beam_mode"`

	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
	RecordDir  string `yaml:"record_dir"`
	StatusAddr string `yaml:"status_addr"`
	StdinQuit  bool   `yaml:"stdin_quit"`
}

// Defaults 默认配置
func Defaults() Config {
	return Config{
		Server:       DefaultServer,
		DialTimeout:  10 * time.Second,
		UsernameFile: "./username",
		PasswordFile: "./password",
		Greeting:     DefaultGreeting,
		BeamMode:     "sweep",
		LogFile:      "gridbot.log",
		LogLevel:     "debug",
		StdinQuit:    true,
	}
}

// LoadConfig 依次叠加：默认值 → YAML 文件 → .env 与 GRIDBOT_* 环境变量 → 用户名/密码文件。
// path 为空时使用 GRIDBOT_CONFIG，仍为空则尝试 gridbot.yaml（不存在不报错）。
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()

	// .env 可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf(".env: %w", err)
	}

	explicit := true
	if path == "" {
		path = os.Getenv("GRIDBOT_CONFIG")
	}
	if path == "" {
		path, explicit = DefaultConfigFile, false
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("config: %w", err)
	}

	applyEnv(&cfg)

	if err := readCredentials(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	for key, dst := range map[string]*string{
		"GRIDBOT_SERVER":      &cfg.Server,
		"GRIDBOT_USERNAME":    &cfg.Username,
		"GRIDBOT_PASSWORD":    &cfg.Password,
		"GRIDBOT_LOG_LEVEL":   &cfg.LogLevel,
		"GRIDBOT_RECORD_DIR":  &cfg.RecordDir,
		"GRIDBOT_STATUS_ADDR": &cfg.StatusAddr,
	} {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
}

// readCredentials 用户名文件可选（缺省用默认名）；没有配置密码时密码文件必须存在
func readCredentials(cfg *Config) error {
	if cfg.Username == "" && cfg.UsernameFile != "" {
		raw, err := os.ReadFile(cfg.UsernameFile)
		switch {
		case err == nil:
			cfg.Username = strings.TrimSpace(string(raw))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("username file %q: %w", cfg.UsernameFile, err)
		}
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}

	if cfg.Password == "" {
		if cfg.PasswordFile == "" {
			return errors.New("password: not configured and no password_file set")
		}
		raw, err := os.ReadFile(cfg.PasswordFile)
		if err != nil {
			return fmt.Errorf("cannot read password from file %q: %w", cfg.PasswordFile, err)
		}
		cfg.Password = strings.TrimSpace(string(raw))
	}
	return nil
}

// Validate 检查配置，错误信息包含字段名
func (c Config) Validate() error {
	if c.Server == "" {
		return errors.New("config: server is empty")
	}
	if c.Password == "" {
		return errors.New("config: password is empty")
	}
	for name, v := range map[string]string{"username": c.Username, "password": c.Password, "greeting": c.Greeting} {
		if strings.ContainsAny(v, "|\r\n") {
			return fmt.Errorf("config: %s contains '|' or a line break", name)
		}
	}
	if _, err := world.ParseBeamMode(c.BeamMode); err != nil {
		return fmt.Errorf("config: beam_mode: %w", err)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("config: dial_timeout %s is negative", c.DialTimeout)
	}
	return nil
}

// GameConfig 对局相关部分
func (c Config) GameConfig() GameConfig {
	mode, _ := world.ParseBeamMode(c.BeamMode)
	return GameConfig{Greeting: c.Greeting, BeamMode: mode}
}
