package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFilePath = "config/config.yaml"

	ArchiveLocal = "local"
	ArchiveS3    = "s3"

	DriverFile   = "file"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	PublicDir    string   `yaml:"public_dir"`
	TLS          bool     `yaml:"tls"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	UsersFile string         `yaml:"users_file"`
	JWTSecret string         `yaml:"jwt_secret"`
	TokenTTL  time.Duration  `yaml:"token_ttl"`
	Throttle  ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig: ログイン失敗の回数制限。redis.addr が空なら無効
type ThrottleConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Columns: Excel のヘッダ名（シートの列名がそのままキーになる）
type Columns struct {
	Unit          string `yaml:"unit"`
	Category      string `yaml:"category"`
	Custodian     string `yaml:"custodian"`
	ContactPerson string `yaml:"contact_person"`
	AssetName     string `yaml:"asset_name"`
	AssetNumber   string `yaml:"asset_number"`
}

type DataConfig struct {
	ExcelPath        string  `yaml:"excel_path"`
	Columns          Columns `yaml:"columns"`
	USBCategory      string  `yaml:"usb_category"`
	ApplicationsFile string  `yaml:"applications_file"`
	LoansFile        string  `yaml:"loans_file"`
}

// StorageConfig: record store のバックエンド。file（既定）/ mysql / sqlite3
type StorageConfig struct {
	Driver string         `yaml:"driver"`
	DSN    string         `yaml:"dsn"`
	DB     DatabaseConfig `yaml:"database"`
}

type PDFConfig struct {
	SofficePath  string        `yaml:"soffice_path"`
	TemplatePath string        `yaml:"template_path"`
	TempDir      string        `yaml:"temp_dir"`
	OutputDir    string        `yaml:"output_dir"`
	Timeout      time.Duration `yaml:"timeout"` // 0 なら無制限
	Archive      ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig: 生成済み PDF の置き場所。local は output_dir、s3 はバケット
type ArchiveConfig struct {
	Driver   string `yaml:"driver"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	KMSKeyID string `yaml:"kms_key_id"`
}

type Config struct {
	Version     string        `yaml:"version"`
	Mode        string        `yaml:"mode"`
	Server      ServerConfig  `yaml:"server"`
	Log         LogConfig     `yaml:"log"`
	Auth        AuthConfig    `yaml:"auth"`
	Data        DataConfig    `yaml:"data"`
	Storage     StorageConfig `yaml:"storage"`
	PDF         PDFConfig     `yaml:"pdf"`
	Redis       RedisConfig   `yaml:"redis"`
	Certificate Certs         `yaml:"certificate"`
}

// LoadConfig: .env → YAML → 環境変数上書き → 既定値 → 検証 の順に組み立てる
func LoadConfig(path string) (*Config, error) {
	// .env は無くてもよい
	_ = godotenv.Load()

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	cfg, err := ParseConfig(buf)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定値が不正: %w", err)
	}
	return cfg, nil
}

func ParseConfig(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Mode, "APP_MODE")
	set(&c.Auth.JWTSecret, "JWT_SECRET")
	set(&c.PDF.SofficePath, "SOFFICE_PATH")
	set(&c.Data.ExcelPath, "EXCEL_PATH")
	set(&c.Storage.Driver, "STORAGE_DRIVER")
	set(&c.Storage.DSN, "STORAGE_DSN")
	set(&c.PDF.Archive.Driver, "PDF_ARCHIVE_DRIVER")
	set(&c.PDF.Archive.Bucket, "S3_BUCKET")
	set(&c.PDF.Archive.Endpoint, "S3_ENDPOINT")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
}

func (c *Config) applyDefaults() {
	def := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	def(&c.Mode, "dev")
	def(&c.Server.Addr, ":3000")
	def(&c.Log.Level, "info")
	def(&c.Log.Format, "console")
	def(&c.Auth.UsersFile, "users.json")
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = time.Hour
	}
	if c.Auth.Throttle.MaxAttempts <= 0 {
		c.Auth.Throttle.MaxAttempts = 5
	}
	if c.Auth.Throttle.Window <= 0 {
		c.Auth.Throttle.Window = 15 * time.Minute
	}

	def(&c.Data.ExcelPath, "uploads/assets.xlsx")
	def(&c.Data.Columns.Unit, "(自)所屬單位")
	def(&c.Data.Columns.Category, "(自)分類")
	def(&c.Data.Columns.Custodian, "保管人")
	def(&c.Data.Columns.ContactPerson, "(自)單位管控窗口")
	def(&c.Data.Columns.AssetName, "資產名稱")
	def(&c.Data.Columns.AssetNumber, "財產編號")
	def(&c.Data.USBCategory, "隨身碟")
	def(&c.Data.ApplicationsFile, "applications.json")
	def(&c.Data.LoansFile, "loans.json")

	def(&c.Storage.Driver, DriverFile)

	def(&c.PDF.TemplatePath, "templates/template.odt")
	def(&c.PDF.TempDir, "temp")
	def(&c.PDF.OutputDir, "pdfs")
	def(&c.PDF.Archive.Driver, ArchiveLocal)
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release: %q", c.Mode)
	}
	switch c.Storage.Driver {
	case DriverFile:
	case DriverMySQL:
		if c.Storage.DSN == "" && c.Storage.DB.DBName == "" {
			return errors.New("storage.database.dbname or storage.dsn is required for mysql")
		}
	case DriverSQLite:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for sqlite3")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	switch c.PDF.Archive.Driver {
	case ArchiveLocal:
	case ArchiveS3:
		if c.PDF.Archive.Bucket == "" {
			return errors.New("pdf.archive.bucket is required for s3")
		}
	default:
		return fmt.Errorf("unknown pdf archive driver: %q", c.PDF.Archive.Driver)
	}
	if c.Mode == "release" && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in release mode")
	}
	if c.Server.TLS && (c.Certificate.Cert == "" || c.Certificate.Key == "") {
		return errors.New("certificate.cert and certificate.key are required when server.tls is on")
	}
	return nil
}
