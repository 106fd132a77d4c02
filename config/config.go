package config

import (
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config 服務執行所需的環境設定
type Config struct {
	ServerPort string
	GinMode    string

	DBDriver       string // mysql / postgres / sqlite
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBPath         string // sqlite 檔案路徑
	DBMaxIdleConns int
	DBMaxOpenConns int
	DBTxTimeout    time.Duration

	JWTSecret     string
	JWTExpiration time.Duration

	AuditSchedule string // 空字串代表停用
	AuditRepair   bool
}

// Load 載入 .env 檔案並讀取環境變數
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "release"),

		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBHost:         getEnv("DB_HOST", "127.0.0.1"),
		DBPort:         getEnvInt("DB_PORT", 3306),
		DBUser:         getEnv("DB_USER", "parking_user"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "parking_db"),
		DBSslMode:      getEnv("DB_SSLMODE", "disable"),
		DBPath:         getEnv("DB_PATH", "parking.db"),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
		DBTxTimeout:    getEnvDuration("DB_TX_TIMEOUT", 5*time.Second),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 1)) * time.Hour,

		AuditSchedule: getEnv("AUDIT_SCHEDULE", "*/5 * * * *"),
		AuditRepair:   getEnvBool("AUDIT_REPAIR", false),
	}
}

// DSN 依照資料庫類型組出連線字串
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
		mc.DBName = c.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN()
	case "postgres":
		return "host=" + c.DBHost +
			" port=" + strconv.Itoa(c.DBPort) +
			" user=" + c.DBUser +
			" password=" + c.DBPassword +
			" dbname=" + c.DBName +
			" sslmode=" + c.DBSslMode +
			" TimeZone=UTC"
	default:
		return c.DBPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using default %t", key, value, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using default %s", key, value, fallback)
		return fallback
	}
	return d
}
