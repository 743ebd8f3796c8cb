package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"talentTrack/internal/auth"
	"talentTrack/internal/config"
	"talentTrack/internal/database"
)

// 开通第一个招聘账号的运维工具。
// 生成一次性随机密码并打上 must_change_password 标记，
// 首次登录只能走改密接口，其余业务路由都会被拦下。
func main() {
	var (
		username = flag.String("username", "", "招聘账号用户名（必填）")
		dbHost   = flag.String("db-host", "", "数据库 Host，缺省读 DATABASE_HOST")
		dbPort   = flag.Int("db-port", 0, "数据库 Port，缺省读 DATABASE_PORT")
		dbName   = flag.String("db-name", "", "数据库名，缺省读 POSTGRES_DB")
		dbUser   = flag.String("db-user", "", "数据库用户，缺省读 POSTGRES_USER")
		dbPass   = flag.String("db-password", "", "数据库密码，缺省读 POSTGRES_PASSWORD")
		sslMode  = flag.String("db-sslmode", "", "数据库 sslmode，缺省读 DATABASE_SSLMODE")
	)
	flag.Parse()

	name := strings.TrimSpace(*username)
	if name == "" {
		log.Fatal("missing required flag: --username")
	}

	dbCfg, err := resolveDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("resolve database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.User
	switch err := db.Where("username = ?", name).First(&existing).Error; {
	case err == nil:
		log.Fatalf("recruiter %q already exists", name)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query recruiter: %v", err)
	}

	password, err := generateInitialPassword()
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	recruiter := database.User{
		Username:           name,
		PasswordHash:       hashed,
		MustChangePassword: true,
	}
	if err := db.Create(&recruiter).Error; err != nil {
		log.Fatalf("create recruiter: %v", err)
	}

	fmt.Printf("招聘账号已开通，首次登录会被强制改密：\n")
	fmt.Printf("  用户名: %s\n", name)
	fmt.Printf("  初始密码: %s\n", password)
	fmt.Printf("初始密码只显示这一次，请交给使用者后立即登录修改。\n")
}

// resolveDatabaseConfig 合并命令行参数与环境变量，参数优先。
// 工具只需要数据库这一段配置，不走 config.Load 的全量校验。
func resolveDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	pick := func(flagValue, envName string) string {
		if v := strings.TrimSpace(flagValue); v != "" {
			return v
		}
		return strings.TrimSpace(os.Getenv(envName))
	}

	host = pick(host, "DATABASE_HOST")
	if host == "" {
		host = "localhost"
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if port <= 0 {
		port = 5432
	}
	name = pick(name, "POSTGRES_DB")
	user = pick(user, "POSTGRES_USER")
	password = pick(password, "POSTGRES_PASSWORD")
	sslmode = pick(sslmode, "DATABASE_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	if name == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (--db-name or POSTGRES_DB)")
	}
	if user == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (--db-user or POSTGRES_USER)")
	}
	if password == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (--db-password or POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func generateInitialPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
