package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// LoadEnv 按环境加载对应的 .env 文件（.env.development / .env.production）
func LoadEnv(env string) error {
	candidates := []string{".env." + env, ".env"}
	for _, name := range candidates {
		if err := loadEnvFile(name); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no .env file found for %s", env)
}

func loadEnvFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		// 环境变量优先于文件
		if _, exists := os.LookupEnv(k); !exists {
			os.Setenv(k, v)
		}
	}
	return scanner.Err()
}

func GetEnv(key string) string { return os.Getenv(key) }

func GetIntEnv(key string) int64 { return cast.ToInt64(os.Getenv(key)) }

func GetBoolEnv(key string) bool { return cast.ToBool(os.Getenv(key)) }
