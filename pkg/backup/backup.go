package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"Attune/pkg/config"
	"Attune/pkg/logger"
	"Attune/pkg/scheduler"

	"go.uber.org/zap"
)

// StartBackupScheduler 注册数据库备份定时任务
func StartBackupScheduler(cr *scheduler.Cron) error {
	schedule := config.GlobalConfig.BackupSchedule
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	_, err := cr.AddWithCtx(schedule, func(ctx context.Context) {
		if err := ExecuteBackup(); err != nil {
			logger.Warn("Backup failed", zap.Error(err))
		} else {
			logger.Info("Backup completed successfully")
		}
	})
	return err
}

// ExecuteBackup 根据配置执行数据库备份
func ExecuteBackup() error {
	stamp := time.Now().Format("20060102_150405")
	switch config.GlobalConfig.DBDriver {
	case "mysql":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("sys_backup_%s.sql", stamp))
		return backupMySQL(config.GlobalConfig.DSN, dst)
	default:
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("sys_backup_%s.db", stamp))
		return backupSQLite(config.GlobalConfig.DSN, dst)
	}
}

func backupSQLite(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open sqlite file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func backupMySQL(dsn, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	// mysqldump 读取连接信息依赖环境配置
	cmd := exec.Command("mysqldump", "--single-transaction", dsn)
	cmd.Stdout = out
	return cmd.Run()
}
