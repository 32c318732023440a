package logger

import (
	"os"

	"github.com/Yat-Muk/lumen/internal/pkg/sanitizer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日誌配置
type Config struct {
	Level      string // debug, info, warn, error
	OutputPath string // 日誌文件路徑
	MaxSize    int    // 單個文件最大大小（MB）
	MaxBackups int    // 保留的舊日誌文件數量
	MaxAge     int    // 保留的天數
	Compress   bool   // 是否壓縮
	Console    bool   // 是否輸出到控制台
}

// DefaultConfig 返回默認配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		OutputPath: "/var/log/lumen/lumen.log",
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
		Console:    false,
	}
}

// New 創建日誌記錄器
// 返回的 AtomicLevel 供配置加載完成後調整級別，啟動瞬間只有命令行參數可用
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	parsed, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	level := zap.NewAtomicLevelAt(parsed)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if cfg.OutputPath != "" {
		cores = append(cores, fileCore(cfg, encoderConfig, level))
	}
	// TUI 運行時佔用整個終端，僅在調試模式下開啟控制台輸出
	if cfg.Console {
		cores = append(cores, consoleCore(encoderConfig, level))
	}

	logger := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return logger, level, nil
}

// fileCore 帶輪轉的 JSON 文件輸出
func fileCore(cfg Config, enc zapcore.EncoderConfig, level zap.AtomicLevel) zapcore.Core {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), writer, level)
}

// consoleCore 人類可讀的 stderr 輸出，stdout 留給 TUI
func consoleCore(enc zapcore.EncoderConfig, level zap.AtomicLevel) zapcore.Core {
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stderr), level)
}

// 脫敏日誌字段

// SanitizedToken 脫敏憑證字段，只留前後 4 位
func SanitizedToken(key, val string) zap.Field {
	return zap.String(key, sanitizer.Token(val))
}

// SanitizedURL 脫敏倉庫地址字段（去除內嵌憑證）
func SanitizedURL(key, val string) zap.Field {
	return zap.String(key, sanitizer.RepoURL(val))
}

// SanitizedText 脫敏自由文本字段，遮蔽憑證但保留可讀內容
func SanitizedText(key, val string) zap.Field {
	return zap.String(key, sanitizer.Text(val))
}
