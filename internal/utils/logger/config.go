// internal/utils/logger/config.go
package logger

type Config struct {
	LogFile string `mapstructure:"file"`
	// мегабайты
	MaxSize int `mapstructure:"max_size_mb"`
	// дни
	MaxAge int `mapstructure:"max_age_days"`
	// количество файлов
	MaxBackups int `mapstructure:"max_backups"`
	// сжимать ротированные файлы
	Compress    bool `mapstructure:"compress"`
	Development bool `mapstructure:"debug"`
	// Quiet отключает вывод в консоль (TUI пишет логи только в файл и буфер).
	Quiet bool `mapstructure:"-"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "launchpad.log",
		MaxSize:     100,  // 100 MB
		MaxAge:      7,    // 7 дней
		MaxBackups:  3,    // 3 файла
		Compress:    true, // сжимать старые логи
		Development: false,
	}
}
