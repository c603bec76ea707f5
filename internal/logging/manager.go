package logging

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
)

// LoggerManager хранит логгеры компонентов и общий порог консоли для них
type LoggerManager struct {
	mu           sync.Mutex
	loggers      map[string]*Logger
	consoleLevel LogLevel
}

var globalManager = newLoggerManager()

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:      make(map[string]*Logger),
		consoleLevel: INFO,
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	return globalManager
}

// Logger возвращает логгер компонента, создавая его при первом обращении.
// Если файл логов открыть не удалось, компонент пишет только в консоль.
func (lm *LoggerManager) Logger(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l
	}

	l, err := NewLogger(component)
	if err != nil {
		defaultLogger.logMessage(WARN, "Логгер %s без файла: %v", component, err)
		l = &Logger{
			component:     component,
			consoleLogger: log.New(os.Stdout, "", log.LstdFlags),
			minFileLevel:  ERROR + 1,
		}
	}
	l.minConsoleLevel = lm.consoleLevel
	lm.loggers[component] = l
	return l
}

// SetConsoleLevel меняет порог консоли у существующих и будущих логгеров компонентов
func (lm *LoggerManager) SetConsoleLevel(level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.consoleLevel = level
	for _, l := range lm.loggers {
		l.mu.Lock()
		l.minConsoleLevel = level
		l.mu.Unlock()
	}
}

// Components возвращает имена созданных логгеров
func (lm *LoggerManager) Components() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	out := make([]string, 0, len(lm.loggers))
	for c := range lm.loggers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return globalManager.Logger(component)
}

func GetShaderLogger() *Logger  { return GetComponentLogger("shader") }
func GetRenderLogger() *Logger  { return GetComponentLogger("render") }
func GetServerLogger() *Logger  { return GetComponentLogger("server") }
func GetStorageLogger() *Logger { return GetComponentLogger("storage") }
