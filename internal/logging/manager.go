package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Логгеры компонентов создаются лениво с текущими параметрами Configure
// и живут до CloseDefaultLogger.
var (
	componentsMu sync.Mutex
	components   = make(map[string]*Logger)
)

// GetComponentLogger возвращает логгер компонента, создавая его при первом обращении.
// Если файл логов открыть не удалось, логгер пишет только в консоль.
func GetComponentLogger(component string) *Logger {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	if logger, ok := components[component]; ok {
		return logger
	}

	logger, err := NewLogger(component)
	if err != nil {
		opts := currentOptions()
		opts.Dir = ""
		logger, _ = NewLoggerWithOptions(component, opts)
		logger.Warn("Файл логов недоступен, только консоль: %v", err)
	}
	components[component] = logger
	return logger
}

// Components возвращает имена созданных логгеров компонентов
func Components() []string {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// closeComponents закрывает файлы всех логгеров компонентов
func closeComponents() error {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	var firstErr error
	for name, logger := range components {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("закрытие логгера %s: %w", name, err)
		}
		delete(components, name)
	}
	return firstErr
}

// GetGameLogger логгер игрового цикла
func GetGameLogger() *Logger {
	return GetComponentLogger("game")
}

// GetHandLogger логгер подсистемы разрушения и взаимодействия
func GetHandLogger() *Logger {
	return GetComponentLogger("hand")
}
