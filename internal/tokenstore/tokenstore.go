// Package tokenstore отвечает за хранение сессионного токена между запусками клиента.
//
// Токен — непрозрачная строка, выданная бэкендом при входе или регистрации.
// Он хранится в файле с фиксированным именем в каталоге конфигурации пользователя;
// больше никакое состояние между запусками не сохраняется.
package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tokenFileName — фиксированное имя файла-хранилища токена.
const tokenFileName = "dealerflow_token"

// Store описывает хранилище сессионного токена.
type Store interface {
	// Load возвращает сохранённый токен или пустую строку, если токена нет.
	Load() (string, error)
	// Save сохраняет токен, замещая предыдущий.
	Save(token string) error
	// Clear удаляет сохранённый токен. Повторный вызов не является ошибкой.
	Clear() error
}

// FileStore хранит токен в файле каталога конфигурации.
type FileStore struct {
	dir string
}

// NewFileStore создаёт файловое хранилище в каталоге dir.
// Пустой dir означает подкаталог dealerflow в каталоге конфигурации пользователя.
func NewFileStore(dir string) (*FileStore, error) {
	const op = "tokenstore.NewFileStore"
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		dir = filepath.Join(base, "dealerflow")
	}
	return &FileStore{dir: dir}, nil
}

// Load читает токен из файла. Отсутствие файла не является ошибкой.
func (s *FileStore) Load() (string, error) {
	const op = "tokenstore.Load"
	data, err := os.ReadFile(filepath.Join(s.dir, tokenFileName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save записывает токен в файл с правами только для владельца.
func (s *FileStore) Save(token string) error {
	const op = "tokenstore.Save"
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFileName), []byte(token), 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет файл токена, если он существует.
func (s *FileStore) Clear() error {
	const op = "tokenstore.Clear"
	err := os.Remove(filepath.Join(s.dir, tokenFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MemoryStore хранит токен в памяти. Используется в тестах.
type MemoryStore struct {
	token string
}

// NewMemoryStore создаёт хранилище в памяти с начальным токеном.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Load возвращает текущий токен.
func (s *MemoryStore) Load() (string, error) { return s.token, nil }

// Save замещает текущий токен.
func (s *MemoryStore) Save(token string) error {
	s.token = token
	return nil
}

// Clear сбрасывает токен.
func (s *MemoryStore) Clear() error {
	s.token = ""
	return nil
}
