package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// tokenFileName はFileStoreがスロットを保存する固定キー名。
const tokenFileName = "token.json"

// MemoryStore はプロセス内メモリ上の単一スロット。サーバープロセスで使用する。
// スロットへのアクセス自体はデータ競合を避けるためにミューテックスで保護するが、
// Load-then-Saveのシーケンス全体は保護しない（last-write-wins）。
type MemoryStore struct {
	mu    sync.Mutex
	entry *Entry
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load はスロットの内容を返す。空の場合はnilを返す。
func (s *MemoryStore) Load() (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return nil, nil
	}
	e := *s.entry
	return &e, nil
}

// Save はスロットを上書きする。
func (s *MemoryStore) Save(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = &e
	return nil
}

// Clear はスロットを空にする。
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = nil
	return nil
}

// FileStore はファイルシステム上の単一スロット。
// クライアント側の耐久ストレージとして、固定キー名のJSONファイル
// {"value": ..., "expiry": ...} に保存する。
type FileStore struct {
	path string
}

// NewFileStore は指定ディレクトリ配下にスロットを保存するFileStoreを生成する。
// ディレクトリが存在しない場合は作成する。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create token cache directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, tokenFileName)}, nil
}

// Load はスロットの内容を返す。ファイルが存在しない場合はnilを返す。
func (s *FileStore) Load() (*Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &entry, nil
}

// Save はスロットを上書きする。
func (s *FileStore) Save(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal token entry: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear はスロットを空にする。ファイルが存在しない場合もエラーにしない。
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// compile-time interface checks
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
