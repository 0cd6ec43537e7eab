package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"steam-buff-tracker/internal/models"
)

// ErrNotArray 数据文件不是 JSON 数组
var ErrNotArray = errors.New("数据文件格式错误，应为数组")

// Store reads and rewrites the catalog file. Save replaces the file through
// a rename so readers never observe a half-written catalog.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns the catalog. A missing file is an empty catalog; anything
// other than a JSON array of entries is ErrNotArray.
func (s *Store) Load() ([]models.CatalogEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.CatalogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", s.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%s: %w", s.path, ErrNotArray)
	}

	var entries []models.CatalogEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", s.path, ErrNotArray, err)
	}
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	return entries, nil
}

// Save writes entries with 2-space indentation and a trailing newline.
func (s *Store) Save(entries []models.CatalogEntry) error {
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化数据失败: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("替换 %s 失败: %w", s.path, err)
	}
	return nil
}

// Find returns the entry with the given id.
func Find(entries []models.CatalogEntry, id int) (models.CatalogEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.CatalogEntry{}, false
}

// Search returns entries whose name contains query, case-insensitively.
func Search(entries []models.CatalogEntry, query string) []models.CatalogEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.CatalogEntry{}
	for _, e := range entries {
		if q == "" || strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

// ParseID parses a catalog id path parameter.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("无效的ID: %q", raw)
	}
	return id, nil
}
