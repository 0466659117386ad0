package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/service"
)

var (
	ErrPackNotFound = errors.New("level pack not found")
	ErrInvalidPack  = errors.New("invalid level pack")
	ErrNoLevelsDir  = errors.New("no levels directory configured")
)

// extensions are tried in this order when resolving a pack name to a file
var extensions = []string{".yaml", ".yml", ".json", ".jsonc"}

// Manager loads level packs from a directory and caches them. The built-in
// packs (easy, medium, hard) are always available, even without a directory.
type Manager struct {
	levelsDir   string
	defaultPack *engine.LevelPack
	packs       map[string]*engine.LevelPack
	builtins    map[string]*engine.LevelPack
	mu          sync.RWMutex
}

// NewManager creates a pack manager over levelsDir. An empty levelsDir means
// built-in packs only.
func NewManager(levelsDir string) (*Manager, error) {
	if levelsDir != "" {
		info, err := os.Stat(levelsDir)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat levels directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("levels path is not a directory: %s", levelsDir)
		}
	}

	m := &Manager{
		levelsDir: levelsDir,
		packs:     make(map[string]*engine.LevelPack),
		builtins:  make(map[string]*engine.LevelPack),
	}
	for _, p := range engine.BuiltinPacks() {
		m.builtins[p.Name] = p
	}
	m.defaultPack = m.builtins[string(engine.Easy)]

	return m, nil
}

// LevelsDir returns the directory packs are read from, or "" for built-ins only
func (m *Manager) LevelsDir() string {
	return m.levelsDir
}

// LoadPack loads a pack by name. Files in the levels directory shadow the
// built-in pack of the same name.
func (m *Manager) LoadPack(name string) (*engine.LevelPack, error) {
	name = packName(name)
	if name == "" {
		return nil, ErrPackNotFound
	}

	m.mu.RLock()
	if pack, ok := m.packs[name]; ok {
		m.mu.RUnlock()
		return pack, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if pack, ok := m.packs[name]; ok {
		return pack, nil
	}

	pack, err := m.readPack(name)
	if errors.Is(err, ErrPackNotFound) {
		builtin, ok := m.builtins[name]
		if !ok {
			return nil, err
		}
		return builtin, nil
	}
	if err != nil {
		return nil, err
	}

	m.packs[name] = pack
	return pack, nil
}

// readPack finds name under the levels directory and decodes it. Callers hold mu.
func (m *Manager) readPack(name string) (*engine.LevelPack, error) {
	if m.levelsDir == "" {
		return nil, ErrPackNotFound
	}

	for _, ext := range extensions {
		path := filepath.Join(m.levelsDir, name+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read pack file: %w", err)
		}
		return decodePack(name, ext, data)
	}
	return nil, ErrPackNotFound
}

// ReadPackFile loads and validates a single pack file outside any manager.
// The pack name defaults to the file name without its extension.
func ReadPackFile(path string) (*engine.LevelPack, error) {
	ext := filepath.Ext(path)
	if !slices.Contains(extensions, ext) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidPack, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack file: %w", err)
	}
	return decodePack(packName(filepath.Base(path)), ext, data)
}

// decodePack parses pack file contents by extension and validates them
func decodePack(name, ext string, data []byte) (*engine.LevelPack, error) {
	var pack engine.LevelPack
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s%s: %v", ErrInvalidPack, name, ext, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &pack); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s%s: %v", ErrInvalidPack, name, ext, err)
		}
	}

	if pack.Name == "" {
		pack.Name = name
	}
	if err := engine.ValidateLevelPack(&pack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	return &pack, nil
}

// ListPacks describes the built-in packs followed by every loadable pack file,
// sorted by file name. Files that fail to parse are skipped. A built-in is
// left out when a file of the same name shadows it, as in LoadPack.
func (m *Manager) ListPacks() ([]*service.PackInfo, error) {
	files, err := m.packFiles()
	if err != nil {
		return nil, err
	}
	shadowed := m.shadowedBuiltins(files)

	var infos []*service.PackInfo
	for _, d := range engine.Difficulties() {
		if shadowed[string(d)] {
			continue
		}
		p := m.builtins[string(d)]
		infos = append(infos, packInfo(p, "", p.Name, true))
	}

	for _, filename := range files {
		name := packName(filename)
		pack, err := m.LoadPack(name)
		if err != nil {
			continue
		}
		infos = append(infos, packInfo(pack, filename, name, false))
	}
	return infos, nil
}

func packInfo(p *engine.LevelPack, filename, id string, builtin bool) *service.PackInfo {
	return &service.PackInfo{
		Filename:    filename,
		PackID:      id,
		Name:        p.Name,
		Description: p.Description,
		Difficulty:  p.Difficulty,
		LevelCount:  len(p.Levels),
		Builtin:     builtin,
	}
}

// packFiles lists pack file names in the levels directory, sorted. When two
// files share a base name only the first extension in resolution order is kept.
func (m *Manager) packFiles() ([]string, error) {
	if m.levelsDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(m.levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}

	byName := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		rank := slices.Index(extensions, ext)
		if rank < 0 {
			continue
		}
		name := packName(entry.Name())
		if prev, ok := byName[name]; ok && slices.Index(extensions, filepath.Ext(prev)) <= rank {
			continue
		}
		byName[name] = entry.Name()
	}

	files := make([]string, 0, len(byName))
	for _, f := range byName {
		files = append(files, f)
	}
	slices.Sort(files)
	return files, nil
}

// shadowedBuiltins names the built-in packs that a pack file replaces
func (m *Manager) shadowedBuiltins(files []string) map[string]bool {
	shadowed := make(map[string]bool)
	for _, f := range files {
		if _, ok := m.builtins[packName(f)]; ok {
			shadowed[packName(f)] = true
		}
	}
	return shadowed
}

// Catalog merges every pack into the level lines per difficulty: built-in
// lines first, then each pack file in name order. Duplicate lines are dropped,
// and built-ins shadowed by a file contribute nothing.
func (m *Manager) Catalog() map[engine.Difficulty][]string {
	files, err := m.packFiles()
	if err != nil {
		return engine.BuiltinLines()
	}
	shadowed := m.shadowedBuiltins(files)

	out := engine.BuiltinLines()
	seen := make(map[string]bool)
	for d, lines := range out {
		if shadowed[string(d)] {
			out[d] = nil
			continue
		}
		for _, l := range lines {
			seen[strings.ToUpper(strings.TrimSpace(l))] = true
		}
	}

	for _, filename := range files {
		pack, err := m.LoadPack(packName(filename))
		if err != nil {
			continue
		}
		for _, l := range pack.Levels {
			key := strings.ToUpper(strings.TrimSpace(l))
			if seen[key] {
				continue
			}
			seen[key] = true
			out[pack.Difficulty] = append(out[pack.Difficulty], l)
		}
	}
	return out
}

// GetDefault returns the default pack (the built-in easy pack unless changed)
func (m *Manager) GetDefault() *engine.LevelPack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPack
}

// SetDefault sets the default pack by name
func (m *Manager) SetDefault(name string) error {
	pack, err := m.LoadPack(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPack = pack
	return nil
}

// RefreshCache drops every cached pack so the next load rereads the files
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.packs = make(map[string]*engine.LevelPack)
	if m.defaultPack != nil && m.builtins[m.defaultPack.Name] != m.defaultPack {
		m.defaultPack = m.builtins[string(engine.Easy)]
	}
	return nil
}

// SavePack validates pack and writes it as <name>.yaml in the levels directory
func (m *Manager) SavePack(name string, pack *engine.LevelPack) error {
	if m.levelsDir == "" {
		return ErrNoLevelsDir
	}
	name = packName(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad pack name %q", ErrInvalidPack, name)
	}
	if err := engine.ValidateLevelPack(pack); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}

	data, err := yaml.Marshal(pack)
	if err != nil {
		return fmt.Errorf("failed to marshal pack: %w", err)
	}

	path := filepath.Join(m.levelsDir, name+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pack file: %w", err)
	}

	m.mu.Lock()
	m.packs[name] = pack
	m.mu.Unlock()

	return nil
}

// packName strips a known extension from a pack name or file name
func packName(name string) string {
	name = strings.TrimSpace(name)
	ext := filepath.Ext(name)
	if slices.Contains(extensions, ext) {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
