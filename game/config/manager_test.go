package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
)

const (
	extraEasy   = "A,1A;P,Y,1C,1D;C,R,2A,2B;C,G,3C,4C"
	extraMedium = "C,3E;P,Y,3A,3B;B,R,1C,3C;C,G,5D,5E"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	return m, dir
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	m, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, "easy", m.GetDefault().Name)
	assert.Equal(t, engine.Easy, m.GetDefault().Difficulty)
}

func TestLoadPack_Formats(t *testing.T) {
	m, dir := newTestManager(t)

	writeFile(t, dir, "weekend.yaml", `
name: Weekend
description: short ones
difficulty: easy
levels:
  - "`+extraEasy+`"
`)
	writeFile(t, dir, "commented.jsonc", `{
  // medium board
  "name": "Commented",
  "difficulty": "Medium",
  "levels": ["`+extraMedium+`"],
}`)

	yamlPack, err := m.LoadPack("weekend")
	require.NoError(t, err)
	assert.Equal(t, "Weekend", yamlPack.Name)
	assert.Equal(t, engine.Easy, yamlPack.Difficulty)
	assert.Equal(t, []string{extraEasy}, yamlPack.Levels)

	jsoncPack, err := m.LoadPack("commented.jsonc")
	require.NoError(t, err)
	assert.Equal(t, engine.Medium, jsoncPack.Difficulty)

	again, err := m.LoadPack("weekend")
	require.NoError(t, err)
	assert.Same(t, yamlPack, again)
}

func TestLoadPack_Errors(t *testing.T) {
	m, dir := newTestManager(t)

	writeFile(t, dir, "broken.json", `{"name": "broken", "difficulty": "easy", "levels": [`)
	writeFile(t, dir, "badline.yaml", "name: bad\ndifficulty: easy\nlevels: [\"C,2D;P,Y,2A\"]\n")
	writeFile(t, dir, "nolevels.yml", "name: empty\ndifficulty: hard\nlevels: []\n")

	_, err := m.LoadPack("missing")
	assert.ErrorIs(t, err, ErrPackNotFound)

	for _, name := range []string{"broken", "badline", "nolevels"} {
		t.Run(name, func(t *testing.T) {
			_, err := m.LoadPack(name)
			assert.ErrorIs(t, err, ErrInvalidPack)
		})
	}
}

func TestLoadPack_BuiltinFallbackAndShadow(t *testing.T) {
	m, dir := newTestManager(t)

	builtin, err := m.LoadPack("medium")
	require.NoError(t, err)
	assert.Len(t, builtin.Levels, 3)

	writeFile(t, dir, "medium.yaml", "difficulty: medium\nlevels: [\""+extraMedium+"\"]\n")
	require.NoError(t, m.RefreshCache())

	shadow, err := m.LoadPack("medium")
	require.NoError(t, err)
	assert.Equal(t, "medium", shadow.Name)
	assert.Equal(t, []string{extraMedium}, shadow.Levels)
}

func TestListPacks(t *testing.T) {
	m, dir := newTestManager(t)

	writeFile(t, dir, "b.yaml", "name: B\ndifficulty: easy\nlevels: [\""+extraEasy+"\"]\n")
	writeFile(t, dir, "a.json", `{"name":"A","difficulty":"medium","levels":["`+extraMedium+`"]}`)
	writeFile(t, dir, "broken.yaml", "levels: [")
	writeFile(t, dir, "notes.txt", "ignored")

	infos, err := m.ListPacks()
	require.NoError(t, err)
	require.Len(t, infos, 5)

	assert.True(t, infos[0].Builtin)
	assert.Equal(t, "easy", infos[0].PackID)
	assert.Equal(t, 10, infos[0].LevelCount)
	assert.Equal(t, "hard", infos[2].PackID)

	assert.Equal(t, "a.json", infos[3].Filename)
	assert.Equal(t, "a", infos[3].PackID)
	assert.Equal(t, engine.Medium, infos[3].Difficulty)
	assert.False(t, infos[3].Builtin)
	assert.Equal(t, "b.yaml", infos[4].Filename)
}

func TestCatalog_MergesFilesAfterBuiltins(t *testing.T) {
	m, dir := newTestManager(t)

	builtinEasy := engine.BuiltinLines()[engine.Easy]
	writeFile(t, dir, "extra.yaml", "name: extra\ndifficulty: easy\nlevels:\n  - \""+extraEasy+"\"\n  - \""+builtinEasy[0]+"\"\n")

	cat := m.Catalog()
	require.Len(t, cat[engine.Easy], len(builtinEasy)+1)
	assert.Equal(t, builtinEasy, cat[engine.Easy][:len(builtinEasy)])
	assert.Equal(t, extraEasy, cat[engine.Easy][len(builtinEasy)])
	assert.Len(t, cat[engine.Hard], 3)
}

func TestShadowedBuiltinAgreesEverywhere(t *testing.T) {
	m, dir := newTestManager(t)
	writeFile(t, dir, "easy.yaml", "difficulty: easy\nlevels: [\""+extraEasy+"\"]\n")

	infos, err := m.ListPacks()
	require.NoError(t, err)
	var easy []string
	for _, info := range infos {
		if info.PackID == "easy" {
			easy = append(easy, info.Filename)
			assert.False(t, info.Builtin)
		}
	}
	assert.Equal(t, []string{"easy.yaml"}, easy)
	assert.Len(t, infos, 3)

	cat := m.Catalog()
	assert.Equal(t, []string{extraEasy}, cat[engine.Easy])
	assert.Len(t, cat[engine.Medium], 3)

	pack, err := m.LoadPack("easy")
	require.NoError(t, err)
	assert.Equal(t, []string{extraEasy}, pack.Levels)
}

func TestSavePack(t *testing.T) {
	m, dir := newTestManager(t)

	pack := &engine.LevelPack{Name: "Saved", Difficulty: "EASY", Levels: []string{extraEasy}}
	require.NoError(t, m.SavePack("saved", pack))
	assert.FileExists(t, filepath.Join(dir, "saved.yaml"))
	assert.Equal(t, engine.Easy, pack.Difficulty)

	require.NoError(t, m.RefreshCache())
	loaded, err := m.LoadPack("saved")
	require.NoError(t, err)
	assert.Equal(t, pack.Levels, loaded.Levels)

	bad := &engine.LevelPack{Name: "bad", Difficulty: engine.Easy, Levels: []string{"nonsense"}}
	assert.ErrorIs(t, m.SavePack("bad", bad), ErrInvalidPack)
	assert.ErrorIs(t, m.SavePack("../escape", pack), ErrInvalidPack)

	noDir, err := NewManager("")
	require.NoError(t, err)
	assert.ErrorIs(t, noDir.SavePack("saved", pack), ErrNoLevelsDir)
}

func TestSetDefault(t *testing.T) {
	m, dir := newTestManager(t)
	writeFile(t, dir, "mine.yaml", "name: mine\ndifficulty: medium\nlevels: [\""+extraMedium+"\"]\n")

	require.NoError(t, m.SetDefault("mine"))
	assert.Equal(t, engine.Medium, m.GetDefault().Difficulty)

	assert.ErrorIs(t, m.SetDefault("nope"), ErrPackNotFound)

	require.NoError(t, m.RefreshCache())
	assert.Equal(t, "easy", m.GetDefault().Name)
}

func TestConcurrentLoads(t *testing.T) {
	m, dir := newTestManager(t)
	writeFile(t, dir, "shared.yaml", "name: shared\ndifficulty: easy\nlevels: [\""+extraEasy+"\"]\n")

	var wg sync.WaitGroup
	results := make([]*engine.LevelPack, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := m.LoadPack("shared")
			if err == nil {
				results[i] = p
			}
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		assert.Same(t, results[0], p)
	}
}

func TestReadPackFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "weekend.yml", "difficulty: easy\nlevels:\n  - "+extraEasy+"\n")
	writeFile(t, dir, "notes.txt", "levels: []")

	pack, err := ReadPackFile(filepath.Join(dir, "weekend.yml"))
	require.NoError(t, err)
	assert.Equal(t, "weekend", pack.Name)
	assert.Equal(t, []string{extraEasy}, pack.Levels)

	_, err = ReadPackFile(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrInvalidPack)

	_, err = ReadPackFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
