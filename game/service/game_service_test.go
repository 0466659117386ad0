package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/program"
	"github.com/wricardo/mcp-training/gridrunner/game/service"
	"github.com/wricardo/mcp-training/gridrunner/game/session"
)

// westExitLine is won by moving the red car south twice, then the player west three times
const westExitLine = "A,2A;P,Y,2C,2D;C,R,1B,2B;C,G,1C,1D;C,B,4C,4D"

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, catalog *engine.Catalog) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	session := &service.Session{
		ID:        id,
		Engine:    engine.NewEngine(catalog),
		Runner:    &program.Runner{},
		CreatedAt: time.Now(),
	}
	session.Touch(time.Now())
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, catalog *engine.Catalog) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, catalog)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.Touch(time.Now())
		return nil
	}
	return errors.New("session not found")
}

// MockPackManager implements service.PackManager for testing
type MockPackManager struct {
	packs map[string]*engine.LevelPack
	saved map[string]*engine.LevelPack
}

func NewMockPackManager() *MockPackManager {
	return &MockPackManager{
		packs: map[string]*engine.LevelPack{
			"easy": {Name: "easy", Difficulty: engine.Easy, Levels: []string{westExitLine}},
			"hard": {Name: "hard", Difficulty: engine.Hard, Levels: engine.BuiltinLines()[engine.Hard]},
		},
		saved: make(map[string]*engine.LevelPack),
	}
}

func (m *MockPackManager) LoadPack(name string) (*engine.LevelPack, error) {
	pack, exists := m.packs[name]
	if !exists {
		return nil, errors.New("pack not found")
	}
	return pack, nil
}

func (m *MockPackManager) ListPacks() ([]*service.PackInfo, error) {
	result := make([]*service.PackInfo, 0, len(m.packs))
	for name, pack := range m.packs {
		result = append(result, &service.PackInfo{
			PackID:     name,
			Name:       pack.Name,
			Difficulty: pack.Difficulty,
			LevelCount: len(pack.Levels),
		})
	}
	return result, nil
}

func (m *MockPackManager) SavePack(name string, pack *engine.LevelPack) error {
	if err := engine.ValidateLevelPack(pack); err != nil {
		return err
	}
	m.saved[name] = pack
	return nil
}

func (m *MockPackManager) Catalog() map[engine.Difficulty][]string {
	out := make(map[engine.Difficulty][]string)
	for _, p := range m.packs {
		out[p.Difficulty] = append(out[p.Difficulty], p.Levels...)
	}
	return out
}

func (m *MockPackManager) GetDefault() *engine.LevelPack {
	return m.packs["easy"]
}

func newTestService(t *testing.T) (service.GameService, string) {
	t.Helper()
	svc := service.NewGameServiceWithOptions(NewMockSessionManager(), NewMockPackManager(), service.Options{Seed: 7})
	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, info.ID
}

func hasEvent(events []service.GameEvent, typ string) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockPackManager())

	tests := []struct {
		name       string
		difficulty string
		want       engine.Difficulty
		wantLevel  bool
		wantErr    bool
	}{
		{name: "default difficulty", difficulty: "", want: engine.Easy, wantLevel: true},
		{name: "explicit difficulty", difficulty: "HARD", want: engine.Hard, wantLevel: true},
		{name: "difficulty without levels", difficulty: "medium", want: engine.Medium},
		{name: "unknown difficulty", difficulty: "brutal", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.difficulty)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if info.Difficulty != tt.want {
				t.Errorf("Difficulty = %s, want %s", info.Difficulty, tt.want)
			}
			if got := len(info.GameState.Vehicles) > 0; got != tt.wantLevel {
				t.Errorf("level dealt = %v, want %v (message %q)", got, tt.wantLevel, info.GameState.Message)
			}
		})
	}

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("ListSessions() returned %d sessions, want 3", len(sessions))
	}
}

func TestGameService_PlayToWin(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	res, err := svc.Select(ctx, id, "E-1B")
	if err != nil || !res.Success {
		t.Fatalf("Select() = %+v, %v", res, err)
	}
	if res.Message != "Selected: Car (Red)" {
		t.Errorf("Select message = %q", res.Message)
	}

	for i := 0; i < 2; i++ {
		res, err = svc.Move(ctx, id, "", "down")
		if err != nil || !res.Success {
			t.Fatalf("Move down #%d = %+v, %v", i+1, res, err)
		}
	}
	if !hasEvent(res.Events, service.EventMove) {
		t.Errorf("expected move event, got %+v", res.Events)
	}

	res, err = svc.Move(ctx, id, "2C", "west")
	if err != nil || !res.Success {
		t.Fatalf("Move west = %+v, %v", res, err)
	}
	if !hasEvent(res.Events, service.EventSelect) {
		t.Errorf("expected select event when moving by cell, got %+v", res.Events)
	}

	res, _ = svc.Move(ctx, id, "", "west")
	res, _ = svc.Move(ctx, id, "", "west")
	if !res.GameState.Won {
		t.Fatalf("expected win, got message %q", res.Message)
	}
	if !hasEvent(res.Events, service.EventVictory) {
		t.Errorf("expected victory event, got %+v", res.Events)
	}

	res, _ = svc.Select(ctx, id, "2A")
	if res.Success {
		t.Error("selection should be refused after a win")
	}

	state, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalMoves != 5 {
		t.Errorf("TotalMoves = %d, want 5", state.TotalMoves)
	}
}

func TestGameService_MoveRejections(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	tests := []struct {
		name      string
		cell      string
		direction string
		wantMsg   string
	}{
		{"no selection", "", "north", "Select a vehicle first."},
		{"empty cell", "3A", "north", "Selected: (none)"},
		{"blocked", "2C", "west", "Blocked: another vehicle is in the way."},
		{"unknown direction", "2C", "diagonal", "Unknown direction 'diagonal'."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Move(ctx, id, tt.cell, tt.direction)
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if res.Success {
				t.Error("expected rejection")
			}
			if res.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", res.Message, tt.wantMsg)
			}
		})
	}

	if _, err := svc.Move(ctx, "nope", "", "north"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestGameService_Rotate(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	res, err := svc.Rotate(ctx, id, "4C", "cw")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Errorf("rotating the blue car off the board should fail, got %q", res.Message)
	}
	if !hasEvent(res.Events, service.EventBlocked) {
		t.Errorf("expected blocked event, got %+v", res.Events)
	}

	res, _ = svc.Rotate(ctx, id, "4C", "ccw")
	if !res.Success {
		t.Errorf("ccw rotation should succeed, got %q", res.Message)
	}
}

func TestGameService_LoadLevelAndReset(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	res, err := svc.LoadLevel(ctx, id, "C,2D;P,Y,2A")
	if !errors.Is(err, engine.ErrInvalidLevel) {
		t.Fatalf("LoadLevel() error = %v, want ErrInvalidLevel", err)
	}
	if res.Success || len(res.GameState.Vehicles) != 0 {
		t.Errorf("failed load should leave no level, got %+v", res.GameState)
	}
	if !hasEvent(res.Events, service.EventLevelError) {
		t.Errorf("expected level_error event, got %+v", res.Events)
	}

	if _, err := svc.Reset(ctx, id, true); !errors.Is(err, engine.ErrNoLevel) {
		t.Errorf("restart without level error = %v, want ErrNoLevel", err)
	}

	res, err = svc.LoadLevel(ctx, id, westExitLine)
	if err != nil || !res.Success {
		t.Fatalf("LoadLevel() = %+v, %v", res, err)
	}
	if res.Message != "Loaded level: vehicles=4." {
		t.Errorf("Message = %q", res.Message)
	}
	if res.GameState.LevelIndex != engine.CustomLevel {
		t.Errorf("LevelIndex = %d, want custom", res.GameState.LevelIndex)
	}

	svc.Move(ctx, id, "1B", "south")
	res, err = svc.Reset(ctx, id, false)
	if err != nil || !res.Success {
		t.Fatalf("Reset() = %+v, %v", res, err)
	}
	if res.GameState.Selected != engine.NoSelection {
		t.Error("reset should clear selection")
	}
	if got := res.GameState.Vehicles[1].Cells[0]; got != "2B" {
		t.Errorf("plain reset moved vehicles back: red starts at %s", got)
	}

	res, _ = svc.Reset(ctx, id, true)
	if got := res.GameState.Vehicles[1].Cells[0]; got != "1B" {
		t.Errorf("restart left red car at %s", got)
	}
	if !hasEvent(res.Events, service.EventRestart) {
		t.Errorf("expected restart event, got %+v", res.Events)
	}
}

func TestGameService_Difficulty(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	if _, err := svc.SelectDifficulty(ctx, id, "impossible"); err == nil {
		t.Error("expected error for unknown difficulty")
	}

	res, err := svc.SelectDifficulty(ctx, id, "easy")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 1 || res.Events[0].Message != "Difficulty: Easy." {
		t.Errorf("reselecting easy events = %+v", res.Events)
	}

	res, err = svc.SelectDifficulty(ctx, id, "hard")
	if err != nil {
		t.Fatal(err)
	}
	if res.GameState.GridSize != 6 || len(res.GameState.Vehicles) != 0 {
		t.Errorf("difficulty change: grid=%d vehicles=%d", res.GameState.GridSize, len(res.GameState.Vehicles))
	}

	res, err = svc.NextLevel(ctx, id)
	if err != nil || !res.Success {
		t.Fatalf("NextLevel() = %+v, %v", res, err)
	}
	if res.GameState.PackSize != 3 || res.GameState.QueueRemaining != 2 {
		t.Errorf("pack=%d queue=%d", res.GameState.PackSize, res.GameState.QueueRemaining)
	}

	svc.SelectDifficulty(ctx, id, "medium")
	if _, err := svc.NextLevel(ctx, id); !errors.Is(err, engine.ErrEmptyPack) {
		t.Errorf("NextLevel() on empty pack error = %v, want ErrEmptyPack", err)
	}
}

func TestGameService_RunProgram(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	prog := &program.Program{Stacks: []program.Stack{
		{Vehicle: 1, Instructions: []program.Instruction{{Op: program.OpMove, Direction: "south"}, {Op: program.OpMove, Direction: "south"}}},
		{Vehicle: 0, Instructions: []program.Instruction{{Op: program.OpWait}, {Op: program.OpWait}, {Op: program.OpMove, Direction: "west"}, {Op: program.OpMove, Direction: "west"}, {Op: program.OpMove, Direction: "west"}}},
	}}

	steps := 0
	res, err := svc.RunProgram(ctx, id, prog, func(program.Step) { steps++ })
	if err != nil {
		t.Fatalf("RunProgram() error = %v", err)
	}
	if !res.Won || !res.GameState.Won {
		t.Errorf("program should win, got %q", res.Message)
	}
	if steps != res.Steps || steps != 7 {
		t.Errorf("steps reported %d, result %d, want 7", steps, res.Steps)
	}

	bad := &program.Program{Stacks: []program.Stack{{Vehicle: 9, Instructions: []program.Instruction{{Op: program.OpWait}}}}}
	svc.Reset(ctx, id, true)
	if _, err := svc.RunProgram(ctx, id, bad, nil); !errors.Is(err, program.ErrInvalidProgram) {
		t.Errorf("RunProgram() error = %v, want ErrInvalidProgram", err)
	}
}

func TestGameService_Hint(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	hint, err := svc.Hint(ctx, id, false)
	if err != nil {
		t.Fatal(err)
	}
	if !hint.Solvable || hint.MovesLeft != 5 {
		t.Fatalf("Hint() = %+v", hint)
	}
	if hint.Next == nil || hint.Next.Vehicle != 1 || hint.Next.Direction != "south" {
		t.Errorf("Next = %+v, want red car south", hint.Next)
	}

	// Hints follow the live position
	svc.Move(ctx, id, "1B", "south")
	hint, _ = svc.Hint(ctx, id, false)
	if hint.MovesLeft != 4 {
		t.Errorf("MovesLeft after one move = %d, want 4", hint.MovesLeft)
	}

	svc.SelectDifficulty(ctx, id, "medium")
	if _, err := svc.Hint(ctx, id, false); !errors.Is(err, engine.ErrNoLevel) {
		t.Errorf("Hint() without level error = %v, want ErrNoLevel", err)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	svc.Move(ctx, id, "1B", "south")
	svc.Move(ctx, id, "", "south")
	svc.Move(ctx, id, "", "south") // blocked by the board edge

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantMoves int
		wantFirst int
		wantNext  bool
	}{
		{"defaults newest first", service.HistoryOptions{}, 3, 3, false},
		{"ascending page", service.HistoryOptions{Limit: 2, Order: "asc"}, 2, 1, true},
		{"second page", service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"}, 1, 3, false},
		{"past the end", service.HistoryOptions{Page: 5, Limit: 2}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := svc.GetMoveHistory(ctx, id, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if h.TotalMoves != 3 {
				t.Errorf("TotalMoves = %d, want 3", h.TotalMoves)
			}
			if len(h.Moves) != tt.wantMoves {
				t.Fatalf("got %d moves, want %d", len(h.Moves), tt.wantMoves)
			}
			if tt.wantMoves > 0 && h.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("first MoveNumber = %d, want %d", h.Moves[0].MoveNumber, tt.wantFirst)
			}
			if h.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", h.HasNext, tt.wantNext)
			}
		})
	}

	h, _ := svc.GetMoveHistory(ctx, id, service.HistoryOptions{})
	if h.Moves[0].Success {
		t.Error("newest entry should be the rejected move")
	}
}

func TestGameService_Packs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	packs, err := svc.ListPacks(ctx)
	if err != nil || len(packs) != 2 {
		t.Fatalf("ListPacks() = %d packs, %v", len(packs), err)
	}

	if _, err := svc.LoadPack(ctx, "missing"); err == nil {
		t.Error("expected error for missing pack")
	}

	good := &engine.LevelPack{Name: "mine", Difficulty: engine.Easy, Levels: []string{westExitLine}}
	if err := svc.SavePack(ctx, "mine", good); err != nil {
		t.Errorf("SavePack() error = %v", err)
	}
	bad := &engine.LevelPack{Name: "bad", Difficulty: engine.Easy, Levels: []string{"x"}}
	if err := svc.SavePack(ctx, "bad", bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	if err := svc.DeleteSession(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetSession(ctx, id); err == nil {
		t.Error("deleted session still reachable")
	}
	if err := svc.DeleteSession(ctx, id); err == nil {
		t.Error("second delete should fail")
	}
}

func TestGameService_ConcurrentAccessAndListing(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameServiceWithOptions(session.NewManager(), NewMockPackManager(), service.Options{Seed: 7})
	info, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.GetGameState(ctx, info.ID); err != nil {
				t.Errorf("GetGameState failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.ListSessions(ctx); err != nil {
				t.Errorf("ListSessions failed: %v", err)
			}
			if _, err := svc.GetSession(ctx, info.ID); err != nil {
				t.Errorf("GetSession failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastAccessedAt.Before(info.CreatedAt) {
		t.Errorf("Last access %v precedes creation %v", got.LastAccessedAt, info.CreatedAt)
	}
}

func TestGameService_SessionExists(t *testing.T) {
	svc, id := newTestService(t)

	if err := svc.SessionExists(context.Background(), id); err != nil {
		t.Errorf("Expected session %s to exist: %v", id, err)
	}
	if err := svc.SessionExists(context.Background(), "nope"); err == nil {
		t.Error("Expected an error for an unknown session")
	}
}
