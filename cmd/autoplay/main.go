// Command autoplay plays GridRunner levels against a running server through
// the REST API, asking the hint endpoint for each move.
//
//	autoplay -url http://localhost:8080 -difficulty medium -levels 5
//	autoplay -session ab12 -rotation
//
// It exits non-zero when a level cannot be solved within -max-moves.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/service"
	"github.com/wricardo/mcp-training/gridrunner/game/solver"
)

var (
	errUnsolvable = errors.New("level has no solution")
	errMoveLimit  = errors.New("move limit reached")
)

type options struct {
	URL        string
	Session    string
	Difficulty string
	Levels     int
	MaxMoves   int
	Rotation   bool
	Delay      time.Duration
	Verbose    bool
}

// Client talks to the REST API on behalf of one session.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do sends body as JSON and decodes the reply into result. Non-2xx replies
// become errors carrying the API's error message.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) CreateSession(ctx context.Context, difficulty string) (*engine.GameState, error) {
	body := map[string]string{}
	if difficulty != "" {
		body["difficulty"] = difficulty
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return session.GameState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) NextLevel(ctx context.Context) (*engine.GameState, error) {
	var result service.ActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/next-level"), nil, &result); err != nil {
		return nil, err
	}
	return result.GameState, nil
}

func (c *Client) Hint(ctx context.Context, rotation bool) (*service.HintResult, error) {
	var hint service.HintResult
	path := c.sessionPath(fmt.Sprintf("/hint?rotation=%t", rotation))
	if err := c.do(ctx, http.MethodGet, path, nil, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}

// Apply performs a solver action on the vehicle occupying cell.
func (c *Client) Apply(ctx context.Context, cell string, action solver.Action) (*service.ActionResult, error) {
	req := struct {
		Cell      string `json:"cell"`
		Direction string `json:"direction"`
	}{cell, action.Direction}

	var result service.ActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/"+action.Op), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// playLevel follows hints until the level is won. It returns the number of
// moves made.
func playLevel(ctx context.Context, c *Client, state *engine.GameState, cfg options) (int, error) {
	moves := 0
	for !state.Won {
		if moves >= cfg.MaxMoves {
			return moves, fmt.Errorf("%w after %d moves", errMoveLimit, moves)
		}

		hint, err := c.Hint(ctx, cfg.Rotation)
		if err != nil {
			return moves, err
		}
		if !hint.Solvable || hint.Next == nil {
			return moves, fmt.Errorf("%w: %s", errUnsolvable, hint.Message)
		}

		next := *hint.Next
		if next.Vehicle < 0 || next.Vehicle >= len(state.Vehicles) {
			return moves, fmt.Errorf("hint names unknown vehicle %d", next.Vehicle)
		}
		vehicle := state.Vehicles[next.Vehicle]

		result, err := c.Apply(ctx, vehicle.Cells[0], next)
		if err != nil {
			return moves, err
		}
		if !result.Success {
			return moves, fmt.Errorf("%s %s %s rejected: %s", next.Op, vehicle.Label(), next.Direction, result.Message)
		}
		moves++
		state = result.GameState

		if cfg.Verbose {
			log.Printf("  %3d. %s %s %s", moves, next.Op, vehicle.Label(), next.Direction)
		}
		if cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return moves, ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
	}
	return moves, nil
}

// run plays cfg.Levels levels in one session, dealing a fresh level after
// each win.
func run(ctx context.Context, cfg options) error {
	c := NewClient(cfg.URL)

	var state *engine.GameState
	var err error
	if cfg.Session != "" {
		c.sessionID = cfg.Session
		state, err = c.GetState(ctx)
		if err != nil {
			return fmt.Errorf("resume session %s: %w", cfg.Session, err)
		}
		log.Printf("🔄 Resuming session: %s", c.sessionID)
	} else {
		state, err = c.CreateSession(ctx, cfg.Difficulty)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		log.Printf("✨ Session created: %s", c.sessionID)
	}

	total := 0
	for level := 1; level <= cfg.Levels; level++ {
		if state.LevelLine == "" || state.Won {
			if state, err = c.NextLevel(ctx); err != nil {
				return fmt.Errorf("deal level %d: %w", level, err)
			}
		}

		log.Printf("=== 🎮 Level %d/%d: %s (%dx%d, %d vehicles)",
			level, cfg.Levels, state.LevelLine, state.GridSize, state.GridSize, len(state.Vehicles))

		moves, err := playLevel(ctx, c, state, cfg)
		if err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		total += moves
		log.Printf("🎉 Level %d solved in %d moves", level, moves)

		if state, err = c.GetState(ctx); err != nil {
			return err
		}
	}

	log.Printf("Solved %d levels in %d moves (session %s)", cfg.Levels, total, c.sessionID)
	return nil
}

func main() {
	var cfg options
	flag.StringVar(&cfg.URL, "url", "http://localhost:8080", "Game server URL")
	flag.StringVar(&cfg.Session, "session", "", "Play an existing session by ID")
	flag.StringVar(&cfg.Difficulty, "difficulty", "", "Difficulty for a new session (easy, medium, hard)")
	flag.IntVar(&cfg.Levels, "levels", 1, "Number of levels to play")
	flag.IntVar(&cfg.MaxMoves, "max-moves", 200, "Maximum moves per level")
	flag.BoolVar(&cfg.Rotation, "rotation", false, "Let hints rotate vehicles")
	flag.DurationVar(&cfg.Delay, "delay", 0, "Delay between moves, e.g. 250ms")
	flag.BoolVar(&cfg.Verbose, "v", false, "Log every move")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("Connecting to game server at %s", cfg.URL)
	if err := run(ctx, cfg); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
