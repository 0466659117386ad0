package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/service"
)

const (
	defaultTimeout = 10 * time.Second
	// Programs are paced, so a run can outlast a normal request.
	programTimeout = 2 * time.Minute
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL       string
	httpClient    *http.Client
	programClient *http.Client
	mcpServer     *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: defaultTimeout},
		programClient: &http.Client{Timeout: programTimeout},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"GridRunner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`GridRunner - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide vehicles around the grid until the player vehicle (PY on the board) can
drive out through the exit marked with <, >, ^ or v.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- game_state: board, vehicles, exit and status
- select_vehicle: select the vehicle on a cell
- move: slide the selected vehicle (or the one on "cell") one step
- rotate: turn a vehicle 90 degrees about its first cell
- set_difficulty / next_level / load_level: choose what to play
- reset_game: clear the selection or restart the level
- run_program: run a block program, one stack per vehicle
- hint: ask the solver for the next move
- describe_cell: what occupies a cell
- move_history / list_packs / game_instructions

NOTE: The 'intent' parameter on move/rotate serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intentProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Brief explanation of the intent behind this action (serves as a rubber duck to help explain your reasoning)",
	}
}

func cellProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session and load its first level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"difficulty": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"easy", "medium", "hard"},
					"description": "Difficulty to start on (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, vehicles, exit and status message",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_vehicle",
		Description: "Select the vehicle occupying a cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"cell":       cellProp("Cell label such as 2C (row number, then column letter)"),
			},
			Required: []string{"session_id", "cell"},
		},
	}, c.handleSelect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide a vehicle one cell along its own axis. The player vehicle wins by moving out through the exit.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"north", "south", "east", "west"},
					"description": "Direction to move",
				},
				"cell":   cellProp("Cell of the vehicle to move (optional, defaults to the current selection)"),
				"intent": intentProp(),
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rotate",
		Description: "Rotate a vehicle 90 degrees about its first cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"cw", "ccw"},
					"description": "Clockwise or counter-clockwise",
				},
				"cell":   cellProp("Cell of the vehicle to rotate (optional, defaults to the current selection)"),
				"intent": intentProp(),
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleRotate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_difficulty",
		Description: "Switch difficulty and load a level from its pack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"difficulty": map[string]interface{}{
					"type": "string",
					"enum": []string{"easy", "medium", "hard"},
				},
			},
			Required: []string{"session_id", "difficulty"},
		},
	}, c.handleSetDifficulty)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Load the next unplayed level of the current difficulty",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleNextLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "load_level",
		Description: "Load a level from a raw level line, e.g. A,2A;P,Y,2C,2D;C,R,1B,2B",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"line": map[string]interface{}{
					"type":        "string",
					"description": "Level line: exit side and cell, then one type,color,start,end group per vehicle",
				},
			},
			Required: []string{"session_id", "line"},
		},
	}, c.handleLoadLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Clear the selection, or restart the level from its starting positions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"restart": map[string]interface{}{
					"type":        "boolean",
					"description": "Put every vehicle back where the level started",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_program",
		Description: "Run a block program. Each stack drives one vehicle; rows run in lockstep and execution stops at the first win.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"program": map[string]interface{}{
					"type":        "object",
					"description": `{"stacks":[{"vehicle":1,"instructions":[{"op":"move","direction":"south"},{"op":"rotate","direction":"cw"},{"op":"wait"}]}]}`,
				},
			},
			Required: []string{"session_id", "program"},
		},
	}, c.handleRunProgram)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Ask the solver for the shortest solution from the current position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"allow_rotation": map[string]interface{}{
					"type":        "boolean",
					"description": "Let the solver use rotations",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe what occupies a cell: the vehicle, its index and orientation, or empty; and whether it is the exit cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"cell":       cellProp("Cell label such as 3B"),
			},
			Required: []string{"session_id", "cell"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type": "string",
					"enum": []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_packs",
		Description: "List available level packs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPacks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules, the level line format and the program format",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return c.do(ctx, c.httpClient, method, path, body, result)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	difficulty, _ := args["difficulty"].(string)

	body := map[string]string{}
	if difficulty != "" {
		body["difficulty"] = difficulty
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nDifficulty: %s\n\n%s",
		session.ID, session.Difficulty, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		won := ""
		if s.GameState != nil && s.GameState.Won {
			won = ", won"
		}
		fmt.Fprintf(&result, "- %s (Difficulty: %s, Created: %s%s)\n",
			s.ID, s.Difficulty, s.CreatedAt.Format("15:04:05"), won)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// action posts to a session action endpoint and formats the ActionResult
func (c *Client) action(ctx context.Context, sessionID, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	cell, _ := args["cell"].(string)

	return c.action(ctx, sessionID, "/select", map[string]string{"cell": cell})
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	cell, _ := args["cell"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_, _ = args["intent"].(string)

	return c.action(ctx, sessionID, "/move", map[string]string{"cell": cell, "direction": direction})
}

func (c *Client) handleRotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	cell, _ := args["cell"].(string)

	return c.action(ctx, sessionID, "/rotate", map[string]string{"cell": cell, "direction": direction})
}

func (c *Client) handleSetDifficulty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	difficulty, _ := args["difficulty"].(string)

	return c.action(ctx, sessionID, "/difficulty", map[string]string{"difficulty": difficulty})
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	return c.action(ctx, sessionID, "/next-level", nil)
}

func (c *Client) handleLoadLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	line, _ := args["line"].(string)

	return c.action(ctx, sessionID, "/level", map[string]string{"line": line})
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	restart, _ := args["restart"].(bool)

	return c.action(ctx, sessionID, "/reset", map[string]bool{"restart": restart})
}

func (c *Client) handleRunProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	var body interface{}
	switch p := args["program"].(type) {
	case string:
		// Some agents send the program as a JSON string
		body = json.RawMessage(p)
	case map[string]interface{}:
		body = p
	default:
		return mcp.NewToolResultError("program must be an object with a stacks array"), nil
	}

	var result service.ProgramResult
	if err := c.do(ctx, c.programClient, "POST", sessionPath(sessionID, "/program"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProgramResult(&result)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	allowRotation, _ := args["allow_rotation"].(bool)

	path := sessionPath(sessionID, "/hint")
	if allowRotation {
		path += "?rotation=true"
	}

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", path, nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHint(&hint)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	label, _ := args["cell"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := describeCell(&state, label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListPacks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var packs []service.PackInfo
	if err := c.apiCall(ctx, "GET", "/api/packs", nil, &packs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Level Packs:\n\n")
	for _, p := range packs {
		source := p.Filename
		if p.Builtin {
			source = "built-in"
		}
		fmt.Fprintf(&result, "• %s (%s, %d levels, %s)\n", p.PackID, p.Difficulty, p.LevelCount, source)
		if p.Description != "" {
			fmt.Fprintf(&result, "  %s\n", p.Description)
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `GridRunner - Complete Instructions

GAME OBJECTIVE:
Free the player vehicle. Slide the other vehicles out of the way until the
player can drive out of the grid through the exit.

GRIDS:
• Easy: 4x4, Medium: 5x5, Hard: 6x6
• Cells are named row number then column letter: 1A is the top-left corner,
  rows grow downwards and columns grow to the right.

BOARD LEGEND:
• Each occupied cell shows a type letter and a color letter:
  P = Player, C = Car (2 cells), B = Bus (3 cells), T = Truck (4 cells)
  R = Red, G = Green, B = Blue, Y = Yellow
  e.g. PY is the yellow player, CR a red car
• .. is an empty cell
• <, >, ^ and v mark the exit beside its cell (west, east, north, south)

MOVEMENT RULES:
• Vehicles only slide along their own axis: horizontal vehicles move
  east/west, vertical vehicles move north/south.
• A move is one cell. It is blocked by the grid edge or another vehicle.
• The player wins by moving out through the exit cell in the exit's
  direction, lined up with the exit side.
• Rotation turns a vehicle 90 degrees about its first cell. The cells it
  swings across must be free, not just its destination.
• Blocked moves are not errors: the status message explains what stopped you.

LEVEL LINE FORMAT:
  <exit side>,<exit cell>;<type>,<color>,<start>,<end>;...
  Exit side: A = west, B = north, C = east, D = south
  Example: A,2A;P,Y,2C,2D;C,R,1B,2B;C,G,1C,1D;C,B,4C,4D

PROGRAMS (run_program):
• One stack per vehicle, addressed by its index in the game state.
• Instructions: move north/south/east/west, rotate cw/ccw, wait.
• Rows run in lockstep: the first instruction of every stack, then the second,
  and so on. Execution stops at the first win.

STRATEGY:
• Use hint to get the next move from the solver when stuck.
• Look at what blocks the player's path to the exit, then at what blocks
  those vehicles.
• restart puts every vehicle back where the level began.

Good luck!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nDifficulty: %s\nCreated: %s\n\n%s",
		session.ID, session.Difficulty,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Difficulty: %s (%dx%d) | Moves: %d | Levels left in queue: %d\n",
		state.Difficulty, state.GridSize, state.GridSize, state.TotalMoves, state.QueueRemaining)
	if state.ExitSide != "" {
		fmt.Fprintf(&result, "Exit: %s side at %s\n", state.ExitSide.Name(), state.ExitCell)
	}
	result.WriteString("\n")

	for _, line := range state.Board {
		result.WriteString(line + "\n")
	}
	result.WriteString("\n")

	if len(state.Vehicles) > 0 {
		result.WriteString("Vehicles:\n")
		for i, v := range state.Vehicles {
			marker := " "
			if i == state.Selected {
				marker = "*"
			}
			fmt.Fprintf(&result, "%s %d: %s %s\n", marker, i, v.Label(), strings.Join(v.Cells, ","))
		}
		result.WriteString("\n")
	}

	if state.Won {
		result.WriteString("🎉 VICTORY!\n")
	}
	fmt.Fprintf(&result, "Message: %s", state.Message)

	return result.String()
}

func formatActionResult(result *service.ActionResult) string {
	var out strings.Builder

	if result.Success {
		fmt.Fprintf(&out, "✓ %s\n", result.Message)
	} else {
		fmt.Fprintf(&out, "✗ %s\n", result.Message)
	}
	for _, e := range result.Events {
		if e.Type == service.EventVictory {
			out.WriteString("🎉 The player vehicle escaped!\n")
		}
	}
	out.WriteString("\n")
	out.WriteString(formatGameState(result.GameState))

	return out.String()
}

func formatProgramResult(result *service.ProgramResult) string {
	var out strings.Builder

	if result.Result != nil {
		fmt.Fprintf(&out, "Program %s: %d steps. %s\n", result.RunID, result.Steps, result.Message)
		if result.Canceled {
			out.WriteString("Run was canceled.\n")
		}
	}
	out.WriteString("\n")
	out.WriteString(formatGameState(result.GameState))

	return out.String()
}

func formatHint(hint *service.HintResult) string {
	var out strings.Builder

	out.WriteString(hint.Message + "\n")
	if !hint.Solvable {
		return out.String()
	}

	fmt.Fprintf(&out, "\nFull solution (%d moves, %d positions searched):\n", hint.MovesLeft, hint.StatesExplored)
	for i, a := range hint.Actions {
		fmt.Fprintf(&out, "%d. %s vehicle %d %s\n", i+1, a.Op, a.Vehicle, a.Direction)
	}

	return out.String()
}

func describeCell(state *engine.GameState, label string) (string, error) {
	row, col, err := engine.ParseCell(label)
	if err != nil {
		return "", err
	}
	if row < 1 || row > state.GridSize || col < 0 || col >= state.GridSize {
		return "", fmt.Errorf("cell %s is outside the %dx%d grid", label, state.GridSize, state.GridSize)
	}
	cell := engine.FormatCell(row, col)

	var out strings.Builder
	fmt.Fprintf(&out, "Cell %s:\n", cell)

	occupied := false
	for i, v := range state.Vehicles {
		for pos, c := range v.Cells {
			if c != cell {
				continue
			}
			occupied = true
			fmt.Fprintf(&out, "Vehicle %d: %s, %s, cells %s\n",
				i, v.Label(), engine.OrientationOf(v.Cells), strings.Join(v.Cells, ","))
			if pos == 0 {
				out.WriteString("This is the vehicle's first cell (its rotation pivot).\n")
			}
		}
	}
	if !occupied {
		out.WriteString("Empty.\n")
	}
	if cell == state.ExitCell {
		fmt.Fprintf(&out, "This is the exit cell; the exit is on the %s side.\n", state.ExitSide.Name())
	}

	return out.String(), nil
}

func formatHistory(history *service.HistoryResponse) string {
	var result strings.Builder

	fmt.Fprintf(&result, "Move History (Page %d/%d, Total: %d moves)\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		fmt.Fprintf(&result, "%s #%d: %s %s vehicle %d %s",
			status, move.MoveNumber, move.Action, move.Direction, move.Vehicle, strings.Join(move.From, ","))
		if len(move.To) > 0 {
			fmt.Fprintf(&result, " -> %s", strings.Join(move.To, ","))
		}
		if move.Won {
			result.WriteString(" 🎉")
		}
		fmt.Fprintf(&result, " (%s)\n", move.Message)
	}

	if history.HasPrevious || history.HasNext {
		result.WriteString("\n")
		if history.HasPrevious {
			result.WriteString("← Previous page available ")
		}
		if history.HasNext {
			result.WriteString("→ Next page available")
		}
	}

	return result.String()
}
