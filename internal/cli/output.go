package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	if o.format == "json" {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Hand:
		o.printHand(v)
	case MoveResult:
		o.printMoveResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Draw response type
type Draw struct {
	ID   string `json:"id"`
	Card string `json:"card"`
}

// Hand response type
type Hand struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
	Round    int    `json:"round"`
	Draws    []Draw `json:"draws"`
}

// MoveResult is a game session response
type MoveResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Card    string `json:"card,omitempty"`
	Score   *int   `json:"score,omitempty"`
}

// Failed reports whether the server rejected the action
func (m MoveResult) Failed() bool {
	return m.Status != "success"
}

// HealthResult response type
type HealthResult struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (o *Output) printPlayer(p Player) {
	_, _ = fmt.Fprintf(o.w, "Player: %s\n", p.ID)
	if p.Email != "" {
		_, _ = fmt.Fprintf(o.w, "Email: %s\n", p.Email)
	}
}

func (o *Output) printHand(h Hand) {
	_, _ = fmt.Fprintf(o.w, "Player: %s\n", h.PlayerID)
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Score: %d\n", h.Score)
	_, _ = fmt.Fprintf(o.w, "Round: %d\n", h.Round)
	if len(h.Draws) > 0 {
		_, _ = fmt.Fprint(o.w, "Cards:")
		for _, d := range h.Draws {
			_, _ = fmt.Fprintf(o.w, " %s", d.Card)
		}
		_, _ = fmt.Fprintln(o.w)
	}
}

func (o *Output) printMoveResult(m MoveResult) {
	switch {
	case m.Failed():
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", m.Message)
	case m.Card != "" && m.Score != nil:
		_, _ = fmt.Fprintf(o.w, "Drew %s, score %d\n", m.Card, *m.Score)
	default:
		_, _ = fmt.Fprintln(o.w, "OK")
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Sessions: %d\n", h.Sessions)
}
