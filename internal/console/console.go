// Package console drives a reading session with simple commands, either as
// JSON messages over a websocket or as lines typed at a terminal.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ziadkadry99/guidebook/internal/search"
	"github.com/ziadkadry99/guidebook/internal/session"
)

// Command is one request to a session.
type Command struct {
	Type     string  `json:"type"`
	Href     string  `json:"href,omitempty"`
	Selector string  `json:"selector,omitempty"`
	X        float64 `json:"x,omitempty"`
	Value    string  `json:"value,omitempty"`
}

// Response answers a command. Type is "state", "results", "chapters",
// "html" or "error".
type Response struct {
	Type     string            `json:"type"`
	Outcome  string            `json:"outcome,omitempty"`
	State    *session.Snapshot `json:"state,omitempty"`
	Results  []search.Result   `json:"results,omitempty"`
	Chapters []session.Chapter `json:"chapters,omitempty"`
	Content  string            `json:"content,omitempty"`
}

// Help lists the line commands.
const Help = `commands:
  open <url>            full load
  follow <href>         activate a link
  click <selector> [x]  click an element, x pixels into its label
  back | forward | reload
  font <index|+|->      font size
  theme <name>          white, sepia or night
  sidebar               show or hide the sidebar
  search <query>        run a search
  scroll <y>            scroll and track the table of contents
  chapters | state | html`

// ParseLine turns a typed line into a command.
func ParseLine(line string) (Command, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	cmd := Command{Type: strings.ToLower(verb)}
	switch cmd.Type {
	case "":
		return cmd, fmt.Errorf("empty command")
	case "open", "follow":
		if rest == "" {
			return cmd, fmt.Errorf("%s needs an address", cmd.Type)
		}
		cmd.Href = rest
	case "click":
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return cmd, fmt.Errorf("click needs a selector")
		}
		cmd.Selector = rest
		if len(fields) > 1 {
			if x, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
				cmd.X = x
				cmd.Selector = strings.TrimSpace(strings.TrimSuffix(rest, fields[len(fields)-1]))
			}
		}
	case "font", "theme", "search", "scroll":
		cmd.Value = rest
	}
	return cmd, nil
}

// Exec runs cmd against sess.
func Exec(ctx context.Context, sess *session.Session, cmd Command) Response {
	resp, err := exec(ctx, sess, cmd)
	if err != nil {
		return Response{Type: "error", Outcome: resp.Outcome, Content: err.Error()}
	}
	return resp
}

func exec(ctx context.Context, sess *session.Session, cmd Command) (Response, error) {
	switch cmd.Type {
	case "open":
		if err := sess.Open(ctx, cmd.Href); err != nil {
			return Response{}, err
		}
	case "follow":
		out, err := sess.Follow(ctx, cmd.Href)
		if err != nil {
			return Response{Outcome: out.String()}, err
		}
		return state(sess, out.String()), nil
	case "click":
		out, err := sess.Click(ctx, cmd.Selector, cmd.X)
		if err != nil {
			return Response{Outcome: out.String()}, err
		}
		return state(sess, out.String()), nil
	case "back":
		if !sess.Back(ctx) {
			return Response{}, fmt.Errorf("no earlier page")
		}
	case "forward":
		if !sess.Forward(ctx) {
			return Response{}, fmt.Errorf("no later page")
		}
	case "reload":
		if err := sess.Window.Reload(ctx); err != nil {
			return Response{}, err
		}
	case "font":
		var err error
		switch cmd.Value {
		case "+":
			err = sess.StepFontSize(true)
		case "-":
			err = sess.StepFontSize(false)
		default:
			idx, convErr := strconv.Atoi(cmd.Value)
			if convErr != nil {
				return Response{}, fmt.Errorf("font size %q: %w", cmd.Value, convErr)
			}
			err = sess.SetFontSize(idx)
		}
		if err != nil {
			return Response{}, err
		}
	case "theme":
		if err := sess.SetTheme(cmd.Value); err != nil {
			return Response{}, err
		}
	case "sidebar":
		if _, err := sess.ToggleSidebar(); err != nil {
			return Response{}, err
		}
	case "search":
		results := sess.Search.Run(ctx, cmd.Value)
		return Response{Type: "results", Results: results}, nil
	case "scroll":
		y, err := strconv.Atoi(cmd.Value)
		if err != nil {
			return Response{}, fmt.Errorf("scroll offset %q: %w", cmd.Value, err)
		}
		section := sess.Scroll(y)
		r := state(sess, "")
		r.Content = section
		return r, nil
	case "chapters":
		return Response{Type: "chapters", Chapters: sess.Chapters()}, nil
	case "html":
		out, err := sess.HTML()
		if err != nil {
			return Response{}, err
		}
		return Response{Type: "html", Content: out}, nil
	case "state":
	default:
		return Response{}, fmt.Errorf("unknown command %q", cmd.Type)
	}
	return state(sess, ""), nil
}

func state(sess *session.Session, outcome string) Response {
	snap := sess.Snapshot()
	return Response{Type: "state", Outcome: outcome, State: &snap}
}
