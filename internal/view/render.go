// Package view projects session state onto what a front end draws.
package view

import (
	"time"

	"github.com/zhouzirui/chat-widget/internal/model/chat"
)

// TimeLayout is the clock format shown under every message.
const TimeLayout = "15:04"

// DefaultSearchingLabel is shown next to the indicator while a call is in flight.
const DefaultSearchingLabel = "Searching and analyzing..."

// Item is one drawable transcript entry.
type Item struct {
	ID        string    `json:"id"`
	Role      chat.Role `json:"role"`
	Class     string    `json:"class"`
	Content   string    `json:"content"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

// View is the full projection. Indicator is never part of Items.
type View struct {
	SessionID string `json:"sessionId"`
	Items     []Item `json:"items"`
	Searching bool   `json:"searching"`
	Indicator string `json:"indicator,omitempty"`
	Input     string `json:"input"`
	// Version orders views of one session; clients drop a view older than the one shown.
	Version uint64 `json:"version"`
}

// Renderer turns snapshots into views in a fixed location.
type Renderer struct {
	Location       *time.Location
	SearchingLabel string
}

// NewRenderer returns a renderer for loc; nil means time.Local.
func NewRenderer(loc *time.Location, searchingLabel string) Renderer {
	if loc == nil {
		loc = time.Local
	}
	if searchingLabel == "" {
		searchingLabel = DefaultSearchingLabel
	}
	return Renderer{Location: loc, SearchingLabel: searchingLabel}
}

// Render projects snap without modifying it.
func (r Renderer) Render(snap chat.Snapshot) View {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	items := make([]Item, 0, len(snap.Transcript))
	for _, msg := range snap.Transcript {
		items = append(items, Item{
			ID:        msg.ID,
			Role:      msg.Role,
			Class:     ClassFor(msg.Role),
			Content:   msg.Content,
			Time:      FormatTime(msg.CreatedAt, loc),
			CreatedAt: msg.CreatedAt,
		})
	}

	v := View{
		SessionID: snap.SessionID,
		Items:     items,
		Searching: snap.Busy,
		Input:     snap.Input,
		Version:   snap.Version,
	}
	if snap.Busy {
		v.Indicator = r.SearchingLabel
		if v.Indicator == "" {
			v.Indicator = DefaultSearchingLabel
		}
	}
	return v
}

// ClassFor maps a role to its style class.
func ClassFor(role chat.Role) string {
	if role == chat.RoleUser {
		return "user"
	}
	return "assistant"
}

// FormatTime renders t as local hours and minutes.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}
