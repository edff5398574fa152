package api

import (
	"time"

	"topdock/internal/services"
)

type snapshotResponse struct {
	Sequence       uint64    `json:"sequence"`
	CapturedAt     time.Time `json:"captured_at"`
	Title          string    `json:"title"`
	ExecutablePath string    `json:"executable_path,omitempty"`
	HasExecutable  bool      `json:"has_executable"`
	IconSize       string    `json:"icon_size"`
	HasIcon        bool      `json:"has_icon"`
	IconReason     string    `json:"icon_reason,omitempty"`
	Icon           string    `json:"icon,omitempty"` // PNG data URL
}

func newSnapshotResponse(s services.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Sequence:       s.Sequence,
		CapturedAt:     s.CapturedAt,
		Title:          s.Window.Title,
		ExecutablePath: s.Window.ExecutablePath,
		HasExecutable:  s.Window.HasExecutable,
		IconSize:       s.IconSize.String(),
		HasIcon:        s.HasIcon(),
		IconReason:     s.IconReason,
	}
	if s.HasIcon() {
		resp.Icon = s.Icon.DataURL()
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
