package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/archiver/internal/backend"
	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/ui"
)

// sender is the part of *tea.Program the presenter needs.
type sender interface {
	Send(msg tea.Msg)
}

// programPresenter forwards window state to the Bubble Tea program and mirrors progress on
// the bridge's splash-progress channel.
type programPresenter struct {
	program sender
	bridge  *bridge.Bridge
}

func (p programPresenter) ShowProgress(ev backend.Progress) {
	if p.bridge != nil {
		if err := p.bridge.Emit(bridge.ChannelSplashProgress, ev); err != nil {
			logging.Warning("emit splash progress: %v", err)
		}
	}
	p.program.Send(ui.ProgressMsg{Message: ev.Message, Percent: ev.Percent})
}

func (p programPresenter) ShowMain(port int) {
	p.program.Send(ui.ReadyMsg{Port: port})
}

func (p programPresenter) ShowFailure(err error) {
	p.program.Send(ui.FailedMsg{Err: err})
}

// logPresenter is used by the headless serve mode.
type logPresenter struct {
	bridge *bridge.Bridge
}

func (p logPresenter) ShowProgress(ev backend.Progress) {
	if p.bridge != nil {
		_ = p.bridge.Emit(bridge.ChannelSplashProgress, ev)
	}
	logging.Info("[Startup] %3d%% %s", ev.Percent, ev.Message)
}

func (p logPresenter) ShowMain(port int) {
	logging.Info("[Startup] backend ready on port %d", port)
}

func (p logPresenter) ShowFailure(err error) {
	logging.Error("[Startup] %v", err)
}
