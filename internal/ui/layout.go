package ui

import "time"

// Layout sizes.
const (
	// SidebarWidth is the width of the navigation column including its border.
	SidebarWidth = 22

	// LayoutCompactWidth is the threshold below which the sidebar is hidden.
	LayoutCompactWidth = 70

	// SplashBarWidth is the width of the startup progress bar.
	SplashBarWidth = 44
)

// Log display limits.
const (
	// LogTailLines is the number of launch log lines shown on the Logs page.
	LogTailLines = 400
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// RequestTimeout bounds each bridge invocation made by the UI.
	RequestTimeout = 30 * time.Second
)

// DefaultArchiveFormat is the format requested by the archive key.
const DefaultArchiveFormat = "html"
