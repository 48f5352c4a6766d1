package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"autounzip/internal/api"
	"autounzip/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// historyStatusOrder fixes the row order of the history summary table.
var historyStatusOrder = []string{"running", "succeeded", "failed", "interrupted"}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldColorize(writer io.Writer) bool {
	return isTerminal(writer)
}

func renderStatus(out io.Writer, status *ipc.StatusResponse, colorize bool) {
	section := func(title string) {
		for _, line := range renderSectionHeader(title, colorize) {
			fmt.Fprintln(out, line)
		}
	}

	section("Daemon")
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	if status.LogPath != "" {
		fmt.Fprintln(out, renderStatusLine("Log", statusInfo, status.LogPath, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Delete archives", statusInfo, yesNo(status.DeleteArchives), colorize))
	fmt.Fprintln(out)

	section("Watcher")
	for _, line := range watcherLines(status.Watcher, status.Running, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Seen files", statusInfo, humanize.Comma(int64(status.SeenFiles)), colorize))
	fmt.Fprintln(out)

	section("Watch Folders")
	if len(status.Folders) == 0 {
		fmt.Fprintln(out, renderStatusLine("Folders", statusWarn, "None configured (add one with `autounzip folders add`)", colorize))
	}
	for i, folder := range status.Folders {
		fmt.Fprintln(out, renderStatusLine(fmt.Sprintf("Folder %d", i+1), statusInfo, folder, colorize))
	}
	fmt.Fprintln(out)

	section("Dependencies")
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	section("History")
	fmt.Fprint(out, renderTable([]string{"Status", "Count"}, historyRows(status.History), []columnAlignment{alignLeft, alignRight}))
	if last := status.LastExtraction; last != nil {
		kind := statusOK
		if last.Status == "failed" || last.Status == "interrupted" {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Last extraction", kind, fmt.Sprintf("%s (%s)", last.ArchiveName, last.Status), colorize))
	}
}

func watcherLines(w api.WatcherStatus, daemonRunning bool, colorize bool) []string {
	lines := make([]string, 0, 4)
	switch {
	case w.Running:
		lines = append(lines, renderStatusLine("Poll loop", statusOK, fmt.Sprintf("Polling every %gs", w.PollIntervalSeconds), colorize))
	case daemonRunning:
		lines = append(lines, renderStatusLine("Poll loop", statusWarn, "Stopped", colorize))
	default:
		lines = append(lines, renderStatusLine("Poll loop", statusInfo, "Inactive (daemon not running)", colorize))
	}
	if !daemonRunning {
		return lines
	}
	last := "never"
	if ts, err := time.Parse(time.RFC3339Nano, w.LastCycle); err == nil {
		last = humanize.Time(ts)
	}
	lines = append(lines, renderStatusLine("Cycles", statusInfo, fmt.Sprintf("%s (last %s)", humanize.Comma(int64(w.Cycles)), last), colorize))
	lines = append(lines, renderStatusLine("Archives detected", statusInfo, humanize.Comma(int64(w.Detected)), colorize))
	failKind := statusInfo
	if w.Failures > 0 {
		failKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Failures", failKind, humanize.Comma(int64(w.Failures)), colorize))
	return lines
}

func dependencyLines(deps []ipc.DependencyStatus, colorize bool) []string {
	if len(deps) == 0 {
		return []string{renderStatusLine("Summary", statusOK, "No external tools required", colorize)}
	}
	lines := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}

func historyRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(historyStatusOrder))
	for _, status := range historyStatusOrder {
		rows = append(rows, []string{titleCase(status), humanize.Comma(int64(counts[status]))})
	}
	return rows
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
