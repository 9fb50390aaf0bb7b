package service

import (
	"fmt"
	"strings"
	"time"
)

const progressLayout = "15:04:05"

// ProgressEvent is one timestamped line of the generation log.
type ProgressEvent struct {
	Time    time.Time `json:"time"`
	Icon    string    `json:"icon"`
	Message string    `json:"message"`
}

// Line formats the event as "HH:MM:SS icon message".
func (e ProgressEvent) Line() string {
	return fmt.Sprintf("%s %s %s", e.Time.Format(progressLayout), e.Icon, e.Message)
}

// ProgressFunc receives events as they happen. It may be nil.
type ProgressFunc func(ProgressEvent)

type progressLog struct {
	now    func() time.Time
	notify ProgressFunc
	events []ProgressEvent
}

func (p *progressLog) add(icon, format string, args ...any) {
	e := ProgressEvent{Time: p.now(), Icon: icon, Message: fmt.Sprintf(format, args...)}
	p.events = append(p.events, e)
	if p.notify != nil {
		p.notify(e)
	}
}

// FormatLog joins events into the multi-line log shown to the user.
func FormatLog(events []ProgressEvent) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.Line()
	}
	return strings.Join(lines, "\n")
}
