package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"luma/internal/classify"
	"luma/internal/replay"
	"luma/internal/wire"
)

type rideSummary struct {
	Segments    int
	Frames      int
	Invalid     int
	MaxDuration time.Duration
	TopicCounts map[wire.Topic]int
	EventCounts map[classify.EventClass]int
	Alerts      int
}

func summarizeRideLog(records []replay.Record) rideSummary {
	s := rideSummary{
		TopicCounts: map[wire.Topic]int{},
		EventCounts: map[classify.EventClass]int{},
	}
	origin := time.Duration(0)
	hasFrames := false

	for _, r := range records {
		if r.Frame == nil {
			s.Segments++
			origin = r.At
			continue
		}
		hasFrames = true
		s.Frames++
		if at := r.At - origin; at > s.MaxDuration {
			s.MaxDuration = at
		}

		topic, payload, ok, err := wire.Unframe(r.Frame)
		if err != nil || !ok || !topic.Valid() {
			s.Invalid++
			continue
		}
		s.TopicCounts[topic]++
		switch topic {
		case wire.TopicEvent:
			if ev, err := wire.DecodeEvent(payload); err == nil {
				s.EventCounts[classify.EventClass(ev.Class)]++
			}
		case wire.TopicAlert:
			s.Alerts++
		}
	}
	if s.Segments == 0 && hasFrames {
		s.Segments = 1
	}
	return s
}

func (s rideSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "segments: %d\n", s.Segments)
	fmt.Fprintf(&b, "frames: %d\n", s.Frames)
	fmt.Fprintf(&b, "invalid_frames: %d\n", s.Invalid)
	fmt.Fprintf(&b, "max_duration: %s\n", s.MaxDuration)

	topics := make([]int, 0, len(s.TopicCounts))
	for t := range s.TopicCounts {
		topics = append(topics, int(t))
	}
	sort.Ints(topics)
	fmt.Fprintf(&b, "topics:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "  %s: %d\n", wire.Topic(t), s.TopicCounts[wire.Topic(t)])
	}

	classes := make([]int, 0, len(s.EventCounts))
	for c := range s.EventCounts {
		classes = append(classes, int(c))
	}
	sort.Ints(classes)
	fmt.Fprintf(&b, "events:\n")
	for _, c := range classes {
		fmt.Fprintf(&b, "  %s: %d\n", classify.EventClass(c), s.EventCounts[classify.EventClass(c)])
	}
	fmt.Fprintf(&b, "alerts: %d\n", s.Alerts)
	return b.String()
}
