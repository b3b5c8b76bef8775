package wire

import "fmt"

// Topic names a logical channel on the link.
type Topic uint8

const (
	TopicIMU Topic = iota + 1
	TopicEvent
	TopicStatus
	TopicAlert
	TopicCommand
)

var topicNames = map[Topic]string{
	TopicIMU:     "imu",
	TopicEvent:   "event",
	TopicStatus:  "status",
	TopicAlert:   "alert",
	TopicCommand: "command",
}

func (t Topic) String() string {
	if s, ok := topicNames[t]; ok {
		return s
	}
	return fmt.Sprintf("topic(%d)", uint8(t))
}

func (t Topic) Valid() bool {
	_, ok := topicNames[t]
	return ok
}

func ParseTopic(s string) (Topic, error) {
	for t, name := range topicNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("wire: unknown topic %q", s)
}
