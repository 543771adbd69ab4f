package ingest

import "testing"

func TestParseTopic(t *testing.T) {
	cases := []struct {
		topic  string
		id     string
		kind   string
		wantOK bool
	}{
		{"devices/sensor-7/data", "sensor-7", "data", true},
		{"devices/sensor-7/hello", "sensor-7", "hello", true},
		{"devices/sensor-7/commands", "sensor-7", "commands", true},
		{"devices/sensor-7", "", "", false},
		{"devices//data", "", "", false},
		{"devices/sensor-7/", "", "", false},
		{"machines/sensor-7/data", "", "", false},
		{"devices/sensor-7/data/extra", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		id, kind, ok := parseTopic(c.topic)
		if ok != c.wantOK || id != c.id || kind != c.kind {
			t.Errorf("parseTopic(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.topic, id, kind, ok, c.id, c.kind, c.wantOK)
		}
	}
}

func TestCommandTopic(t *testing.T) {
	if got := commandTopic("sensor-7"); got != "devices/sensor-7/commands" {
		t.Errorf("commandTopic = %q", got)
	}
}
