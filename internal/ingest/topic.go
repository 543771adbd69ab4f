// Package ingest connects to the MQTT broker, consumes device data and hello
// topics, and turns them into history appends and live events. It also
// publishes operator commands back to devices.
package ingest

import "strings"

const (
	dataTopicFilter  = "devices/+/data"
	helloTopicFilter = "devices/+/hello"
)

const (
	msgData  = "data"
	msgHello = "hello"
)

// parseTopic splits a "devices/{id}/{kind}" topic. ok is false for any topic
// that does not match that shape exactly or has an empty device id.
func parseTopic(topic string) (deviceID, kind string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "devices" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func commandTopic(deviceID string) string {
	return "devices/" + deviceID + "/commands"
}
