package mqtt

import "fmt"

// Topic prefixes for Luxgrid MQTT traffic.
//
// Lamp command topics are per-device: lamp/control/{node_id}. The
// node_id alone addresses a device because node ids are globally
// unique across gateways.
const (
	// TopicPrefixLampControl is the base for lamp command topics.
	TopicPrefixLampControl = "lamp/control"

	// TopicPrefixSystem is the base for backend status topics.
	TopicPrefixSystem = "luxgrid/system"
)

// Topics provides builders for Luxgrid MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.LampControl("n1")
//	// Returns: "lamp/control/n1"
type Topics struct{}

// LampControl returns the command topic for a lamp device.
//
// Example: lamp/control/n1
func (Topics) LampControl(nodeID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixLampControl, nodeID)
}

// SystemStatus returns the topic for backend online/offline status.
//
// Example: luxgrid/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
