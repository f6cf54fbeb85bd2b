package mq

import (
	"fmt"
	"regexp"
	"strings"
)

// TopicManager builds and parses the positioning topic tree below the
// configured base topic.
type TopicManager struct {
	BaseTopic string
}

func NewTopicManager(baseTopic string) *TopicManager {
	return &TopicManager{BaseTopic: baseTopic}
}

const (
	FingerprintTopicTemplate = "%s/v1/devices/+/fingerprint"
	AccessPointTopicTemplate = "%s/v1/access-points/+"
	PositionTopicTemplate    = "%s/v1/devices/%s/position"
)

// GetFingerprintTopic is the wildcard subscription for device fingerprints.
func (m *TopicManager) GetFingerprintTopic() string {
	return fmt.Sprintf(FingerprintTopicTemplate, m.BaseTopic)
}

// GetAccessPointTopic is the wildcard subscription for access point
// registrations.
func (m *TopicManager) GetAccessPointTopic() string {
	return fmt.Sprintf(AccessPointTopicTemplate, m.BaseTopic)
}

// GetPositionTopic is the publish topic for one device's estimated position.
func (m *TopicManager) GetPositionTopic(deviceMac string) string {
	return fmt.Sprintf(PositionTopicTemplate, m.BaseTopic, deviceMac)
}

func (m *TopicManager) buildTopicRegex(template string) *regexp.Regexp {
	pattern := strings.Replace(template, "%s", m.BaseTopic, 1)
	pattern = strings.ReplaceAll(pattern, "+", "([^/]+)")
	pattern = "^" + pattern + "$"

	return regexp.MustCompile(pattern)
}

func (m *TopicManager) ExtractIdFromTopic(topic, template string) (string, error) {
	regex := m.buildTopicRegex(template)
	matches := regex.FindStringSubmatch(topic)

	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract ID from topic: %s", topic)
	}

	return matches[1], nil
}

func (m *TopicManager) ExtractDeviceMac(topic string) (string, error) {
	return m.ExtractIdFromTopic(topic, FingerprintTopicTemplate)
}

func (m *TopicManager) ExtractAccessPointMac(topic string) (string, error) {
	return m.ExtractIdFromTopic(topic, AccessPointTopicTemplate)
}

func (m *TopicManager) GetBaseTopic() string {
	if strings.HasSuffix(m.BaseTopic, "/") {
		return m.BaseTopic[:len(m.BaseTopic)-1]
	}
	return m.BaseTopic
}
