package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicManagerBuildsTopics(t *testing.T) {
	manager := NewTopicManager("gpsno/positioning")

	assert.Equal(t, "gpsno/positioning/v1/devices/+/fingerprint", manager.GetFingerprintTopic())
	assert.Equal(t, "gpsno/positioning/v1/access-points/+", manager.GetAccessPointTopic())
	assert.Equal(t, "gpsno/positioning/v1/devices/11:22:33:44:55:66/position", manager.GetPositionTopic("11:22:33:44:55:66"))
}

func TestTopicManagerExtractDeviceMac(t *testing.T) {
	manager := NewTopicManager("gpsno/positioning")

	mac, err := manager.ExtractDeviceMac("gpsno/positioning/v1/devices/11:22:33:44:55:66/fingerprint")
	require.NoError(t, err)
	assert.Equal(t, "11:22:33:44:55:66", mac)

	_, err = manager.ExtractDeviceMac("gpsno/positioning/v1/devices/fingerprint")
	assert.Error(t, err)

	_, err = manager.ExtractDeviceMac("other/base/v1/devices/11:22:33:44:55:66/fingerprint")
	assert.Error(t, err)
}

func TestTopicManagerExtractAccessPointMac(t *testing.T) {
	manager := NewTopicManager("gpsno/positioning")

	mac, err := manager.ExtractAccessPointMac("gpsno/positioning/v1/access-points/aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", mac)

	_, err = manager.ExtractAccessPointMac("gpsno/positioning/v1/access-points/aa:bb/extra")
	assert.Error(t, err)
}

func TestTopicManagerGetBaseTopic(t *testing.T) {
	assert.Equal(t, "gpsno/positioning", NewTopicManager("gpsno/positioning/").GetBaseTopic())
	assert.Equal(t, "gpsno/positioning", NewTopicManager("gpsno/positioning").GetBaseTopic())
}
