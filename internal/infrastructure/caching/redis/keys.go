package redis

import "fmt"

// Key layout. Each class carries its own TTL:
//   engagement:<device>:<artwork>   hash, one open viewing session
//   device:<device>:engagements     set of the device's open engagement keys
//   recent:<device>                 bounded list of recently viewed artwork ids
//   guest:<device>:<kind>           hash artwork_id -> "<status>:<unix>"
const engagementKeyPattern = "engagement:*"

func engagementKey(deviceID, artworkID string) string {
	return fmt.Sprintf("engagement:%s:%s", deviceID, artworkID)
}

func deviceIndexKey(deviceID string) string {
	return fmt.Sprintf("device:%s:engagements", deviceID)
}

func recentViewsKey(deviceID string) string {
	return fmt.Sprintf("recent:%s", deviceID)
}

func guestListKey(deviceID, kind string) string {
	return fmt.Sprintf("guest:%s:%s", deviceID, kind)
}
