package twitchirc

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const nicknameLength = 7

// generateNickname derives the IRC login name from the current time. Twitch
// identifies the account by the token, the nick only has to be present.
func generateNickname(now time.Time) string {
	seconds := float64(now.UnixNano()) / float64(time.Second)
	sum := sha256.Sum256([]byte(strconv.FormatFloat(seconds, 'f', -1, 64)))
	return hex.EncodeToString(sum[:])[:nicknameLength]
}
