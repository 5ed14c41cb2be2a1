package handlers

import "fmt"

// maxSenderName caps the participant display name. Ciphertext itself is
// only bounded by the request body limit.
const maxSenderName = 32

func validateRoomId(roomId string) error {
	if normalizeID(roomId) == "" {
		return fmt.Errorf("roomId required")
	}
	return nil
}

func validateUsername(username string) error {
	u := normalizeID(username)
	if u == "" {
		return fmt.Errorf("username required")
	}
	if len(u) > maxSenderName {
		return fmt.Errorf("username too long (max %d)", maxSenderName)
	}
	return nil
}
