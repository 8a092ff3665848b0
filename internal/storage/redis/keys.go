package redis

import (
	"fmt"

	"github.com/mcoot/triviastake/internal/model"
)

// Key prefix for all trivia data
const keyPrefix = "trivia"

func identityKey(handle string) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, handle)
}

func oauthStateKey(state string) string {
	return fmt.Sprintf("%s:oauth_state:%s", keyPrefix, state)
}

func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// questionsKey holds the session's questions as one JSON array
func questionsKey(id model.SessionID) string {
	return fmt.Sprintf("%s:questions:%s", keyPrefix, id)
}

// participantsKey is a HASH of handle -> participant JSON
func participantsKey(id model.SessionID) string {
	return fmt.Sprintf("%s:participants:%s", keyPrefix, id)
}

// submissionsKey is a LIST of submission JSON in insertion order
func submissionsKey(id model.SessionID) string {
	return fmt.Sprintf("%s:submissions:%s", keyPrefix, id)
}

// submittedIndexKey is a HASH of "handle:stage" markers
func submittedIndexKey(id model.SessionID) string {
	return fmt.Sprintf("%s:idx:submitted:%s", keyPrefix, id)
}

func submittedField(handle string, stage int) string {
	return fmt.Sprintf("%s:%d", handle, stage)
}

func rewardClaimKey(id model.SessionID, handle string) string {
	return fmt.Sprintf("%s:reward_claim:%s:%s", keyPrefix, id, handle)
}
