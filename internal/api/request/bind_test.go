package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviastake/internal/api/apierr"
)

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeCreateGame(t *testing.T) {
	var req CreateGameRequest
	err := Decode(newRequest(`{"creatorBasename":"c.base.eth","stakeAmount":5,"playerLimit":4,"durationSeconds":600,"requestingHandle":"alice"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "c.base.eth", req.CreatorBasename)
	assert.Equal(t, 4, req.PlayerLimit)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		dst     any
		message string
	}{
		{"empty body", ``, &JoinRequest{}, "request body is required"},
		{"bad json", `{`, &JoinRequest{}, "request body is not valid JSON"},
		{"missing handle", `{}`, &JoinRequest{}, "handle is required"},
		{"zero player limit", `{"creatorBasename":"c","playerLimit":0,"durationSeconds":1,"requestingHandle":"a"}`, &CreateGameRequest{}, "playerLimit is required"},
		{"negative duration", `{"creatorBasename":"c","playerLimit":1,"durationSeconds":-1,"requestingHandle":"a"}`, &CreateGameRequest{}, "durationSeconds must be greater than 0"},
		{"negative stake", `{"creatorBasename":"c","stakeAmount":-1,"playerLimit":1,"durationSeconds":1,"requestingHandle":"a"}`, &CreateGameRequest{}, "stakeAmount must be at least 0"},
		{"missing answers", `{"handle":"a","stageIndex":1}`, &SubmitRequest{}, "answerFingerprints is required"},
		{"bad fingerprint", `{"handle":"a","stageIndex":1,"answerFingerprints":["0xab","nothex"]}`, &SubmitRequest{}, "answerFingerprints[1] must be 0x-prefixed hex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(newRequest(tt.body), tt.dst)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, apierr.Status(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestDecodeSubmitAllowsEmptyAnswers(t *testing.T) {
	var req SubmitRequest
	require.NoError(t, Decode(newRequest(`{"handle":"a","stageIndex":2,"answerFingerprints":[]}`), &req))
	assert.Equal(t, 2, req.StageIndex)
	assert.Empty(t, req.AnswerFingerprints)
}
