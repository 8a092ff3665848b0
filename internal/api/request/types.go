package request

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	CreatorBasename  string `json:"creatorBasename" validate:"required"`
	StakeAmount      int64  `json:"stakeAmount" validate:"gte=0"`
	PlayerLimit      int    `json:"playerLimit" validate:"required,gt=0"`
	DurationSeconds  int64  `json:"durationSeconds" validate:"required,gt=0"`
	RequestingHandle string `json:"requestingHandle" validate:"required"`
}

// JoinRequest is the request body for joining a game
type JoinRequest struct {
	Handle string `json:"handle" validate:"required"`
}

// SubmitRequest is the request body for submitting a stage
type SubmitRequest struct {
	Handle             string   `json:"handle" validate:"required"`
	StageIndex         int      `json:"stageIndex"`
	AnswerFingerprints []string `json:"answerFingerprints" validate:"required,dive,fingerprint"`
}

// MintRequest is the request body for minting a reward
type MintRequest struct {
	Handle string `json:"handle" validate:"required"`
	Amount int64  `json:"amount" validate:"required"`
}

// LinkWalletRequest is the request body for linking a wallet
type LinkWalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
}
