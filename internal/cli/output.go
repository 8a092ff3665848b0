package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case CreateGameResult:
		o.printCreateGameResult(v)
	case Game:
		o.printGame(v)
	case []Question:
		o.printQuestions(v)
	case []Participant:
		o.printParticipants(v)
	case []LeaderboardEntry:
		o.printLeaderboard(v)
	case SubmitResult:
		fmt.Printf("Score: %d\n", v.Score)
	case EligibilityResult:
		o.printEligibility(v)
	case MintResult:
		fmt.Printf("Minted: %s\n", v.TxRef)
	case LoginResult:
		o.printLoginResult(v)
	case WalletResult:
		fmt.Printf("Wallet for %s: %s\n", v.Handle, v.WalletAddress)
	case MessageResult:
		fmt.Println(v.Message)
	case HealthResult:
		fmt.Printf("Status: %s (%s, %dms)\n", v.Status, v.Server, v.LatencyMs)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CreateGameResult response type (matches API)
type CreateGameResult struct {
	GameID               string    `json:"gameId"`
	EndTime              time.Time `json:"endTime"`
	QuestionFingerprints []string  `json:"questionFingerprints"`
	ContentAddress       *string   `json:"contentAddress,omitempty"`
	PinWarning           string    `json:"pinWarning,omitempty"`
}

// Game response type
type Game struct {
	GameID          string    `json:"gameId"`
	CreatorBasename string    `json:"creatorBasename"`
	StakeAmount     int64     `json:"stakeAmount"`
	PlayerLimit     int       `json:"playerLimit"`
	DurationSeconds int64     `json:"durationSeconds"`
	SourceHandle    string    `json:"sourceHandle"`
	CreatedAt       time.Time `json:"createdAt"`
	EndTime         time.Time `json:"endTime"`
	Status          string    `json:"status"`
}

// Question response type
type Question struct {
	Stage       int      `json:"stage"`
	Index       int      `json:"index"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Fingerprint string   `json:"fingerprint"`
}

// Participant response type
type Participant struct {
	Handle   string    `json:"handle"`
	JoinedAt time.Time `json:"joinedAt"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Handle    string `json:"handle"`
	BestScore int    `json:"bestScore"`
}

// SubmitResult response type
type SubmitResult struct {
	Score int `json:"score"`
}

// EligibilityResult response type
type EligibilityResult struct {
	Handle   string `json:"handle,omitempty"`
	Eligible bool   `json:"eligible"`
}

// MintResult response type
type MintResult struct {
	TxRef string `json:"txRef"`
}

// LoginResult response type
type LoginResult struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// WalletResult response type
type WalletResult struct {
	Handle        string `json:"handle"`
	WalletAddress string `json:"walletAddress"`
}

// MessageResult response type
type MessageResult struct {
	Message string `json:"message"`
}

// HealthResult is the health response plus what the CLI measured
type HealthResult struct {
	Status    string `json:"status"`
	Server    string `json:"server"`
	LatencyMs int64  `json:"latencyMs"`
}

func (o *Output) printCreateGameResult(r CreateGameResult) {
	fmt.Printf("Game: %s\n", r.GameID)
	fmt.Printf("Ends: %s\n", r.EndTime.Local().Format(time.DateTime))
	fmt.Printf("Questions: %d\n", len(r.QuestionFingerprints))
	if r.ContentAddress != nil {
		fmt.Printf("Pinned: %s\n", *r.ContentAddress)
	}
	if r.PinWarning != "" {
		fmt.Printf("Warning: %s\n", r.PinWarning)
	}
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %s\n", g.GameID)
	fmt.Printf("Status: %s\n", g.Status)
	fmt.Printf("Creator: %s\n", g.CreatorBasename)
	if g.SourceHandle != "" {
		fmt.Printf("Questions from: @%s\n", g.SourceHandle)
	}
	fmt.Printf("Stake: %d\n", g.StakeAmount)
	fmt.Printf("Player Limit: %d\n", g.PlayerLimit)
	fmt.Printf("Ends: %s\n", g.EndTime.Local().Format(time.DateTime))
}

func (o *Output) printQuestions(questions []Question) {
	stage := 0
	for _, q := range questions {
		if q.Stage != stage {
			stage = q.Stage
			fmt.Printf("\nStage %d:\n", stage)
		}
		fmt.Printf("  %d. %s\n", q.Index+1, q.Question)
		for i, opt := range q.Options {
			fmt.Printf("     %c) %s\n", 'a'+i, opt)
		}
	}
}

func (o *Output) printParticipants(participants []Participant) {
	fmt.Printf("Participants (%d):\n", len(participants))
	for _, p := range participants {
		fmt.Printf("  - %s (joined %s)\n", p.Handle, p.JoinedAt.Local().Format(time.DateTime))
	}
}

func (o *Output) printLeaderboard(entries []LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("No submissions yet")
		return
	}
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Handle))
	}
	for _, e := range entries {
		fmt.Printf("%3d. %s%s %d\n", e.Rank, e.Handle, strings.Repeat(" ", width-len(e.Handle)), e.BestScore)
	}
}

func (o *Output) printEligibility(e EligibilityResult) {
	if e.Eligible {
		fmt.Printf("%s is eligible for a reward\n", e.Handle)
	} else {
		fmt.Printf("%s is not eligible for a reward\n", e.Handle)
	}
}

func (o *Output) printLoginResult(l LoginResult) {
	fmt.Println("Open this URL to authorize:")
	fmt.Printf("  %s\n", l.AuthURL)
	fmt.Println("Then run 'trivia auth use <handle>' with the handle shown after the callback.")
}
