package interpret

import "strings"

const moveToolName = "submit_move"

const moveToolDescription = "Normalize a spoken chess move into UCI format."

// systemPrompt teaches the model the legal-move list format and the strict
// UCI-only contract for the submit_move tool.
const systemPrompt = "You convert spoken chess commands into machine-readable moves. " +
	"You will receive a list of legal moves in the format: 'UCI (SAN)' where:\n" +
	"- UCI is the format you MUST return (e.g., 'e2e4', 'g1f3', 'a1e1')\n" +
	"- SAN is shown in parentheses to help you identify the move (e.g., 'e4', 'Nf3', 'Re1')\n" +
	"\n" +
	"IMPORTANT: You must return the UCI part ONLY, not the SAN part.\n" +
	"For example, if you see 'a1e1 (Re1)' and the user says 'rook e1', return 'a1e1' NOT 're1'.\n" +
	"\n" +
	"SAN notation guide (for matching spoken commands):\n" +
	"- K = King, Q = Queen, R = Rook, B = Bishop, N = Knight, no prefix = Pawn\n" +
	"- 'x' indicates a capture (e.g., 'Bxg8' = bishop captures on g8)\n" +
	"\n" +
	"Common speech patterns (match against SAN, return UCI):\n" +
	"- 'bishop e4' -> find move with '(Be4)' or '(Bce4)' or '(Bfe4)', return its UCI\n" +
	"- 'rook e1' -> find move with '(Re1)' or '(Rae1)' or '(Rfe1)', return its UCI\n" +
	"- 'knight f3' -> find move with '(Nf3)' or '(Ngf3)' or '(Nef3)', return its UCI\n" +
	"- 'e4' -> find move with '(e4)' or '(e3e4)', return its UCI\n" +
	"- 'bishop takes' -> find any move with '(Bx...)', return its UCI\n" +
	"- 'rook takes d5' -> find move with '(Rxd5)', return its UCI\n" +
	"\n" +
	"CRITICAL: Only return a move if the spoken command clearly matches a legal move. " +
	"If the spoken command refers to a move that doesn't exist in the legal moves list " +
	"(e.g., 'f3 takes g6' when no piece on f3 can capture g6), call the function with an empty string. " +
	"Do NOT guess or return a different move than what was spoken."

func moveToolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"uci": map[string]any{"type": "string", "description": "Move in UCI notation"},
			"san": map[string]any{"type": "string", "description": "Move in SAN notation"},
		},
		"required":             []string{"uci"},
		"additionalProperties": false,
	}
}

func userPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("Current FEN: ")
	sb.WriteString(req.FEN)
	sb.WriteString("\nLegal moves: ")
	sb.WriteString(strings.Join(req.LegalMoves, ", "))
	sb.WriteString("\nTranscript: ")
	sb.WriteString(req.Transcript)
	return sb.String()
}
