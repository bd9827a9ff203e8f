package chess

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	nchess "github.com/corentings/chess/v2"

	"github.com/kapu/voice-chess-go/internal/fault"
)

var uciPattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][nbrq]?$`)

// sanPattern admits standard algebraic notation with on-board files and
// ranks only. The SAN decoder is lenient and can resolve unshaped input
// like "e9e4" to a move the speaker never named, so shape is checked first.
var sanPattern = regexp.MustCompile(`^(?:[NBKRQ]?[a-h]?[1-8]?[x-]?[a-h][1-8](?:=?[nbrqNBRQ])?|[0O]-[0O](?:-[0O])?)[+#]?$`)

// IsUCIShaped reports whether s looks like a coordinate move (e.g. "e2e4",
// "e7e8q"), without checking legality.
func IsUCIShaped(s string) bool {
	return uciPattern.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// LegalMoveUCIs returns every legal move in the position as lowercase UCI.
func LegalMoveUCIs(pos *nchess.Position) []string {
	notation := nchess.UCINotation{}
	moves := pos.ValidMoves()
	out := make([]string, 0, len(moves))
	for i := range moves {
		out = append(out, strings.ToLower(notation.Encode(pos, &moves[i])))
	}
	return out
}

// FormatLegalMoves renders every legal move as "uci (san)", the shape the
// interpretation prompt presents to the model.
func FormatLegalMoves(pos *nchess.Position) []string {
	notationUCI := nchess.UCINotation{}
	notationSAN := nchess.AlgebraicNotation{}
	moves := pos.ValidMoves()
	out := make([]string, 0, len(moves))
	for i := range moves {
		uci := strings.ToLower(notationUCI.Encode(pos, &moves[i]))
		san := notationSAN.Encode(pos, &moves[i])
		out = append(out, uci+" ("+san+")")
	}
	return out
}

// Normalize resolves a move candidate against the current position.
//
// Resolution order: coordinate notation on the lowercased candidate, then
// coordinate notation with a leading piece letter stripped (models sometimes
// emit "ng1f3"), then SAN as given, then SAN with the first letter
// uppercased ("nf3" -> "Nf3"). The SAN stages only run on candidates that
// fit SAN shape. A candidate that parses but is not playable
// fails as illegal and carries the legal move list; a candidate no stage can
// parse fails as unparseable. The position is never consulted to substitute
// a different move.
func Normalize(pos *nchess.Position, candidate string) (*nchess.Move, error) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return nil, unparseable(trimmed)
	}
	lower := strings.ToLower(trimmed)

	if uciPattern.MatchString(lower) {
		return resolveUCI(pos, lower)
	}

	if len(lower) >= 5 && strings.ContainsRune("nbrqkp", rune(lower[0])) {
		stripped := lower[1:]
		if uciPattern.MatchString(stripped) {
			return resolveUCI(pos, stripped)
		}
	}

	notationSAN := nchess.AlgebraicNotation{}
	if sanPattern.MatchString(trimmed) {
		if mv, err := notationSAN.Decode(pos, trimmed); err == nil {
			return ensureLegal(pos, mv)
		}
	}

	if first := rune(trimmed[0]); unicode.IsLetter(first) {
		normalized := strings.ToUpper(trimmed[:1]) + trimmed[1:]
		if normalized != trimmed && sanPattern.MatchString(normalized) {
			if mv, err := notationSAN.Decode(pos, normalized); err == nil {
				return ensureLegal(pos, mv)
			}
		}
	}

	return nil, unparseable(trimmed)
}

func resolveUCI(pos *nchess.Position, uci string) (*nchess.Move, error) {
	legal := LegalMoveUCIs(pos)
	for _, l := range legal {
		if l == uci {
			mv, err := nchess.UCINotation{}.Decode(pos, uci)
			if err != nil {
				return nil, unparseable(uci)
			}
			return mv, nil
		}
	}
	return nil, illegal(uci, legal)
}

func ensureLegal(pos *nchess.Position, mv *nchess.Move) (*nchess.Move, error) {
	uci := strings.ToLower(nchess.UCINotation{}.Encode(pos, mv))
	legal := LegalMoveUCIs(pos)
	for _, l := range legal {
		if l == uci {
			return mv, nil
		}
	}
	return nil, illegal(uci, legal)
}

func unparseable(candidate string) error {
	return &fault.Error{
		Kind:    fault.KindInvalidMove,
		Reason:  fault.ReasonUnparseable,
		Message: "could not parse move candidate " + strconv.Quote(candidate),
	}
}

func illegal(uci string, legal []string) error {
	return &fault.Error{
		Kind:       fault.KindInvalidMove,
		Reason:     fault.ReasonIllegal,
		Message:    uci + " is not a legal move in this position",
		LegalMoves: legal,
	}
}
