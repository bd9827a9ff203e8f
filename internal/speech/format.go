package speech

import (
	"regexp"
	"strings"
)

var squarePattern = regexp.MustCompile(`([a-h])(\d)`)

var pieceNames = []struct {
	letter string
	name   string
}{
	{"K", "King "},
	{"Q", "Queen "},
	{"R", "Rook "},
	{"B", "Bishop "},
	{"N", "Knight "},
}

// FormatMoveForSpeech converts move notation into natural speech.
//
//	Nf3  -> Knight f 3
//	Bxc5 -> Bishop takes c 5
//	O-O  -> Castle kingside
//	e4   -> e 4
//	Qh5+ -> Queen h 5 check
//	Nf3# -> Knight f 3 checkmate
func FormatMoveForSpeech(san string) string {
	switch san {
	case "O-O", "0-0":
		return "Castle kingside"
	case "O-O-O", "0-0-0":
		return "Castle queenside"
	}

	text := san
	if strings.HasSuffix(text, "#") {
		text = strings.TrimSuffix(text, "#") + " checkmate"
	} else if strings.HasSuffix(text, "+") {
		text = strings.TrimSuffix(text, "+") + " check"
	}

	for _, p := range pieceNames {
		if strings.HasPrefix(text, p.letter) {
			text = p.name + text[1:]
			break
		}
	}

	text = strings.ReplaceAll(text, "x", " takes ")
	text = squarePattern.ReplaceAllString(text, "$1 $2")

	return strings.Join(strings.Fields(text), " ")
}
