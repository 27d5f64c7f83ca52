package lobby

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/ghoulgame/internal/model"
)

const (
	MaxNicknameLength    = 24
	MaxSessionNameLength = 40
)

// normalizeNickname NFC-normalises and trims a nickname. Empty or overlong names and
// names containing control characters are rejected.
func normalizeNickname(raw string) (string, error) {
	nickname, ok := normalizeText(raw)
	if !ok || nickname == "" || utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", model.ErrInvalidNickname
	}
	return nickname, nil
}

// normalizeSessionName cleans a session name, truncating long names and falling back
// to one derived from the owner's nickname
func normalizeSessionName(raw, owner string) string {
	name, ok := normalizeText(raw)
	if !ok || name == "" {
		name = fmt.Sprintf("%s's game", owner)
	}
	if runes := []rune(name); len(runes) > MaxSessionNameLength {
		name = strings.TrimSpace(string(runes[:MaxSessionNameLength]))
	}
	return name
}

func normalizeText(raw string) (string, bool) {
	if !utf8.ValidString(raw) {
		return "", false
	}
	text := strings.TrimSpace(norm.NFC.String(raw))
	for _, r := range text {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	return text, true
}
