package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"tgmonitor/models"
)

const (
	banner       = "🔥🔥🔥🤫🤐🤭🙊🔥🔥🔥\n"
	headerLabel  = "Deleted message from: "
	messageLabel = "Message: "
	unknownName  = "unknown sender"
)

// DisplayName picks the label for a sender: full name, then username, then
// phone, then the numeric id.
func DisplayName(sender models.Sender) string {
	if sender.FirstName != "" || sender.LastName != "" {
		return strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	}
	if sender.Username != "" {
		return sender.Username
	}
	if sender.Phone != "" {
		return sender.Phone
	}
	return strconv.FormatInt(sender.ID, 10)
}

// MentionURL links to a user profile.
func MentionURL(userID int64) string {
	return fmt.Sprintf("tg://user?id=%d", userID)
}

// BuildNotice renders the announcement for a deleted message. A nil sender
// produces an unlinked placeholder name.
func BuildNotice(sender *models.Sender, text string, media []byte) models.Notice {
	var (
		b        strings.Builder
		entities []models.Entity
		offset   int
	)
	write := func(s string, kind models.EntityKind, url string) {
		n := utf16Len(s)
		if kind != "" && n > 0 {
			entities = append(entities, models.Entity{Kind: kind, Offset: offset, Length: n, URL: url})
		}
		b.WriteString(s)
		offset += n
	}

	write(banner, "", "")
	write(headerLabel, models.EntityBold, "")
	if sender != nil {
		write(DisplayName(*sender), models.EntityTextURL, MentionURL(sender.ID))
	} else {
		write(unknownName, "", "")
	}
	if text != "" {
		write("\n", "", "")
		write(messageLabel, models.EntityBold, "")
		write(text, "", "")
	}

	return models.Notice{Text: b.String(), Entities: entities, Media: media}
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
