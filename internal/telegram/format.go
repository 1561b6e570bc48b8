package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookscout/internal/service"
)

const (
	defaultPageSize = 10
	cbBookPrefix    = "book:"
	cbPagePrefix    = "page:"

	// Telegram truncates inline button labels around this length.
	maxButtonText = 60
)

func clampPage(page, totalPages int) int {
	if totalPages <= 0 {
		return 0
	}
	if page < 0 {
		return 0
	}
	if page >= totalPages {
		return totalPages - 1
	}
	return page
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// resultsPage renders one page of results as a header plus one button per book and a
// navigation row. It returns the page actually shown after clamping.
func resultsPage(results []service.Result, page, pageSize int) (string, tgbotapi.InlineKeyboardMarkup, int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	total := len(results)
	pages := totalPages(total, pageSize)
	page = clampPage(page, pages)

	start := page * pageSize
	end := min(start+pageSize, total)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := start; i < end; i++ {
		btn := tgbotapi.NewInlineKeyboardButtonData(buttonText(results[i]), cbBookPrefix+strconv.Itoa(i))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
	}

	if pages > 1 {
		var navRow []tgbotapi.InlineKeyboardButton
		if page > 0 {
			navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("%s%d", cbPagePrefix, page-1)))
		}

		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("• %d/%d •", page+1, pages),
			fmt.Sprintf("%s%d", cbPagePrefix, page),
		))

		if page < pages-1 {
			navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("%s%d", cbPagePrefix, page+1)))
		}

		rows = append(rows, navRow)
	}

	text := fmt.Sprintf("📚 Books found: %d\nPage %d/%d", total, page+1, max(pages, 1))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...), page
}

func buttonText(r service.Result) string {
	text := r.Book.Title
	if len(r.Book.Authors) > 0 {
		text += " - " + strings.Join(r.Book.Authors, ", ")
	}

	runes := []rune(text)
	if len(runes) > maxButtonText {
		text = string(runes[:maxButtonText-1]) + "…"
	}
	return text
}

func bookCaption(r service.Result) string {
	var sb strings.Builder
	b := r.Book

	fmt.Fprintf(&sb, "📖 %s\n", b.Title)

	if len(b.Authors) > 0 {
		fmt.Fprintf(&sb, "✍️ %s\n", strings.Join(b.Authors, ", "))
	} else {
		sb.WriteString("✍️ Unknown author\n")
	}

	for _, s := range b.Series {
		fmt.Fprintf(&sb, "🔖 %s\n", s.String())
	}

	switch {
	case r.Err != nil:
		sb.WriteString("📄 Pages: could not load the book page\n")
	case b.Pages == 0:
		sb.WriteString("📄 Pages: unknown\n")
	default:
		fmt.Fprintf(&sb, "📄 Pages: %d\n", b.Pages)
	}

	sb.WriteString(b.URL)
	return sb.String()
}
