package telegram

import (
	"fmt"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	maxListedBooks = 30
	// Telegram rejects messages longer than 4096 UTF-16 code units.
	maxMessageLength = 4096
	// Longest book line before escaping. Escaping can grow it fivefold.
	maxBookLineRunes = 500
)

const welcomeText = `📚 <b>Привет!</b>

Я <b>BookBot</b>, помощник для книг.

<b>Что умею:</b>
🔍 Искать книги
➕ Добавлять книги
📋 Вести список
🏆 Показывать топы

Выберите действие:`

const helpText = `❓ <b>Помощь</b>

Команды:
/start - Начать
/search - Поиск книг
/add - Добавить книгу
/list - Список книг (также /mybooks)
/top - Топ книг
/cancel - Отменить действие

Формат добавления:
<code>Название | Автор | Жанр</code>
Жанр можно не указывать.
Пример: <code>Властелин колец | Толкин | Фэнтези</code>`

const addPromptText = `➕ <b>Введите книгу в формате:</b>
<code>Название | Автор | Жанр</code>

<i>Пример: Властелин колец | Толкин | Фэнтези</i>`

const (
	mainMenuText     = "🏠 <b>Главное меню</b>"
	cancelledText    = "❌ Действие отменено"
	searchMenuText   = "🔍 <b>Выберите тип поиска:</b>"
	topMenuText      = "🏆 <b>Топ книг:</b>"
	unknownText      = "Не понимаю. Выберите действие в меню или отправьте /help"
	unknownCommand   = "Неизвестная команда. Отправьте /help"
	emptyListText    = "📋 <b>Список пуст.</b>\n➕ Добавьте книгу через /add"
	nothingFoundText = "🔍 Ничего не найдено."
)

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
}

func searchPromptText(label string) string {
	return fmt.Sprintf("🔍 Поиск: <b>%s</b>\nВведите запрос:", escape(strings.ToLower(label)))
}

func errorText(err error) string {
	return "❌ " + escape(catalogue.UserMessage(err))
}

func addedText(book *entities.Book) string {
	var b strings.Builder
	b.WriteString("✅ <b>Книга добавлена!</b>\n")
	fmt.Fprintf(&b, "📖 <b>%s</b>\n", escape(book.Title))
	fmt.Fprintf(&b, "👤 %s", escape(book.Author))
	if book.Genre != "" {
		fmt.Fprintf(&b, "\n✏️ %s", escape(book.Genre))
	}
	fmt.Fprintf(&b, "\n🆔 %d", book.ID)
	return b.String()
}

// bookListText renders a numbered list under a bold header. The list stops
// with a "… и ещё N" tail at maxListedBooks entries or when the next entry
// would push the message past maxMessageLength.
func bookListText(header string, books []entities.Book) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", escape(header))
	length := messageLength(b.String())

	for i, book := range books {
		line := fmt.Sprintf("\n%d. %s", i+1, escape(truncate(catalogue.FormatBook(book), maxBookLineRunes)))
		rest := len(books) - i
		reserve := 0
		if rest > 1 {
			reserve = messageLength(moreText(rest - 1))
		}
		if i == maxListedBooks || length+messageLength(line)+reserve > maxMessageLength {
			b.WriteString(moreText(rest))
			break
		}
		b.WriteString(line)
		length += messageLength(line)
	}
	return b.String()
}

func moreText(n int) string {
	return fmt.Sprintf("\n… и ещё %d", n)
}

// messageLength counts UTF-16 code units, the unit Telegram limits.
func messageLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
