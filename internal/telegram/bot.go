// Package telegram is the chat front-end of the catalogue.
//
// Every chat is a small state machine. In StateChoosing the bot waits for a
// menu choice, in StateTypingSearch the next text message is a search query
// and in StateTypingBookInfo it is a "Title | Author | Genre" line. Commands
// and inline buttons work from any state.
package telegram

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/search"
)

// Sender is the part of the Bot API client the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Catalogue is the facade the bot reads and writes books through.
type Catalogue interface {
	AddBook(title, author, genre string, rating *float64) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	SearchBooks(field, query string) ([]entities.Book, error)
	TopBooks(metric string, limit int) ([]entities.Book, error)
}

var _ Catalogue = (*catalogue.Catalogue)(nil)

type State int

const (
	StateChoosing State = iota
	StateTypingSearch
	StateTypingBookInfo
)

func (s State) String() string {
	switch s {
	case StateChoosing:
		return "choosing"
	case StateTypingSearch:
		return "typing_search"
	case StateTypingBookInfo:
		return "typing_book_info"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type session struct {
	state State
	field search.Field
}

type stateHandler func(b *Bot, chatID int64, text string)

// Bot routes Telegram updates to catalogue operations.
type Bot struct {
	sender Sender
	books  Catalogue

	mu       sync.Mutex
	sessions map[int64]*session

	handlers map[State]stateHandler
	menu     map[string]func(b *Bot, chatID int64)
	commands map[string]func(b *Bot, chatID int64)
}

func NewBot(sender Sender, books Catalogue) *Bot {
	return &Bot{
		sender:   sender,
		books:    books,
		sessions: make(map[int64]*session),
		handlers: map[State]stateHandler{
			StateChoosing:       (*Bot).handleChoosing,
			StateTypingSearch:   (*Bot).handleTypingSearch,
			StateTypingBookInfo: (*Bot).handleTypingBookInfo,
		},
		menu: map[string]func(b *Bot, chatID int64){
			ButtonSearch: (*Bot).showSearchMenu,
			ButtonTop:    (*Bot).showTopMenu,
			ButtonAdd:    (*Bot).promptAddBook,
			ButtonList:   (*Bot).listBooks,
			ButtonHelp:   (*Bot).showHelp,
		},
		commands: map[string]func(b *Bot, chatID int64){
			"start":   (*Bot).start,
			"help":    (*Bot).showHelp,
			"search":  (*Bot).showSearchMenu,
			"add":     (*Bot).promptAddBook,
			"list":    (*Bot).listBooks,
			"mybooks": (*Bot).listBooks,
			"top":     (*Bot).showTopMenu,
			"cancel":  (*Bot).cancel,
		},
	}
}

// Run handles updates one at a time until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	log.Printf("Telegram bot: waiting for updates")
	for {
		select {
		case <-ctx.Done():
			log.Printf("Telegram bot: stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				log.Printf("Telegram bot: update channel closed")
				return nil
			}
			b.Handle(update)
		}
	}
}

// Handle processes one update. A panic is logged and swallowed so a single
// bad update never stops the loop.
func (b *Bot) Handle(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Telegram bot: panic while handling update %d: %v\n%s", update.UpdateID, r, debug.Stack())
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil:
		b.handleMessage(update.Message)
	}
}

// State reports the conversation state of a chat.
func (b *Bot) State(chatID int64) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[chatID]; ok {
		return s.state
	}
	return StateChoosing
}

func (b *Bot) setState(chatID int64, state State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionLocked(chatID).state = state
}

func (b *Bot) beginSearch(chatID int64, field search.Field) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sessionLocked(chatID)
	s.state = StateTypingSearch
	s.field = field
}

func (b *Bot) searchField(chatID int64) search.Field {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionLocked(chatID).field
}

func (b *Bot) sessionLocked(chatID int64) *session {
	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{state: StateChoosing, field: search.FieldTitle}
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		command, ok := b.commands[strings.ToLower(msg.Command())]
		if !ok {
			b.reply(chatID, unknownCommand, nil)
			return
		}
		command(b, chatID)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if action, ok := b.menu[text]; ok {
		action(b, chatID)
		return
	}

	state := b.State(chatID)
	handler, ok := b.handlers[state]
	if !ok {
		log.Printf("Telegram bot: no handler for state %s in chat %d, resetting", state, chatID)
		b.setState(chatID, StateChoosing)
		handler = b.handlers[StateChoosing]
	}
	handler(b, chatID, text)
}

func (b *Bot) handleChoosing(chatID int64, _ string) {
	b.reply(chatID, unknownText, nil)
}

func (b *Bot) handleTypingSearch(chatID int64, query string) {
	if query == "" {
		b.reply(chatID, searchPromptText(fieldLabels[b.searchField(chatID)]), nil)
		return
	}

	field := b.searchField(chatID)
	found, err := b.books.SearchBooks(string(field), query)
	if err != nil {
		b.replyError(chatID, "search", err)
		return
	}

	b.setState(chatID, StateChoosing)
	if len(found) == 0 {
		b.reply(chatID, nothingFoundText, nil)
		return
	}
	b.reply(chatID, bookListText(fmt.Sprintf("🔍 Найдено: %d", len(found)), found), nil)
}

func (b *Bot) handleTypingBookInfo(chatID int64, text string) {
	title, author, genre, err := catalogue.ParseBookLine(text)
	if err != nil {
		b.reply(chatID, errorText(err)+"\n\n"+addPromptText, nil)
		return
	}

	book, err := b.books.AddBook(title, author, genre, nil)
	if err != nil {
		b.replyError(chatID, "add book", err)
		return
	}

	b.setState(chatID, StateChoosing)
	b.reply(chatID, addedText(book), nil)
}

func (b *Bot) start(chatID int64) {
	b.setState(chatID, StateChoosing)
	b.reply(chatID, welcomeText, mainMenuKeyboard())
}

func (b *Bot) showHelp(chatID int64) {
	b.reply(chatID, helpText, nil)
}

func (b *Bot) showSearchMenu(chatID int64) {
	b.beginSearch(chatID, search.FieldTitle)
	b.reply(chatID, searchMenuText, searchFieldKeyboard())
}

func (b *Bot) showTopMenu(chatID int64) {
	b.reply(chatID, topMenuText, topMetricKeyboard())
}

func (b *Bot) promptAddBook(chatID int64) {
	b.setState(chatID, StateTypingBookInfo)
	b.reply(chatID, addPromptText, nil)
}

func (b *Bot) listBooks(chatID int64) {
	all, err := b.books.GetAllBooks()
	if err != nil {
		b.replyError(chatID, "list books", err)
		return
	}
	if len(all) == 0 {
		b.reply(chatID, emptyListText, nil)
		return
	}
	b.reply(chatID, bookListText(fmt.Sprintf("📋 Книг в каталоге: %d", len(all)), all), nil)
}

func (b *Bot) cancel(chatID int64) {
	b.reply(chatID, cancelledText, nil)
	b.showMainMenu(chatID)
}

func (b *Bot) showMainMenu(chatID int64) {
	b.setState(chatID, StateChoosing)
	b.reply(chatID, mainMenuText, mainMenuKeyboard())
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Telegram bot: failed to answer callback %s: %v", query.ID, err)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch {
	case query.Data == callbackBack:
		b.showMainMenu(chatID)

	case strings.HasPrefix(query.Data, callbackFieldPrefix):
		field, err := search.ParseField(strings.TrimPrefix(query.Data, callbackFieldPrefix))
		if err != nil {
			b.replyError(chatID, "select field", err)
			return
		}
		b.beginSearch(chatID, field)
		b.edit(chatID, messageID, searchPromptText(fieldLabels[field]))

	case strings.HasPrefix(query.Data, callbackTopPrefix):
		metric := strings.TrimPrefix(query.Data, callbackTopPrefix)
		ranked, err := b.books.TopBooks(metric, 0)
		if err != nil {
			b.replyError(chatID, "top", err)
			return
		}
		if len(ranked) == 0 {
			b.edit(chatID, messageID, "🏆 Пока нет книг с такой оценкой.")
			return
		}
		b.edit(chatID, messageID, bookListText(metricLabels[search.Metric(metric)], ranked))

	default:
		log.Printf("Telegram bot: unknown callback data %q in chat %d", query.Data, chatID)
	}
}

func (b *Bot) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Telegram bot: failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.sender.Send(edit); err != nil {
		log.Printf("Telegram bot: failed to edit message %d in chat %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) replyError(chatID int64, op string, err error) {
	log.Printf("Telegram bot: %s failed in chat %d: %v", op, chatID, err)
	b.reply(chatID, errorText(err), nil)
}
