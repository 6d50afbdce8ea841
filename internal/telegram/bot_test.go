package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const chatID int64 = 42

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func (m *mockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return &tgbotapi.APIResponse{Ok: true}, args.Error(0)
}

// texts returns the text of every message sent or edited, in order.
func (m *mockSender) texts() []string {
	var out []string
	for _, call := range m.Calls {
		if call.Method != "Send" {
			continue
		}
		switch c := call.Arguments.Get(0).(type) {
		case tgbotapi.MessageConfig:
			out = append(out, c.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, c.Text)
		}
	}
	return out
}

func (m *mockSender) lastText(t *testing.T) string {
	t.Helper()
	texts := m.texts()
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

type failingCatalogue struct{}

func (failingCatalogue) AddBook(string, string, string, *float64) (*entities.Book, error) {
	return nil, entities.ErrStorage
}
func (failingCatalogue) GetAllBooks() ([]entities.Book, error) { return nil, entities.ErrStorage }
func (failingCatalogue) SearchBooks(string, string) ([]entities.Book, error) {
	return nil, entities.ErrStorage
}
func (failingCatalogue) TopBooks(string, int) ([]entities.Book, error) {
	panic("boom")
}

func setupBot(t *testing.T) (*Bot, *mockSender, *catalogue.Catalogue) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat := catalogue.New(books.NewRepository(db.DB), catalogue.Options{})
	sender := &mockSender{}
	sender.On("Send", mock.Anything).Return(nil)
	sender.On("Request", mock.Anything).Return(nil)
	return NewBot(sender, cat), sender, cat
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func commandUpdate(command string) tgbotapi.Update {
	update := textUpdate("/" + command)
	update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}}
	return update
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}}
}

func TestBot_StartShowsMainMenu(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(commandUpdate("start"))

	require.Len(t, sender.Calls, 1)
	msg, ok := sender.Calls[0].Arguments.Get(0).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, chatID, msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "BookBot")

	keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, keyboard.ResizeKeyboard)
	assert.Equal(t, ButtonSearch, keyboard.Keyboard[0][0].Text)
	assert.Equal(t, StateChoosing, bot.State(chatID))
}

func TestBot_AddBookFlow(t *testing.T) {
	bot, sender, cat := setupBot(t)

	bot.Handle(textUpdate(ButtonAdd))
	assert.Equal(t, StateTypingBookInfo, bot.State(chatID))

	bot.Handle(textUpdate("Война и мир | Лев Толстой | Роман"))
	assert.Equal(t, StateChoosing, bot.State(chatID))
	assert.Contains(t, sender.lastText(t), "Книга добавлена")
	assert.Contains(t, sender.lastText(t), "Война и мир")

	all, err := cat.GetAllBooks()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Лев Толстой", all[0].Author)
	assert.Equal(t, "Роман", all[0].Genre)
}

func TestBot_AddBookRejectsMalformedLine(t *testing.T) {
	bot, sender, cat := setupBot(t)

	bot.Handle(commandUpdate("add"))
	bot.Handle(textUpdate("just a title"))

	assert.Equal(t, StateTypingBookInfo, bot.State(chatID))
	assert.Contains(t, sender.lastText(t), "Invalid input")

	count, err := cat.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBot_SearchFlow(t *testing.T) {
	bot, sender, cat := setupBot(t)
	_, err := cat.AddBook("Война и мир", "Лев Толстой", "Роман", nil)
	require.NoError(t, err)
	_, err = cat.AddBook("1984", "George Orwell", "Антиутопия", nil)
	require.NoError(t, err)

	bot.Handle(commandUpdate("search"))
	assert.Equal(t, StateTypingSearch, bot.State(chatID))

	bot.Handle(callbackUpdate("field:author"))
	sender.AssertCalled(t, "Request", tgbotapi.NewCallback("cb-1", ""))
	assert.Contains(t, sender.lastText(t), "по автору")

	bot.Handle(textUpdate("толстой"))
	assert.Equal(t, StateChoosing, bot.State(chatID))
	last := sender.lastText(t)
	assert.Contains(t, last, "Найдено: 1")
	assert.Contains(t, last, "Лев Толстой")
	assert.NotContains(t, last, "Orwell")
}

func TestBot_SearchNothingFound(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(textUpdate(ButtonSearch))
	bot.Handle(textUpdate("nothing"))

	assert.Equal(t, nothingFoundText, sender.lastText(t))
}

func TestBot_TopCallback(t *testing.T) {
	bot, sender, cat := setupBot(t)
	for _, r := range []float64{5, 9} {
		rating := r
		_, err := cat.AddBook("Book", "Author", "", &rating)
		require.NoError(t, err)
	}

	bot.Handle(commandUpdate("top"))
	bot.Handle(callbackUpdate("top:rating"))

	last := sender.lastText(t)
	assert.Contains(t, last, "По рейтингу")
	high, low := strings.Index(last, "★ 9"), strings.Index(last, "★ 5")
	require.NotEqual(t, -1, high)
	require.NotEqual(t, -1, low)
	assert.Less(t, high, low)
}

func TestBot_TopCallbackEmpty(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(callbackUpdate("top:popularity"))

	assert.Contains(t, sender.lastText(t), "Пока нет книг")
}

func TestBot_ListEscapesHTML(t *testing.T) {
	bot, sender, cat := setupBot(t)
	_, err := cat.AddBook("<b>Bold</b> & Co", "Author", "", nil)
	require.NoError(t, err)

	bot.Handle(commandUpdate("mybooks"))

	last := sender.lastText(t)
	assert.Contains(t, last, "&lt;b&gt;Bold&lt;/b&gt; &amp; Co")
}

func TestBot_ListFitsTelegramLimit(t *testing.T) {
	bot, sender, cat := setupBot(t)
	for i := 0; i < maxListedBooks; i++ {
		title := fmt.Sprintf("%03d %s", i, strings.Repeat("Книга", 23))
		_, err := cat.AddBook(title, "Автор", "Роман", nil)
		require.NoError(t, err)
	}

	bot.Handle(commandUpdate("list"))

	last := sender.lastText(t)
	assert.LessOrEqual(t, messageLength(last), maxMessageLength)
	assert.Contains(t, last, "… и ещё ")
	assert.Contains(t, last, "\n1. ")
}

func TestBookListText_TruncatesOverlongEntry(t *testing.T) {
	books := []entities.Book{{ID: 1, Title: strings.Repeat("<", 5000), Author: "Автор"}}

	text := bookListText("📋 Книги", books)

	assert.LessOrEqual(t, messageLength(text), maxMessageLength)
	assert.Contains(t, text, "\n1. ")
	assert.NotContains(t, text, "и ещё")
}

func TestBot_ListEmpty(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(textUpdate(ButtonList))

	assert.Equal(t, emptyListText, sender.lastText(t))
}

func TestBot_CancelReturnsToMenu(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(commandUpdate("add"))
	bot.Handle(commandUpdate("cancel"))

	assert.Equal(t, StateChoosing, bot.State(chatID))
	texts := sender.texts()
	assert.Contains(t, texts, cancelledText)
	assert.Equal(t, mainMenuText, texts[len(texts)-1])
}

func TestBot_BackCallback(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(commandUpdate("search"))
	bot.Handle(callbackUpdate("back"))

	assert.Equal(t, StateChoosing, bot.State(chatID))
	assert.Equal(t, mainMenuText, sender.lastText(t))
}

func TestBot_UnknownInput(t *testing.T) {
	bot, sender, _ := setupBot(t)

	bot.Handle(commandUpdate("frobnicate"))
	assert.Equal(t, unknownCommand, sender.lastText(t))

	bot.Handle(textUpdate("hello"))
	assert.Equal(t, unknownText, sender.lastText(t))
}

func TestBot_StatesAreIsolatedPerChat(t *testing.T) {
	bot, _, _ := setupBot(t)

	bot.Handle(commandUpdate("add"))

	assert.Equal(t, StateTypingBookInfo, bot.State(chatID))
	assert.Equal(t, StateChoosing, bot.State(chatID+1))
}

func TestBot_ErrorsAreReportedAndSurvived(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything).Return(nil)
	sender.On("Request", mock.Anything).Return(nil)
	bot := NewBot(sender, failingCatalogue{})

	bot.Handle(commandUpdate("list"))
	assert.Contains(t, sender.lastText(t), "unavailable")

	// TopBooks panics, the update is dropped without crashing
	assert.NotPanics(t, func() { bot.Handle(callbackUpdate("top:rating")) })

	bot.Handle(commandUpdate("help"))
	assert.Equal(t, helpText, sender.lastText(t))
}

func TestBot_RunStopsOnContextCancel(t *testing.T) {
	sent := make(chan struct{}, 1)
	sender := &mockSender{}
	sender.On("Send", mock.Anything).Return(nil).Run(func(mock.Arguments) { sent <- struct{}{} })
	bot := NewBot(sender, failingCatalogue{})

	updates := make(chan tgbotapi.Update, 1)
	updates <- commandUpdate("help")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx, updates) }()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("update was not handled")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBot_RunStopsWhenChannelCloses(t *testing.T) {
	bot, _, _ := setupBot(t)
	updates := make(chan tgbotapi.Update)
	close(updates)

	assert.NoError(t, bot.Run(context.Background(), updates))
}
