package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrlokans/bookshelf/internal/search"
)

// Reply keyboard buttons of the main menu
const (
	ButtonSearch = "🔍 Поиск"
	ButtonTop    = "🏆 Топ"
	ButtonAdd    = "➕ Добавить"
	ButtonList   = "📋 Список"
	ButtonHelp   = "❓ Помощь"
)

// Inline keyboard callback data
const (
	callbackFieldPrefix = "field:"
	callbackTopPrefix   = "top:"
	callbackBack        = "back"
)

var fieldLabels = map[search.Field]string{
	search.FieldTitle:  "По названию",
	search.FieldAuthor: "По автору",
	search.FieldGenre:  "По жанру",
}

var metricLabels = map[search.Metric]string{
	search.MetricRating:     "⭐️ По рейтингу",
	search.MetricPopularity: "🔥 По популярности",
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonSearch),
			tgbotapi.NewKeyboardButton(ButtonTop),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonAdd),
			tgbotapi.NewKeyboardButton(ButtonList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonHelp),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func searchFieldKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fieldLabels[search.FieldTitle], callbackFieldPrefix+string(search.FieldTitle)),
			tgbotapi.NewInlineKeyboardButtonData(fieldLabels[search.FieldAuthor], callbackFieldPrefix+string(search.FieldAuthor)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fieldLabels[search.FieldGenre], callbackFieldPrefix+string(search.FieldGenre)),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", callbackBack),
		),
	)
}

func topMetricKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(metricLabels[search.MetricRating], callbackTopPrefix+string(search.MetricRating)),
			tgbotapi.NewInlineKeyboardButtonData(metricLabels[search.MetricPopularity], callbackTopPrefix+string(search.MetricPopularity)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", callbackBack),
		),
	)
}
