package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gfredtech/ScheduleBot/internal/domain"
)

// Button labels and UI texts.
const (
	buttonNow  = "NOW❗"
	buttonDay  = "DAY⌛"
	buttonWeek = "WEEK 🗓️"

	answerYes = "Yes 🙋"
	answerNo  = "No 🙅"

	greetingText = "Hi there!✋"
	helpText     = "Schedule bot for GTUC students.\n\n" +
		"Some commands, that might be useful for you:\n" +
		"/configure manage your settings\n" +
		"/reminders turn reminders on/off\n" +
		"/help help\n\n" +
		"We are unable to track all changes in schedule."

	notConfiguredText = "Sorry. I do not know your groups yet. 😥\n Please use /configure command to set it up"
	freeDayText       = "No lessons on this day! Lucky you are!"
	settingsSavedText = "Your settings have been saved successfully!"
	unknownInputText  = "Sorry, I did not understand you"
	fullWeekText      = "That is your week. Good luck!"

	askCourseText   = "What year are you in?"
	askGroupText    = "What's your major?"
	askSubGroupText = "What's your English sub-group?"
	askWeekdayText  = "Select some day of the week"

	noNextLessonsText = "                  🗽"
	remindHeader      = "⏰\n"
)

func askRemindersText(leadMinutes int) string {
	return fmt.Sprintf("Would you like to get reminders %d minutes "+
		"before every lecture, tutorial and lab? 🚨", leadMinutes)
}

// mainKeyboard is the persistent three-button menu.
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonNow),
			tgbotapi.NewKeyboardButton(buttonDay),
			tgbotapi.NewKeyboardButton(buttonWeek),
		),
	)
}

// weekdayKeyboard lists the teaching days, starring today.
func weekdayKeyboard(today time.Weekday) tgbotapi.ReplyKeyboardMarkup {
	var buttons []tgbotapi.KeyboardButton
	for d := time.Monday; d <= time.Saturday; d++ {
		label := domain.WeekdayLabel(d)
		if d == today {
			label += "⭐"
		}
		buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
	}
	return tgbotapi.NewReplyKeyboard(buttons[:3], buttons[3:])
}

// choiceKeyboard renders one button per option, three per row.
func choiceKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, opt := range options {
		row = append(row, tgbotapi.NewKeyboardButton(opt))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(answerYes),
			tgbotapi.NewKeyboardButton(answerNo),
		),
	)
}

// lessonCard renders one lesson the way the NOW and DAY views show it.
func lessonCard(l domain.Lesson) string {
	glyph := "👩"
	if l.InstructorGender == domain.Male {
		glyph = "👨"
	}
	name := l.Subject
	if tag := l.Kind.Label(); tag != "" {
		name += " " + tag
	}
	return fmt.Sprintf("%s\n%s %s\n🕐 %s — %s\n🚪 %s\n",
		name, glyph, l.Instructor,
		domain.FormatMinutes(l.StartM), domain.FormatMinutes(l.EndM),
		l.Room,
	)
}

// countdown renders minutes as "2h 5m", dropping the hour part when zero.
func countdown(mins int) string {
	if mins < 0 {
		mins = 0
	}
	if h := mins / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins%60)
	}
	return fmt.Sprintf("%dm", mins%60)
}

// currentCard is the NOW view line for a lesson in progress.
func currentCard(l domain.Lesson, now time.Time) string {
	return lessonCard(l) + "⏸️ " + countdown(l.MinutesUntilEnd(now)) + "\n"
}

// futureCard is the NOW view line for the lesson coming up.
func futureCard(l domain.Lesson, now time.Time) string {
	return lessonCard(l) + "▶️ " + countdown(l.MinutesUntilStart(now)) + "\n"
}
