package manager

import (
	"strings"

	"telegram-fetch-bot/internal/prober"
	"telegram-fetch-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback actions. Data layout is "action:jobID" or "action:jobID:arg";
// none of the parts may contain a colon and the whole string must stay
// within Telegram's 64-byte callback data limit.
const (
	ActionFormat   = "fmt"
	ActionCancel   = "cancel"
	ActionGeneric  = "generic"
	ActionRecheck  = "recheck"
	ActionLog      = "log"
	ActionCommand  = "cmd"
	ActionCookie   = "cookie"
	ActionTry      = "try"
	ActionCompress = "compress"
	ActionOffload  = "offload"
	ActionKeep     = "keep"
)

func Callback(action, jobID string, arg ...string) string {
	data := action + ":" + jobID
	if len(arg) > 0 && arg[0] != "" {
		data += ":" + arg[0]
	}
	return data
}

func ParseCallback(data string) (action, jobID, arg string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	action, jobID = parts[0], parts[1]
	if len(parts) == 3 {
		arg = parts[2]
	}
	return action, jobID, arg, true
}

// QualityKeyboard offers the probed format options plus cancel. Sizes are
// appended to the label when the probe knew them.
func QualityKeyboard(jobID string, options []prober.FormatOption) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range options {
		label := opt.Label
		if opt.ApproxSize > 0 {
			label += " (~" + utils.HumanBytes(opt.ApproxSize) + ")"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, Callback(ActionFormat, jobID, opt.Token)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Cancel", Callback(ActionCancel, jobID)),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// CancelKeyboard is shown while a download runs.
func CancelKeyboard(jobID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", Callback(ActionCancel, jobID)),
		),
	)
}

// AuthKeyboard is shown when probing failed on a login/consent wall.
func AuthKeyboard(jobID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Provide cookie", Callback(ActionCookie, jobID)),
			tgbotapi.NewInlineKeyboardButtonData("Try anyway", Callback(ActionTry, jobID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", Callback(ActionCancel, jobID)),
		),
	)
}

// TryKeyboard is shown for bot-challenge and unsupported probe failures.
func TryKeyboard(jobID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Try anyway", Callback(ActionTry, jobID)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", Callback(ActionCancel, jobID)),
		),
	)
}

// FailureKeyboard is attached to a failed job's final message.
func FailureKeyboard(jobID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Recheck", Callback(ActionRecheck, jobID)),
			tgbotapi.NewInlineKeyboardButtonData("Force generic", Callback(ActionGeneric, jobID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Show log", Callback(ActionLog, jobID)),
			tgbotapi.NewInlineKeyboardButtonData("Show command", Callback(ActionCommand, jobID)),
		),
	)
}

// RemedyKeyboard offers the too-large remedies.
func RemedyKeyboard(jobID string, offloadEnabled bool) tgbotapi.InlineKeyboardMarkup {
	first := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Compress", Callback(ActionCompress, jobID)),
	}
	if offloadEnabled {
		first = append(first, tgbotapi.NewInlineKeyboardButtonData("Offload", Callback(ActionOffload, jobID)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		first,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Keep on server", Callback(ActionKeep, jobID)),
			tgbotapi.NewInlineKeyboardButtonData("Discard", Callback(ActionCancel, jobID)),
		),
	)
}
