package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/smith3v/vocab-srs/pkg/srs"
)

const (
	QualityCallbackPrefix  = "q:"
	ReminderCallbackPrefix = "r:"
	MaxCallbackDataLen     = 64
)

type ReminderField string

const (
	ReminderToggle   ReminderField = "toggle"
	ReminderHour     ReminderField = "hour"
	ReminderTimezone ReminderField = "tz"
	ReminderClose    ReminderField = "close"
)

// ReminderAction is a decoded reminder settings button. Delta is +1 or -1
// for hour and timezone buttons.
type ReminderAction struct {
	Field ReminderField
	Delta int
}

var (
	errInvalidPrefix       = errors.New("invalid callback prefix")
	errInvalidAction       = errors.New("invalid callback action")
	errInvalidToken        = errors.New("invalid callback token")
	errInvalidValue        = errors.New("invalid callback value")
	errCallbackDataTooLong = errors.New("callback data too long")
)

// BuildQualityCallback encodes a grade for the card identified by token.
func BuildQualityCallback(token string, q srs.Quality) (string, error) {
	if token == "" || strings.Contains(token, ":") {
		return "", errInvalidToken
	}
	if err := q.Validate(); err != nil {
		return "", err
	}
	return validateCallbackData(QualityCallbackPrefix + token + ":" + strconv.Itoa(int(q)))
}

func ParseQualityCallback(data string) (string, srs.Quality, error) {
	if len(data) > MaxCallbackDataLen {
		return "", 0, errCallbackDataTooLong
	}
	if !strings.HasPrefix(data, QualityCallbackPrefix) {
		return "", 0, errInvalidPrefix
	}
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", 0, errInvalidAction
	}
	token := parts[1]
	if token == "" {
		return "", 0, errInvalidToken
	}
	if !isASCIIUnsignedInt(parts[2]) {
		return "", 0, errInvalidValue
	}
	q, err := srs.ParseQuality(parts[2])
	if err != nil {
		return "", 0, err
	}
	return token, q, nil
}

func BuildReminderCallback(action ReminderAction) (string, error) {
	switch action.Field {
	case ReminderToggle, ReminderClose:
		return validateCallbackData(ReminderCallbackPrefix + string(action.Field))
	case ReminderHour, ReminderTimezone:
		if action.Delta != 1 && action.Delta != -1 {
			return "", errInvalidValue
		}
		return validateCallbackData(ReminderCallbackPrefix + string(action.Field) + ":" + formatDelta(action.Delta))
	default:
		return "", errInvalidAction
	}
}

func ParseReminderCallback(data string) (ReminderAction, error) {
	if len(data) > MaxCallbackDataLen {
		return ReminderAction{}, errCallbackDataTooLong
	}
	if !strings.HasPrefix(data, ReminderCallbackPrefix) {
		return ReminderAction{}, errInvalidPrefix
	}
	parts := strings.Split(strings.TrimPrefix(data, ReminderCallbackPrefix), ":")
	field := ReminderField(parts[0])
	switch field {
	case ReminderToggle, ReminderClose:
		if len(parts) != 1 {
			return ReminderAction{}, errInvalidAction
		}
		return ReminderAction{Field: field}, nil
	case ReminderHour, ReminderTimezone:
		if len(parts) != 2 {
			return ReminderAction{}, errInvalidAction
		}
		switch parts[1] {
		case "+1":
			return ReminderAction{Field: field, Delta: 1}, nil
		case "-1":
			return ReminderAction{Field: field, Delta: -1}, nil
		default:
			return ReminderAction{}, errInvalidValue
		}
	default:
		return ReminderAction{}, errInvalidAction
	}
}

func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

func validateCallbackData(data string) (string, error) {
	if data == "" {
		return "", errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return "", errCallbackDataTooLong
	}
	return data, nil
}

func isASCIIUnsignedInt(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
