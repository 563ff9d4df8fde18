package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"networth-tracker/internal/models"

	"github.com/Rhymond/go-money"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NamedValue is an "item name = value" pair typed by the user.
type NamedValue struct {
	Name  string
	Value float64
}

// ParseAmount parses a signed amount. Both "." and "," are accepted as decimal separator.
func ParseAmount(text string) (float64, error) {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, ",", ".")

	amount, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount %q", text)
	}
	return amount, nil
}

// ParseDate parses a snapshot date as YYYY-MM-DD or DD/MM/YYYY.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", raw)
}

// ParseSnapshotArgs parses "<date>; <item>=<value>; <item>=<value> ...".
func ParseSnapshotArgs(args string) (time.Time, []NamedValue, error) {
	parts := strings.Split(args, ";")
	date, err := ParseDate(parts[0])
	if err != nil {
		return time.Time{}, nil, err
	}
	values, err := parseNamedValues(parts[1:])
	if err != nil {
		return time.Time{}, nil, err
	}
	return date, values, nil
}

// ParseEntryArgs parses "<snapshot id>; <item>=<value>; ...".
func ParseEntryArgs(args string) (string, []NamedValue, error) {
	parts := strings.Split(args, ";")
	snapshotID := strings.TrimSpace(parts[0])
	if snapshotID == "" {
		return "", nil, errors.New("snapshot id is required")
	}
	values, err := parseNamedValues(parts[1:])
	if err != nil {
		return "", nil, err
	}
	return snapshotID, values, nil
}

// ParseEntryRef parses "<snapshot id>; <item>".
func ParseEntryRef(args string) (string, string, error) {
	snapshotID, name, ok := strings.Cut(args, ";")
	snapshotID = strings.TrimSpace(snapshotID)
	name = strings.TrimSpace(name)
	if !ok || snapshotID == "" || name == "" {
		return "", "", errors.New("expected <snapshot id>; <item>")
	}
	return snapshotID, name, nil
}

// ParseTotalArgs parses "<snapshot id> <value>".
func ParseTotalArgs(args string) (string, float64, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, errors.New("expected <snapshot id> <value>")
	}
	value, err := ParseAmount(fields[1])
	if err != nil {
		return "", 0, err
	}
	return fields[0], value, nil
}

// ItemPosition is an "item name = position" pair.
type ItemPosition struct {
	Name     string
	Position int
}

// ParseOrderArgs parses "<item>=<position>; <item>=<position> ...".
func ParseOrderArgs(args string) ([]ItemPosition, error) {
	var positions []ItemPosition
	for _, part := range strings.Split(args, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected <item>=<position>, got %q", part)
		}
		position, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid position %q", strings.TrimSpace(raw))
		}
		positions = append(positions, ItemPosition{Name: name, Position: position})
	}
	if len(positions) == 0 {
		return nil, errors.New("at least one <item>=<position> is required")
	}
	return positions, nil
}

func parseNamedValues(parts []string) ([]NamedValue, error) {
	var values []NamedValue
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rawValue, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected <item>=<value>, got %q", part)
		}
		value, err := ParseAmount(rawValue)
		if err != nil {
			return nil, err
		}
		values = append(values, NamedValue{Name: name, Value: value})
	}
	if len(values) == 0 {
		return nil, errors.New("at least one <item>=<value> is required")
	}
	return values, nil
}

// ParseItemArgs parses "<name> [| <category>]".
func ParseItemArgs(args string) (string, models.Category, error) {
	name, category, _ := strings.Cut(args, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.New("item name is required")
	}
	return name, models.Category(strings.TrimSpace(category)), nil
}

// FormatMoney renders an amount in the given ISO currency.
func FormatMoney(amount float64, currency string) string {
	return money.NewFromFloat(amount, currency).Display()
}

// FormatPercent renders a signed percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// BuildCategoryKeyboard builds an inline keyboard to file an item under a category
func BuildCategoryKeyboard(categories []models.Category, itemID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	// 2 buttons per row
	for i := 0; i < len(categories); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for j := i; j < i+2 && j < len(categories); j++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				string(categories[j]),
				fmt.Sprintf("category_%d_%s", j, itemID),
			))
		}
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BuildSnapshotKeyboard builds the delete button shown under a recorded snapshot
func BuildSnapshotKeyboard(snapshotID string) tgbotapi.InlineKeyboardMarkup {
	deleteBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🗑️ Delete Snapshot",
		fmt.Sprintf("delete_%s", snapshotID),
	)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(deleteBtn))
}

// ParseCategoryCallback decodes the data of a category button.
func ParseCategoryCallback(data string, categories []models.Category) (string, models.Category, error) {
	rest, ok := strings.CutPrefix(data, "category_")
	if !ok {
		return "", "", fmt.Errorf("not a category callback: %q", data)
	}
	rawIndex, itemID, ok := strings.Cut(rest, "_")
	if !ok || itemID == "" {
		return "", "", fmt.Errorf("malformed category callback: %q", data)
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 || index >= len(categories) {
		return "", "", fmt.Errorf("unknown category in callback: %q", data)
	}
	return itemID, categories[index], nil
}
