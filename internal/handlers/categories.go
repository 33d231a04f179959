package handlers

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

// Categories are free text; the well-known ones get their own icon.
var knownCategories = map[string]CategoryStyle{
	"food":          {"🍽️", "#60a5fa"},
	"transport":     {"🚌", "#a78bfa"},
	"entertainment": {"🎮", "#f472b6"},
	"utilities":     {"💡", "#fbbf24"},
	"housing":       {"🏠", "#818cf8"},
	"rent":          {"🏠", "#818cf8"},
	"gifts":         {"🎁", "#fb7185"},
	"books":         {"📚", "#34d399"},
	"education":     {"🎓", "#2dd4bf"},
	"health":        {"💊", "#f87171"},
	"shopping":      {"🛍️", "#fb923c"},
}

var fallbackColors = []string{"#94a3b8", "#38bdf8", "#c084fc", "#4ade80", "#facc15", "#f97316"}

// getCategoryStyle picks a stable style for any category name.
func getCategoryStyle(category string) CategoryStyle {
	key := strings.ToLower(strings.TrimSpace(category))
	if style, ok := knownCategories[key]; ok {
		return style
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return CategoryStyle{Icon: "📦", Color: fallbackColors[h.Sum32()%uint32(len(fallbackColors))]}
}

// formatAmount renders an amount with two decimals.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
