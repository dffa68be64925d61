package bot

import "hisob/internal/core"

// Command is one entry of the chat command menu.
type Command struct {
	Name        string
	Description string

	window *core.Window
}

func window(w core.Window) *core.Window { return &w }

var commands = []Command{
	{Name: "3days", Description: "Oxirgi 3 kun", window: window(core.LastDays(3))},
	{Name: "7days", Description: "Oxirgi 7 kun", window: window(core.LastDays(7))},
	{Name: "10days", Description: "Oxirgi 10 kun", window: window(core.LastDays(10))},
	{Name: "month", Description: "Oxirgi 30 kun", window: window(core.LastMonths(1))},
	{Name: "3months", Description: "Oxirgi 3 oy", window: window(core.LastMonths(3))},
	{Name: "balance", Description: "Umumiy balans", window: window(core.AllTime())},
	{Name: "top", Description: "Eng katta 3 ta chiqim"},
	{Name: "categories", Description: "Kategoriyalar bo'yicha chiqim (30 kun)"},
	{Name: "chart", Description: "Chiqimlar diagrammasi (30 kun)"},
	{Name: "export", Description: "Excel faylga eksport"},
	{Name: "import", Description: "Excel fayldan tiklash"},
	{Name: "count", Description: "Yozuvlar soni"},
	{Name: "help", Description: "Yordam"},
}

// Commands returns the menu in display order. /start is accepted but not
// listed.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

func lookup(name string) (Command, bool) {
	if name == "start" {
		return Command{Name: "start"}, true
	}
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
