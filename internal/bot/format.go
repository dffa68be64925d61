package bot

import (
	"fmt"
	"strings"

	"hisob/internal/core"
)

const (
	DeniedText    = "⛔ Kechirasiz, bu bot faqat egasi uchun."
	RejectionText = "❌ Format noto'g'ri. Misol: +5000000 oylik yoki -20000 kofe yoki 8 minga salfetka"
	NoDataText    = "⚠️ Ma'lumotlarni o'qib bo'lmadi, hozircha ko'rsatadigan ma'lumot yo'q."
	NotSavedText  = "⚠️ Yozuv saqlanmadi. Iltimos, birozdan keyin qayta yuboring."
	EmptyText     = "📭 Hali ma'lumot yo'q."
	NoExpenseText = "📭 Bu davrda chiqimlar yo'q."
	UnknownText   = "🤷 Noma'lum buyruq. Buyruqlar ro'yxati: /help"
	ImportHint    = "📎 Eksport qilingan .xlsx faylni /import izohi bilan yuboring. Joriy yozuvlar fayldagilar bilan almashtiriladi."
)

const dateLayout = "2006-01-02 15:04"

var categoryIcons = map[core.Category]string{
	core.CategoryFood:           "🍽",
	core.CategoryTransport:      "🚕",
	core.CategoryCommunications: "📱",
	core.CategoryIncome:         "💰",
	core.CategoryOther:          "📦",
}

func som(units int64) string {
	return core.FormatGrouped(units) + " so'm"
}

func formatRecorded(tx core.Transaction) string {
	kind := "CHIQIM"
	if tx.Kind() == core.KindIncome {
		kind = "KIRIM"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s %s yozildi", som(tx.Magnitude()), kind)
	if tx.Note != "" {
		fmt.Fprintf(&b, ": %s", shorten(tx.Note, maxEchoedNote))
	}
	fmt.Fprintf(&b, "\n%s %s", categoryIcons[tx.Category], tx.Category.Title())
	return b.String()
}

// maxEchoedNote keeps confirmations under Telegram's message length; the
// stored note is not shortened.
const maxEchoedNote = 200

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func formatSummary(w core.Window, s core.Summary) string {
	return fmt.Sprintf("📊 %s\nKirim: %s\nChiqim: %s\nBalans: %s",
		w.Label(), som(s.Income), som(s.Expense), som(s.Balance))
}

func formatTop(txs []core.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔝 Eng katta %d ta chiqim:", len(txs))
	for i, tx := range txs {
		fmt.Fprintf(&b, "\n%d. %s", i+1, som(tx.Magnitude()))
		if tx.Note != "" {
			fmt.Fprintf(&b, " · %s", tx.Note)
		}
		fmt.Fprintf(&b, " (%s)", tx.Timestamp.Format(dateLayout))
	}
	return b.String()
}

func formatCategories(w core.Window, rows []core.CategoryAmount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📂 Kategoriyalar · %s", w.Label())
	var total int64
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%s %s: %s", categoryIcons[r.Category], r.Category.Title(), som(r.Amount.Units))
		total += r.Amount.Units
	}
	fmt.Fprintf(&b, "\nJami: %s", som(total))
	return b.String()
}

func formatCount(n int, backend string) string {
	s := fmt.Sprintf("🧾 Yozuvlar soni: %d", n)
	if backend != "" {
		s += "\n💾 Saqlash: " + backend
	}
	return s
}

func formatHelp() string {
	var b strings.Builder
	b.WriteString("👋 Salom! Kirim va chiqimlaringizni oddiy matn bilan yozing:\n")
	b.WriteString("+5000000 oylik tushdi\n-20000 kofe\n8 minga salfetka oldim\n\nBuyruqlar:")
	for _, c := range Commands() {
		fmt.Fprintf(&b, "\n/%s · %s", c.Name, c.Description)
	}
	return b.String()
}
