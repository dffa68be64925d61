// Package bot answers chat messages: free text becomes a ledger record,
// slash commands become summaries, exports and charts. It knows nothing
// about the chat transport; identity is checked by the caller with an
// Authorizer before anything reaches a Handler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hisob/internal/core"
	"hisob/internal/ledger"
	"hisob/internal/log"
	"hisob/internal/parser"
	"hisob/internal/report"
)

// Attachment is an in-memory file sent along with a reply.
type Attachment struct {
	Name string
	Data []byte
}

// Response is what the transport sends back. Text is the caption when a
// file or image is attached.
type Response struct {
	Text  string
	File  *Attachment
	Image *Attachment
}

func text(s string) Response { return Response{Text: s} }

type Handler struct {
	ledger  *ledger.Ledger
	parser  *parser.Parser
	backend string
	logger  *log.Logger
}

type Option func(*Handler)

// WithBackendName sets the storage name shown by /count.
func WithBackendName(name string) Option {
	return func(h *Handler) { h.backend = name }
}

func WithLogger(l *log.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func NewHandler(l *ledger.Ledger, p *parser.Parser, opts ...Option) *Handler {
	h := &Handler{ledger: l, parser: p, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent(log.ComponentBot)
	return h
}

// HandleText answers one incoming text message.
func (h *Handler) HandleText(ctx context.Context, msg string) Response {
	msg = strings.TrimSpace(msg)
	if name, ok := commandName(msg); ok {
		return h.handleCommand(ctx, name)
	}
	return h.record(ctx, msg)
}

// HandleDocument restores the ledger from an exported workbook.
func (h *Handler) HandleDocument(ctx context.Context, name string, data []byte) Response {
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return text("❌ Faqat .xlsx fayl qabul qilinadi.")
	}
	txs, err := report.ReadXLSX(data)
	if errors.Is(err, report.ErrNoRecords) {
		return text("❌ Faylda birorta ham yozuv topilmadi.")
	}
	if err != nil {
		h.logger.InfoContext(ctx, "Rejected import file",
			log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		return text("❌ Faylni o'qib bo'lmadi: " + err.Error())
	}
	if err := h.ledger.Replace(ctx, txs); err != nil {
		h.logger.ErrorContext(ctx, "Failed to replace ledger",
			log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		if errors.Is(err, ledger.ErrWriteFailed) {
			return text(NotSavedText)
		}
		return text("❌ Faylni o'qib bo'lmadi: " + err.Error())
	}
	h.logger.InfoContext(ctx, "Ledger restored from file", log.FieldRecords, len(txs), log.FieldFileName, name)
	return text(fmt.Sprintf("♻️ Tiklandi: %d ta yozuv", len(txs)))
}

func (h *Handler) record(ctx context.Context, msg string) Response {
	c, err := h.parser.Parse(msg)
	if err != nil {
		var pf *parser.ParseFailure
		if errors.As(err, &pf) {
			h.logger.InfoContext(ctx, "Unparseable message", log.FieldOperation, log.OpParse, "reason", pf.Reason)
		}
		return text(RejectionText)
	}

	// A failed load still lets the record through: Append persists first and
	// the next successful load picks up everything.
	_ = h.ledger.EnsureLoaded(ctx)

	tx, err := h.ledger.Append(ctx, ledger.Entry{Amount: c.Amount, Note: c.Note, Category: c.Category})
	if err != nil {
		if errors.Is(err, ledger.ErrWriteFailed) {
			return text(NotSavedText)
		}
		h.logger.InfoContext(ctx, "Rejected record", log.NewFields().WithOperation(log.OpAppend).WithError(err).ToSlice()...)
		return text(RejectionText)
	}
	h.logger.InfoContext(ctx, "Transaction recorded",
		append(log.NewFields().WithTransaction(tx.Amount.Units, string(tx.Category)).ToSlice(),
			log.FieldSign, string(c.SignSource))...)
	return text(formatRecorded(tx))
}

func (h *Handler) handleCommand(ctx context.Context, name string) Response {
	cmd, ok := lookup(name)
	if !ok {
		return text(UnknownText)
	}
	switch cmd.Name {
	case "start", "help":
		return text(formatHelp())
	case "import":
		return text(ImportHint)
	}

	if err := h.ledger.EnsureLoaded(ctx); err != nil {
		h.logger.WarnContext(ctx, "Serving command without data",
			log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return text(NoDataText)
	}

	switch {
	case cmd.window != nil:
		w := *cmd.window
		return text(formatSummary(w, h.ledger.Summarize(w)))
	case cmd.Name == "export":
		return h.export(ctx)
	case cmd.Name == "top":
		top := h.ledger.TopExpenses(3)
		if len(top) == 0 {
			return text(NoExpenseText)
		}
		return text(formatTop(top))
	case cmd.Name == "count":
		return text(formatCount(h.ledger.Count(), h.backend))
	case cmd.Name == "categories":
		w := core.LastMonths(1)
		rows := h.ledger.CategoryBreakdown(w)
		if len(rows) == 0 {
			return text(NoExpenseText)
		}
		return text(formatCategories(w, rows))
	case cmd.Name == "chart":
		return h.chart(ctx, core.LastMonths(1))
	}
	return text(UnknownText)
}

func (h *Handler) export(ctx context.Context) Response {
	txs := h.ledger.Snapshot()
	if len(txs) == 0 {
		return text(EmptyText)
	}
	data, err := report.WriteXLSX(txs)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build export",
			log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		return text(NoDataText)
	}
	h.logger.InfoContext(ctx, "Ledger exported", log.FieldRecords, len(txs), log.FieldFileSize, len(data))
	return Response{
		Text: fmt.Sprintf("📁 Hisobot: %d ta yozuv", len(txs)),
		File: &Attachment{Name: report.FileName, Data: data},
	}
}

func (h *Handler) chart(ctx context.Context, w core.Window) Response {
	png, err := report.PieChart(w.Label(), h.ledger.CategoryBreakdown(w))
	if errors.Is(err, report.ErrNoRecords) {
		return text(NoExpenseText)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to render chart",
			log.NewFields().WithOperation(log.OpChart).WithError(err).ToSlice()...)
		return text(NoDataText)
	}
	return Response{
		Text:  "🥧 Chiqimlar · " + w.Label(),
		Image: &Attachment{Name: "chart.png", Data: png},
	}
}

// commandName extracts "balance" from "/balance@hisob_bot extra words".
func commandName(msg string) (string, bool) {
	if !strings.HasPrefix(msg, "/") {
		return "", false
	}
	name := strings.Fields(msg[1:])
	if len(name) == 0 {
		return "", true
	}
	n := name[0]
	if i := strings.IndexByte(n, '@'); i >= 0 {
		n = n[:i]
	}
	return strings.ToLower(n), true
}
