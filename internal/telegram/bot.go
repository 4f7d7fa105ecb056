package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
)

// Menu button labels. These double as the dispatch keys for incoming text.
const (
	menuPayment     = "💵 پرداخت"
	menuDeposit     = "💰 موجودی سپرده"
	menuPayments    = "📜 لیست پرداختی‌ها"
	menuLoanRequest = "📝 درخواست ثبت وام"
	menuLoanBalance = "📋 مانده وام"
	menuSupport     = "🆘 پشتیبانی"
)

const defaultLoanMonths = 12

// chatMode is what the bot is waiting for from a chat.
type chatMode int

const (
	modeIdle chatMode = iota
	modeAwaitingPhone
	modeAwaitingReceiptAmount
	modeAwaitingReceiptPhoto
	modeAwaitingLoanAmount
	modeAwaitingLoanMonths
)

// chatState is the per-chat conversation state. It lives in memory only;
// a restart simply drops half-finished flows back to the menu.
type chatState struct {
	mode chatMode

	// afterLink is the menu action to run once account linking completes.
	afterLink string

	// amount carries the first answer of the two-step receipt and loan
	// request flows.
	amount decimal.Decimal
}

// Bot serves fund members over Telegram: balances, payment history, receipt
// submission and loan requests. Updates arrive through long polling.
type Bot struct {
	client          *Client
	memberService   *service.MemberService
	paymentService  *service.PaymentService
	requestService  *service.LoanRequestService
	receiptService  *service.ReceiptService
	settingsService *service.SettingsService
	logger          zerolog.Logger

	pollTimeout time.Duration

	stateMu sync.Mutex
	states  map[int64]*chatState

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewBot creates a new Bot
func NewBot(
	client *Client,
	memberService *service.MemberService,
	paymentService *service.PaymentService,
	requestService *service.LoanRequestService,
	receiptService *service.ReceiptService,
	settingsService *service.SettingsService,
	pollTimeout time.Duration,
	logger zerolog.Logger,
) *Bot {
	return &Bot{
		client:          client,
		memberService:   memberService,
		paymentService:  paymentService,
		requestService:  requestService,
		receiptService:  receiptService,
		settingsService: settingsService,
		pollTimeout:     pollTimeout,
		logger:          logger.With().Str("component", "telegram_bot").Logger(),
		states:          make(map[int64]*chatState),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins long polling for updates
func (b *Bot) Start(ctx context.Context) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.mu.Unlock()

	b.logger.Info().Msg("Starting telegram bot (long polling)")
	go b.poll(ctx)
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	close(b.stopCh)
	<-b.doneCh
	b.logger.Info().Msg("Telegram bot stopped")
}

func (b *Bot) poll(ctx context.Context) {
	defer close(b.doneCh)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.setStopped()
			return
		case <-b.stopCh:
			b.setStopped()
			return
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				b.setStopped()
				return
			}
			b.logger.Warn().Err(err).Msg("Polling error")
			continue
		}
		for _, update := range updates {
			offset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) setStopped() {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}

// handleUpdate dispatches one update. Handler panics are contained so a
// malformed update cannot kill the polling loop.
func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Update handler panicked")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && len(update.Message.Photo) > 0:
		b.handlePhoto(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) handleText(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/start") {
		b.handleStart(ctx, msg, text)
		return
	}
	if strings.HasPrefix(text, "/") {
		return
	}

	state := b.state(chatID)
	switch state.mode {
	case modeAwaitingPhone:
		b.handlePhoneEntry(ctx, chatID, text, state)
	case modeAwaitingReceiptAmount:
		b.handleReceiptAmount(ctx, chatID, text, state)
	case modeAwaitingLoanAmount:
		b.handleLoanAmount(ctx, chatID, text, state)
	case modeAwaitingLoanMonths:
		b.handleLoanMonths(ctx, chatID, text, state)
	default:
		b.handleMenu(ctx, chatID, text)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *Message, text string) {
	chatID := msg.Chat.ID
	name := "کاربر"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	// Admin deep link from the settings panel: /start admin
	if strings.HasPrefix(strings.ToLower(text), "/start admin") {
		if _, err := b.settingsService.LinkAdminChat(strconv.FormatInt(chatID, 10)); err != nil {
			b.logger.Error().Err(err).Msg("Failed to link admin chat")
			b.reply(ctx, chatID, "❌ ثبت اتصال ناموفق بود. لطفاً دوباره از پنل تلاش کنید.")
			return
		}
		b.reply(ctx, chatID, "✅ اتصال برقرار شد.\nاز این پس اعلان‌های درخواست وام و پرداخت به این چت ارسال می‌شوند.")
		return
	}

	member, err := b.memberService.GetByTelegramChatID(strconv.FormatInt(chatID, 10))
	if err == nil && member != nil {
		b.resetState(chatID)
		b.replyWithMenu(ctx, chatID, fmt.Sprintf(
			"سلام %s.\n\nبه ربات صندوق خوش آمدید. با دکمه‌های منو موجودی سپرده، مانده وام و پرداخت‌های خود را مدیریت کنید.", name))
		return
	}

	b.setState(chatID, &chatState{mode: modeAwaitingPhone, afterLink: ""})
	_ = b.client.SendMessageWithMarkup(ctx, strconv.FormatInt(chatID, 10), fmt.Sprintf(
		"سلام %s.\n\nبرای اتصال حساب، شماره تلفن ثبت‌شده نزد صندوق را وارد کنید.", name),
		ReplyKeyboardRemove{RemoveKeyboard: true})
}

func (b *Bot) handlePhoneEntry(ctx context.Context, chatID int64, text string, state *chatState) {
	phone := shamsi.ToASCIIDigits(strings.ReplaceAll(text, " ", ""))
	if len(phone) < 10 {
		b.reply(ctx, chatID, "شماره تلفن معتبر نیست. لطفاً دوباره وارد کنید.")
		return
	}

	member, err := b.memberService.LinkTelegram(phone, strconv.FormatInt(chatID, 10))
	if err != nil {
		b.reply(ctx, chatID, "شماره تلفن در لیست اعضا یافت نشد. لطفاً شماره صحیح را وارد کنید یا با مدیر صندوق تماس بگیرید.")
		return
	}

	after := state.afterLink
	b.resetState(chatID)
	b.replyWithMenu(ctx, chatID, "✅ حساب شما با موفقیت متصل شد.")
	if after != "" {
		b.runMenuAction(ctx, chatID, member, after)
	}
}

func (b *Bot) handleMenu(ctx context.Context, chatID int64, text string) {
	if text == menuSupport {
		b.replyWithMenu(ctx, chatID, "برای پشتیبانی با مدیر صندوق در تماس باشید.")
		return
	}

	switch text {
	case menuPayment, menuDeposit, menuPayments, menuLoanRequest, menuLoanBalance:
	default:
		return
	}

	member, err := b.memberService.GetByTelegramChatID(strconv.FormatInt(chatID, 10))
	if err != nil {
		b.setState(chatID, &chatState{mode: modeAwaitingPhone, afterLink: text})
		_ = b.client.SendMessageWithMarkup(ctx, strconv.FormatInt(chatID, 10),
			"برای استفاده، ابتدا حساب خود را متصل کنید. شماره تلفن ثبت‌شده را وارد کنید.",
			ReplyKeyboardRemove{RemoveKeyboard: true})
		return
	}
	b.runMenuAction(ctx, chatID, member, text)
}

func (b *Bot) runMenuAction(ctx context.Context, chatID int64, member *domain.Member, action string) {
	switch action {
	case menuDeposit:
		b.replyWithMenu(ctx, chatID, fmt.Sprintf("موجودی سپرده شما: %s تومان", shamsi.FormatAmount(member.DepositBalance)))

	case menuLoanBalance:
		b.replyWithMenu(ctx, chatID, fmt.Sprintf("مانده وام شما: %s تومان", shamsi.FormatAmount(member.LoanBalance)))

	case menuPayments:
		b.sendPaymentList(ctx, chatID, member)

	case menuPayment:
		b.setState(chatID, &chatState{mode: modeAwaitingReceiptAmount})
		b.reply(ctx, chatID, "مبلغ واریزی را به تومان وارد کنید:")

	case menuLoanRequest:
		if member.LoanBalance.GreaterThan(decimal.Zero) {
			b.replyWithMenu(ctx, chatID, "شما در حال حاضر وام فعال دارید. پس از تسویه وام قبلی می‌توانید درخواست وام جدید ثبت کنید.")
			return
		}
		b.setState(chatID, &chatState{mode: modeAwaitingLoanAmount})
		b.reply(ctx, chatID, "مبلغ وام درخواستی را به تومان وارد کنید:")
	}
}

func (b *Bot) sendPaymentList(ctx context.Context, chatID int64, member *domain.Member) {
	payments, err := b.paymentService.ListByMember(member.ID)
	if err != nil {
		b.replyWithMenu(ctx, chatID, "خطا در ارتباط با سرور. لطفاً بعداً تلاش کنید.")
		return
	}
	if len(payments) == 0 {
		b.replyWithMenu(ctx, chatID, "پرداختی ثبت‌شده‌ای برای شما وجود ندارد.")
		return
	}

	const maxLines = 15
	lines := make([]string, 0, maxLines)
	for i, p := range payments {
		if i == maxLines {
			break
		}
		kind := "واریز"
		if p.Kind == domain.PaymentKindInstallment {
			kind = "بازپرداخت"
		}
		dateDisplay := "-"
		if date, ok := shamsi.Parse(p.Date); ok {
			dateDisplay = shamsi.FormatForDisplay(date)
		}
		lines = append(lines, fmt.Sprintf("%s: %s %s تومان", dateDisplay, kind, shamsi.FormatAmount(p.Amount)))
	}
	text := "آخرین پرداختی‌ها:\n\n" + strings.Join(lines, "\n")
	if len(payments) > maxLines {
		text += "\n\n..."
	}
	b.replyWithMenu(ctx, chatID, text)
}

func (b *Bot) handleReceiptAmount(ctx context.Context, chatID int64, text string, state *chatState) {
	amount, ok := parseAmount(text)
	if !ok {
		b.reply(ctx, chatID, "مبلغ معتبر نیست. لطفاً فقط عدد وارد کنید.")
		return
	}
	state.amount = amount
	state.mode = modeAwaitingReceiptPhoto
	b.reply(ctx, chatID, "لطفاً عکس رسید خود را ارسال کنید.")
}

func (b *Bot) handlePhoto(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	state := b.state(chatID)
	if state.mode != modeAwaitingReceiptPhoto {
		return
	}

	member, err := b.memberService.GetByTelegramChatID(strconv.FormatInt(chatID, 10))
	if err != nil {
		b.resetState(chatID)
		b.replyWithMenu(ctx, chatID, "حساب شما یافت نشد. ابتدا با شماره تلفن حساب خود را متصل کنید.")
		return
	}

	// The last photo size is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	image, err := b.client.DownloadFile(ctx, fileID)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to download receipt photo")
		b.replyWithMenu(ctx, chatID, "خطا در دریافت عکس. لطفاً دوباره تلاش کنید.")
		return
	}

	_, err = b.receiptService.Submit(ctx, service.SubmitReceiptInput{
		MemberID: member.ID,
		Amount:   state.amount,
		Date:     shamsi.Today().String(),
		Image:    image,
	})
	b.resetState(chatID)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to submit receipt")
		b.replyWithMenu(ctx, chatID, "خطا در ثبت رسید. لطفاً دوباره تلاش کنید.")
		return
	}
	b.replyWithMenu(ctx, chatID, "واریزی شما در حال بررسی توسط مدیر صندوق است. در صورت تأیید اعلام خواهد شد.")
}

func (b *Bot) handleLoanAmount(ctx context.Context, chatID int64, text string, state *chatState) {
	amount, ok := parseAmount(text)
	if !ok {
		b.reply(ctx, chatID, "مبلغ معتبر نیست. لطفاً فقط عدد وارد کنید.")
		return
	}
	state.amount = amount
	state.mode = modeAwaitingLoanMonths
	b.reply(ctx, chatID, fmt.Sprintf("مدت بازپرداخت را به ماه وارد کنید (پیش‌فرض %d):", defaultLoanMonths))
}

func (b *Bot) handleLoanMonths(ctx context.Context, chatID int64, text string, state *chatState) {
	months64, err := strconv.ParseInt(shamsi.ToASCIIDigits(strings.TrimSpace(text)), 10, 32)
	if err != nil || months64 <= 0 {
		months64 = defaultLoanMonths
	}

	_, err = b.requestService.Submit(ctx, service.SubmitInput{
		TelegramChatID: strconv.FormatInt(chatID, 10),
		Amount:         state.amount,
		DueMonths:      int32(months64),
	})
	b.resetState(chatID)
	switch {
	case errors.Is(err, domain.ErrLoanMemberHasActive):
		b.replyWithMenu(ctx, chatID, "شما در حال حاضر وام فعال دارید. پس از تسویه می‌توانید درخواست جدید ثبت کنید.")
	case errors.Is(err, domain.ErrRequestAlreadyOpen):
		b.replyWithMenu(ctx, chatID, "شما یک درخواست وام در انتظار بررسی دارید. لطفاً منتظر تصمیم مدیر بمانید.")
	case err != nil:
		b.replyWithMenu(ctx, chatID, "خطا در ثبت درخواست. دوباره تلاش کنید.")
	default:
		b.replyWithMenu(ctx, chatID, "درخواست ثبت وام شما ثبت شد و برای مدیر صندوق ارسال گردید.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *CallbackQuery) {
	if err := b.client.AnswerCallbackQuery(ctx, query.ID); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback query")
	}
	if query.Message == nil {
		return
	}
	// Inline buttons mirror the reply menu for older chats.
	b.handleMenu(ctx, query.Message.Chat.ID, query.Data)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, strconv.FormatInt(chatID, 10), text); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

func (b *Bot) replyWithMenu(ctx context.Context, chatID int64, text string) {
	err := b.client.SendMessageWithMarkup(ctx, strconv.FormatInt(chatID, 10), text, mainMenu())
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

// mainMenu is the persistent keyboard shown under the chat input.
func mainMenu() ReplyKeyboardMarkup {
	return ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: menuPayment}},
			{{Text: menuDeposit}, {Text: menuPayments}},
			{{Text: menuLoanRequest}, {Text: menuLoanBalance}},
			{{Text: menuSupport}},
		},
		ResizeKeyboard: true,
	}
}

func (b *Bot) state(chatID int64) *chatState {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if s, ok := b.states[chatID]; ok {
		return s
	}
	s := &chatState{}
	b.states[chatID] = s
	return s
}

func (b *Bot) setState(chatID int64, state *chatState) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.states[chatID] = state
}

func (b *Bot) resetState(chatID int64) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	delete(b.states, chatID)
}

// parseAmount reads a toman amount in ASCII or Persian digits, ignoring
// grouping separators.
func parseAmount(text string) (decimal.Decimal, bool) {
	cleaned := shamsi.ToASCIIDigits(strings.TrimSpace(text))
	cleaned = strings.NewReplacer(",", "", "٬", "", " ", "").Replace(cleaned)
	if cleaned == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return amount, true
}
