package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// CreatorOnlyText is the reply to a creator-only command from anyone else.
const CreatorOnlyText = "Only the group creator can issue this command."

// Ledger is the part of the ledger service the dispatcher drives.
type Ledger interface {
	Relay() ledger.Address
	Project(ctx context.Context, projectID string) (*ledger.Project, error)
	Fees(ctx context.Context) (ledger.FeeSchedule, error)
	FeeCost(ctx context.Context, units uint64) (uint64, error)
	Member(ctx context.Context, projectID, memberID string) (*ledger.Member, error)
	SetProjectMember(ctx context.Context, call ledger.Call, projectID, memberID string, account ledger.Address) (*ledger.Receipt, error)
	Mint(ctx context.Context, call ledger.Call, projectID string, account ledger.Address, amount uint64) (*ledger.Receipt, error)
	Burn(ctx context.Context, call ledger.Call, projectID string, account ledger.Address, amount uint64) (*ledger.Receipt, error)
	BalanceOf(ctx context.Context, projectID string, account ledger.Address) (uint64, error)
	Position(ctx context.Context, projectID string, account ledger.Address) (int, error)
	Sort(ctx context.Context, projectID string, limit int) (ledger.Leaderboard, error)
}

// Message is one chat message addressed to the bot.
type Message struct {
	// ID is the platform's update id. It doubles as the request id so a
	// redelivered update is applied once.
	ID string
	// ChatID is the project the message belongs to.
	ChatID   string
	SenderID string
	// SenderIsCreator is true when the platform reports the sender created the chat.
	SenderIsCreator bool
	Text            string
}

// Reply is the text sent back to the chat.
type Reply struct {
	Text   string
	TxHash string
}

// Dispatcher executes chat commands against the ledger as the relay.
type Dispatcher struct {
	ledger Ledger
	logger *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(l Ledger, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{ledger: l, logger: logger}
}

// Handle runs one message. Ledger rejections become reply text; the error is
// non-nil only when the command failed for reasons the user cannot fix.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (Reply, error) {
	cmd, err := Parse(msg.Text)
	if err != nil {
		return Reply{Text: parseErrorText(err)}, nil
	}
	if cmd.CreatorOnly() && !msg.SenderIsCreator {
		return Reply{Text: CreatorOnlyText}, nil
	}
	if msg.ChatID == "" {
		return Reply{Text: "This command only works inside a group."}, nil
	}

	reply, err := d.run(ctx, cmd, msg)
	if err == nil {
		d.logger.Debug("command handled", "command", string(cmd.Name), "chat_id", msg.ChatID, "tx", reply.TxHash)
		return reply, nil
	}
	if text, ok := userText(err, cmd); ok {
		d.logger.Debug("command rejected", "command", string(cmd.Name), "chat_id", msg.ChatID, "error", err)
		return Reply{Text: text}, nil
	}
	d.logger.Error("command failed", "command", string(cmd.Name), "chat_id", msg.ChatID, "error", err)
	return Reply{Text: "Something went wrong. Please try again later."}, err
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, msg Message) (Reply, error) {
	call := ledger.Call{Caller: d.ledger.Relay(), RequestID: msg.ID}
	switch cmd.Name {
	case Credit:
		return d.credit(ctx, msg.ChatID)
	case Connect:
		account, err := ledger.ParseAddress(cmd.Args[0])
		if err != nil {
			return Reply{}, err
		}
		receipt, err := d.ledger.SetProjectMember(ctx, call, msg.ChatID, msg.SenderID, account)
		if err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:   fmt.Sprintf("Wallet %s connected.\nTransaction: %s", account, receipt.Event.TxHash),
			TxHash: receipt.Event.TxHash,
		}, nil
	case Mint, Burn:
		return d.token(ctx, call, cmd, msg.ChatID)
	case Rank:
		account, err := d.resolve(ctx, msg.ChatID, cmd.Args[0])
		if err != nil {
			return Reply{}, err
		}
		position, err := d.ledger.Position(ctx, msg.ChatID, account)
		if err != nil {
			return Reply{}, err
		}
		balance, err := d.ledger.BalanceOf(ctx, msg.ChatID, account)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: fmt.Sprintf("%s is ranked #%d with %d XP.", cmd.Args[0], position, balance)}, nil
	case Leadership:
		return d.leadership(ctx, msg.ChatID)
	case Me:
		return d.me(ctx, msg)
	}
	return Reply{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, cmd.Name)
}

func (d *Dispatcher) credit(ctx context.Context, chatID string) (Reply, error) {
	proj, err := d.ledger.Project(ctx, chatID)
	if err != nil {
		return Reply{}, err
	}
	fees, err := d.ledger.Fees(ctx)
	if err != nil {
		return Reply{}, err
	}
	mintCost, err := d.ledger.FeeCost(ctx, fees.MintFee)
	if err != nil {
		return Reply{}, err
	}
	connectCost, err := d.ledger.FeeCost(ctx, fees.ProjectMemberFee)
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("Group credit: %d\nMint or burn costs %d, connecting a wallet costs %d.", proj.Deposit, mintCost, connectCost)
	if proj.Deposit < mintCost {
		text += "\nTop up required before the next mint."
	}
	return Reply{Text: text}, nil
}

func (d *Dispatcher) token(ctx context.Context, call ledger.Call, cmd Command, chatID string) (Reply, error) {
	amount, err := parseAmount(cmd.Args[0])
	if err != nil {
		return Reply{}, err
	}
	account, err := d.resolve(ctx, chatID, cmd.Args[1])
	if err != nil {
		return Reply{}, err
	}
	op, verb := d.ledger.Mint, "Minted"
	if cmd.Name == Burn {
		op, verb = d.ledger.Burn, "Burned"
	}
	receipt, err := op(ctx, call, chatID, account, amount)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text:   fmt.Sprintf("%s %d XP for %s.\nTransaction: %s", verb, amount, cmd.Args[1], receipt.Event.TxHash),
		TxHash: receipt.Event.TxHash,
	}, nil
}

func (d *Dispatcher) leadership(ctx context.Context, chatID string) (Reply, error) {
	board, err := d.ledger.Sort(ctx, chatID, LeadershipSize)
	if err != nil {
		return Reply{}, err
	}
	if board.Len() == 0 {
		return Reply{Text: "No XP has been minted in this group yet."}, nil
	}
	var b strings.Builder
	b.WriteString("Leaderboard")
	for i, account := range board.Accounts {
		fmt.Fprintf(&b, "\n%d. %s %d XP", i+1, account, board.Balances[i])
	}
	return Reply{Text: b.String()}, nil
}

func (d *Dispatcher) me(ctx context.Context, msg Message) (Reply, error) {
	member, err := d.ledger.Member(ctx, msg.ChatID, msg.SenderID)
	if err != nil {
		return Reply{}, err
	}
	if member.Address.IsZero() {
		return Reply{Text: "You have not connected a wallet yet. Send /connect <address>."}, nil
	}
	position, err := d.ledger.Position(ctx, msg.ChatID, member.Address)
	if err != nil {
		return Reply{}, err
	}
	balance, err := d.ledger.BalanceOf(ctx, msg.ChatID, member.Address)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("Wallet: %s\nXP: %d\nRank: #%d", member.Address, balance, position)}, nil
}

// errNotConnected reports a mention with no wallet binding in the chat.
var errNotConnected = errors.New("user has not connected a wallet")

// resolve maps a mention or literal address to the account it stands for.
func (d *Dispatcher) resolve(ctx context.Context, chatID, ref string) (ledger.Address, error) {
	if strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X") {
		return ledger.ParseAddress(ref)
	}
	member, err := d.ledger.Member(ctx, chatID, memberRef(ref))
	if err != nil {
		return "", err
	}
	if member.Address.IsZero() {
		return "", fmt.Errorf("%w: %s", errNotConnected, ref)
	}
	return member.Address, nil
}

func parseErrorText(err error) string {
	switch {
	case errors.Is(err, ErrNotACommand):
		return "Commands start with a slash, e.g. /me."
	case errors.Is(err, ErrUsage):
		return "Usage: " + strings.TrimPrefix(err.Error(), ErrUsage.Error()+": ")
	default:
		return "Unknown command. Try /credit, /connect, /mint, /burn, /rank, /leadership or /me."
	}
}

// userText translates errors the user can act on.
func userText(err error, cmd Command) (string, bool) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientCredit):
		return "Not enough group credit for this action, top up required.", true
	case errors.Is(err, ledger.ErrRateLimited):
		return "Wallets can only be changed once every 24 hours. Try again later.", true
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "That user does not hold enough XP to burn.", true
	case errors.Is(err, ledger.ErrUnauthorized):
		return "The bot is not authorized to do that.", true
	case errors.Is(err, ledger.ErrRequestConflict):
		return "This message was already handled.", true
	case errors.Is(err, errNotConnected):
		return fmt.Sprintf("%s has not connected a wallet. Ask them to send /connect <address>.", cmd.Args[len(cmd.Args)-1]), true
	case errors.Is(err, ErrUsage):
		return "Usage: " + cmd.usage(), true
	case errors.Is(err, ledger.ErrInvalidArgument):
		return "Invalid input. Usage: " + cmd.usage(), true
	}
	return "", false
}
