package conversation

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailchat/internal/chat"
	"github.com/nhle/mailchat/internal/model"
	"github.com/nhle/mailchat/internal/theme"
)

// Card is one selectable element of the transcript: an email from a list
// or a draft reply.
type Card struct {
	Kind  model.Kind
	Email model.Email
	Draft model.DraftReply
}

// IsEmail reports whether the card is an email from a list.
func (c Card) IsEmail() bool { return c.Kind == model.KindEmailList }

// IsDraft reports whether the card is a draft reply.
func (c Card) IsDraft() bool { return c.Kind == model.KindDraft }

// Cards flattens the transcript into its selectable cards, in display
// order.
func Cards(msgs []model.Message) []Card {
	var cards []Card
	for _, msg := range msgs {
		switch msg.Kind() {
		case model.KindEmailList:
			for _, email := range msg.Emails() {
				cards = append(cards, Card{Kind: model.KindEmailList, Email: email})
			}
		case model.KindDraft:
			if draft, ok := msg.Draft(); ok {
				cards = append(cards, Card{Kind: model.KindDraft, Draft: draft})
			}
		}
	}
	return cards
}

// RenderOptions controls how the transcript is drawn.
type RenderOptions struct {
	Width int

	// Selected is the index into Cards of the highlighted card, or -1.
	Selected int

	// Spinner is the frame drawn in front of status placeholders.
	Spinner string
}

// Render draws the transcript. It is a pure function of its inputs.
func Render(msgs []model.Message, opts RenderOptions) string {
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	cardWidth := max(opts.Width-4, 20)

	var sections []string
	card := 0

	for _, msg := range msgs {
		if msg.IsStatus() {
			line := msg.Content()
			if opts.Spinner != "" {
				line = opts.Spinner + " " + line
			}
			sections = append(sections, theme.StatusLineStyle.Render(line), "")
			continue
		}

		sections = append(sections,
			roleLabel(msg.Role()),
			contentStyle.Render(msg.Content()),
		)

		switch msg.Kind() {
		case model.KindEmailList:
			for _, email := range msg.Emails() {
				sections = append(sections, renderEmailCard(email, cardWidth, card == opts.Selected))
				card++
			}
		case model.KindDraft:
			if draft, ok := msg.Draft(); ok {
				sections = append(sections, renderDraftCard(draft, cardWidth, card == opts.Selected))
				card++
			}
		}

		sections = append(sections, "")
	}

	return strings.Join(sections, "\n")
}

func roleLabel(role model.Role) string {
	style := theme.RoleStyle(string(role))
	switch role {
	case model.RoleUser:
		return style.Render("You:")
	case model.RoleAssistant:
		return style.Render("Assistant:")
	default:
		return style.Render(string(role) + ":")
	}
}

func cardStyle(width int, selected bool) lipgloss.Style {
	if selected {
		return theme.SelectedCardStyle.Width(width)
	}
	return theme.CardStyle.Width(width)
}

func renderEmailCard(email model.Email, width int, selected bool) string {
	senderStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	dateStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	summary := theme.HelpStyle.Render(chat.NoSummary)
	if email.Summary != "" {
		summary = email.Summary
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		senderStyle.Render(email.Sender)+"  "+dateStyle.Render(email.Date),
		email.Subject,
		summary,
		theme.HelpStyle.Render("[r] Reply  [d] Delete"),
	)
	return cardStyle(width, selected).Render(body)
}

func renderDraftCard(draft model.DraftReply, width int, selected bool) string {
	fieldStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	body := lipgloss.JoinVertical(lipgloss.Left,
		fieldStyle.Render("To: ")+draft.To,
		fieldStyle.Render("Subject: ")+draft.Subject,
		"",
		draft.Reply,
		"",
		theme.HelpStyle.Render("[s] Send"),
	)
	return cardStyle(width, selected).Render(body)
}
