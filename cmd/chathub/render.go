package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"chathub/domain"
	"chathub/observability"
	"chathub/search"
	"chathub/services"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderRooms(rooms []services.RoomView) {
	table := newTable([]string{"ID", "Name", "Members", "Last", "Unread"})
	for _, room := range rooms {
		last := ""
		if room.LastSnippet != "" {
			last = fmt.Sprintf("%s: %s", room.LastAuthor, room.LastSnippet)
		}
		unread := ""
		if room.Unread > 0 {
			unread = color.New(color.BgRed, color.FgWhite).Render(strconv.Itoa(room.Unread))
		}
		table.Append([]string{
			string(room.ID),
			room.Name,
			strconv.Itoa(room.MemberCount),
			last,
			unread,
		})
	}
	table.Render()
}

func renderMessages(messages []domain.Message) {
	for _, m := range messages {
		if m.ReplyTo != nil {
			fmt.Printf("      %s %s: %s\n",
				color.Gray.Render("┌"),
				color.Gray.Render(m.ReplyTo.Author),
				color.Gray.Render(m.ReplyTo.Content))
		}
		line := fmt.Sprintf("[%d] %s %s %s %s",
			m.ID,
			m.At.Local().Format("15:04"),
			color.New(color.FgCyan).Render(m.Author),
			renderBody(m),
			statusMark(m.Status))
		fmt.Println(line)
		if poll := m.Poll(); poll != nil {
			renderPoll(m.ID, poll)
		}
	}
}

// renderBody shows the content for text and a short descriptor for
// every other kind.
func renderBody(m domain.Message) string {
	switch p := m.Payload.(type) {
	case domain.Attachment:
		label := "file"
		if p.Image {
			label = "image"
		}
		body := fmt.Sprintf("[%s] %s (%s)", label, p.Name, p.HumanSize)
		if m.Content != "" {
			body += " " + m.Content
		}
		return body
	case domain.VoiceNote:
		return fmt.Sprintf("[voice] %ds", int(p.Duration/time.Second))
	case domain.Sticker:
		return p.Glyph
	case *domain.Poll:
		return fmt.Sprintf("[poll] %s", p.Question)
	case domain.CallSchedule:
		return fmt.Sprintf("[%s call] %s on %s at %s", p.Medium, p.Title,
			p.Date.Format("2006-01-02"), p.Time)
	default:
		return m.Content
	}
}

func renderPoll(id domain.MessageID, poll *domain.Poll) {
	if poll == nil {
		return
	}
	total := poll.TotalVotes()
	fmt.Printf("  Poll #%d: %s (%d votes)\n", id, poll.Question, total)
	for i, option := range poll.Options {
		votes := poll.Votes[option]
		fmt.Printf("    %d. %-30s %3d%% (%d)\n", i+1, option, poll.Percentage(option), votes)
	}
}

func renderHits(hits []search.Hit) {
	if len(hits) == 0 {
		fmt.Println("No results")
		return
	}
	table := newTable([]string{"ID", "Room", "Author", "Content"})
	for _, hit := range hits {
		table.Append([]string{
			strconv.FormatInt(int64(hit.ID), 10),
			string(hit.Room),
			hit.Author,
			hit.Content,
		})
	}
	table.Render()
}

func renderStats(stats observability.EngineStats) {
	table := newTable([]string{"Counter", "Value"})
	table.Append([]string{"Messages posted", strconv.FormatUint(stats.MessagesPosted, 10)})
	table.Append([]string{"Votes recorded", strconv.FormatUint(stats.VotesRecorded, 10)})
	table.Append([]string{"Transitions applied", strconv.FormatUint(stats.TransitionsApplied, 10)})
	table.Append([]string{"Rooms created", strconv.FormatUint(stats.RoomsCreated, 10)})
	table.Render()
}

func statusMark(s domain.Status) string {
	switch s {
	case domain.StatusSending:
		return color.Gray.Render("…")
	case domain.StatusSent:
		return color.Gray.Render("✓")
	case domain.StatusDelivered:
		return color.Gray.Render("✓✓")
	case domain.StatusRead:
		return color.New(color.FgCyan).Render("✓✓")
	default:
		return ""
	}
}
