package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"chathub/contract"
	"chathub/domain"
	"chathub/domain/event"
	"chathub/observability"
	"chathub/services"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/samber/lo"
)

// repl drives the interactive session over stdin. Every command maps
// onto one engine operation; the engine itself never touches the
// terminal.
type repl struct {
	log           *slog.Logger
	auth          services.IAuthService
	chat          *services.ChatService
	monitoring    *observability.MonitoringManager
	registry      contract.IRegistry
	participantID string
	stop          func()

	session *services.Session
	joined  domain.RoomID
}

func newREPL(log *slog.Logger, auth services.IAuthService, chat *services.ChatService,
	monitoring *observability.MonitoringManager, registry contract.IRegistry, stop func()) *repl {
	return &repl{
		log:           log,
		auth:          auth,
		chat:          chat,
		monitoring:    monitoring,
		registry:      registry,
		participantID: uuid.NewString(),
		stop:          stop,
	}
}

// roomFeed receives the joined room's events from the fanout worker
// and echoes messages other participants post there.
type roomFeed struct {
	self func() string
}

func (f *roomFeed) Consume(_ context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok || posted.Message.Author == f.self() {
		return nil
	}
	fmt.Printf("\n%s %s: %s\n",
		posted.Message.At.Format("15:04"),
		color.Cyan.Render(posted.Message.Author),
		posted.Message.Content)
	return nil
}

func (r *repl) Run(ctx context.Context) {
	fmt.Println(color.New(color.FgCyan, color.Bold).Render("chathub — type /help for commands"))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := r.dispatch(ctx, strings.TrimSpace(line)); quit {
				return
			}
		}
	}
}

func (r *repl) prompt() {
	room := string(r.chat.ActiveRoom())
	if room == "" {
		room = "-"
	}
	handle := "anonymous"
	if r.session != nil {
		handle = r.session.Handle
	}
	fmt.Printf("%s@%s> ", handle, room)
}

// dispatch returns true when the session should end.
func (r *repl) dispatch(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.sendText(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		r.stop()
		return true
	case "/help":
		printHelp()
	case "/register":
		r.register(args)
	case "/login":
		r.login(args)
	case "/rooms":
		renderRooms(r.chat.ListRooms())
	case "/create":
		r.createRoom(strings.TrimSpace(strings.TrimPrefix(line, "/create")))
	case "/join":
		r.join(args)
	case "/list":
		r.list(strings.Join(args, " "))
	case "/reply":
		r.reply(args)
	case "/cancel":
		r.chat.ClearReply()
		fmt.Println("Reply canceled")
	case "/file", "/image":
		r.sendFile(ctx, args)
	case "/voice":
		r.sendVoice(ctx, args)
	case "/sticker":
		r.sendSticker(ctx, args)
	case "/poll":
		r.sendPoll(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/poll")))
	case "/vote":
		r.vote(args)
	case "/call":
		r.scheduleCall(ctx, args)
	case "/find":
		r.find(ctx, line)
	case "/stats":
		renderStats(r.monitoring.GetLatest())
	default:
		fmt.Printf("Unknown command %s, try /help\n", cmd)
	}
	return false
}

func (r *repl) register(args []string) {
	if len(args) != 3 {
		fmt.Println("Usage: /register <handle> <secret> <confirm>")
		return
	}
	session, err := r.auth.Register(args[0], args[1], args[2])
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	r.session = &session
	fmt.Printf("Welcome, %s\n", session.Handle)
}

func (r *repl) login(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: /login <handle> <secret>")
		return
	}
	session, err := r.auth.Authenticate(args[0], args[1])
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	r.session = &session
	fmt.Printf("Welcome back, %s\n", session.Handle)
}

func (r *repl) requireSession() bool {
	if r.session == nil {
		fmt.Println("Sign in first: /login or /register")
		return false
	}
	return true
}

func (r *repl) createRoom(name string) {
	if name == "" {
		fmt.Println("Usage: /create <room name>")
		return
	}
	id := r.chat.CreateRoom(name)
	fmt.Printf("Created room %s\n", id)
}

func (r *repl) join(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: /join <room-id>")
		return
	}
	id := domain.RoomID(args[0])
	if err := r.chat.SelectRoom(id); err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	r.subscribe(id)
	r.list("")
}

// subscribe moves this participant's live feed to the selected room.
func (r *repl) subscribe(id domain.RoomID) {
	if r.registry == nil {
		return
	}
	if r.joined != "" {
		r.registry.Unsubscribe(r.participantID, r.joined)
	}
	feed := &roomFeed{self: func() string {
		if r.session == nil {
			return ""
		}
		return r.session.Handle
	}}
	r.registry.Subscribe(r.participantID, id, feed)
	r.joined = id
}

func (r *repl) list(term string) {
	room := r.chat.ActiveRoom()
	if room == "" {
		fmt.Println("Join a room first: /join <room-id>")
		return
	}
	messages, err := r.chat.ListForRoom(room, term)
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	renderMessages(messages)
}

func (r *repl) reply(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: /reply <message-id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Message id must be numeric")
		return
	}
	room := r.chat.ActiveRoom()
	messages, err := r.chat.ListForRoom(room, "")
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	target, ok := lo.Find(messages, func(m domain.Message) bool {
		return m.ID == domain.MessageID(id)
	})
	if !ok {
		fmt.Println("No such message in the current room")
		return
	}
	r.chat.PrepareReply(target)
	fmt.Printf("Replying to %s: %s\n", target.Author, target.Content)
}

func (r *repl) sendText(ctx context.Context, content string) {
	if !r.requireSession() {
		return
	}
	if _, err := r.chat.SendText(ctx, r.session.Handle, r.chat.ActiveRoom(), content); err != nil {
		fmt.Println(color.Red.Render(err.Error()))
	}
}

func (r *repl) sendFile(ctx context.Context, args []string) {
	if !r.requireSession() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: /file <path> [caption...]")
		return
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	caption := strings.Join(args[1:], " ")
	name := args[0]
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if _, err := r.chat.SendAttachment(ctx, r.session.Handle, r.chat.ActiveRoom(), name, data, caption); err != nil {
		fmt.Println(color.Red.Render(err.Error()))
	}
}

func (r *repl) sendVoice(ctx context.Context, args []string) {
	if !r.requireSession() {
		return
	}
	if len(args) != 1 {
		fmt.Println("Usage: /voice <seconds>")
		return
	}
	seconds, err := strconv.Atoi(args[0])
	if err != nil || seconds <= 0 {
		fmt.Println("Duration must be a positive number of seconds")
		return
	}
	duration := time.Duration(seconds) * time.Second
	if _, err := r.chat.SendVoice(ctx, r.session.Handle, r.chat.ActiveRoom(), duration); err != nil {
		fmt.Println(color.Red.Render(err.Error()))
	}
}

func (r *repl) sendSticker(ctx context.Context, args []string) {
	if !r.requireSession() {
		return
	}
	if len(args) != 1 {
		fmt.Println("Usage: /sticker <glyph>")
		return
	}
	if _, err := r.chat.SendSticker(ctx, r.session.Handle, r.chat.ActiveRoom(), args[0]); err != nil {
		fmt.Println(color.Red.Render(err.Error()))
	}
}

// sendPoll parses "Question | option | option [--multi]".
func (r *repl) sendPoll(ctx context.Context, input string) {
	if !r.requireSession() {
		return
	}
	allowMultiple := false
	if strings.HasSuffix(input, "--multi") {
		allowMultiple = true
		input = strings.TrimSpace(strings.TrimSuffix(input, "--multi"))
	}
	parts := strings.Split(input, "|")
	if len(parts) < 3 {
		fmt.Println("Usage: /poll <question> | <option> | <option> [...] [--multi]")
		return
	}
	question := strings.TrimSpace(parts[0])
	options := lo.Map(parts[1:], func(s string, _ int) string { return strings.TrimSpace(s) })

	m, err := r.chat.SendPoll(ctx, r.session.Handle, r.chat.ActiveRoom(), question, options, allowMultiple)
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	renderPoll(m.ID, m.Poll())
}

func (r *repl) vote(args []string) {
	if !r.requireSession() {
		return
	}
	if len(args) != 2 {
		fmt.Println("Usage: /vote <message-id> <option-number>")
		return
	}
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	option, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Both arguments must be numeric")
		return
	}
	poll, err := r.chat.Vote(domain.MessageID(id), option-1, r.session.Handle)
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	renderPoll(domain.MessageID(id), poll)
}

func (r *repl) scheduleCall(ctx context.Context, args []string) {
	if !r.requireSession() {
		return
	}
	if len(args) < 4 {
		fmt.Println("Usage: /call <voice|video> <yyyy-mm-dd> <hh:mm> <title...>")
		return
	}
	medium := domain.CallMedium(args[0])
	if medium != domain.CallVoice && medium != domain.CallVideo {
		fmt.Println("Medium must be voice or video")
		return
	}
	date, err := time.Parse("2006-01-02", args[1])
	if err != nil {
		fmt.Println("Date must look like 2026-01-31")
		return
	}
	title := strings.Join(args[3:], " ")
	if _, err := r.chat.ScheduleCall(ctx, r.session.Handle, r.chat.ActiveRoom(), medium, date, args[2], title); err != nil {
		fmt.Println(color.Red.Render(err.Error()))
	}
}

func (r *repl) find(ctx context.Context, line string) {
	hits, err := r.chat.Find(ctx, line)
	if err != nil {
		fmt.Println(color.Red.Render(err.Error()))
		return
	}
	renderHits(hits)
}

func printHelp() {
	fmt.Print(`Commands:
  /register <handle> <secret> <confirm>   create an account
  /login <handle> <secret>                sign in
  /rooms                                  list rooms
  /create <name>                          create a room
  /join <room-id>                         select a room
  /list [term]                            show messages, optionally filtered
  <text>                                  send a text message to the room
  /reply <message-id>                     quote a message in your next send
  /cancel                                 drop the pending reply
  /file <path> [caption]                  send a file or image
  /voice <seconds>                        send a voice note
  /sticker <glyph>                        send a sticker
  /poll <q> | <opt> | <opt> [--multi]     start a poll
  /vote <message-id> <option-number>      vote on a poll
  /call <voice|video> <date> <time> <t>   schedule a call
  /find <terms> [--room x] [--limit n]    full-text search
  /stats                                  engine counters
  /quit                                   leave
`)
}
