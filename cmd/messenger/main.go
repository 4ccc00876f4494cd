package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	apperrors "messenger-lab/errors"
	"messenger-lab/internal"
	"messenger-lab/messenger"
	"messenger-lab/moderation"
	"messenger-lab/projection"
	"messenger-lab/repositories"
	"messenger-lab/runtime/workers"
	"messenger-lab/search"
)

// Exit codes to provide meaningful status to the operating system.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper: it calls run() and turns
	// its result into the OS exit code, so defers always execute.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Messenger terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Profile: open the stored one, or create it on first run.
	profiles := repositories.NewProfileRepository(config.ProfilePath, config.ProfilePassphrase, logger)
	switch err := profiles.Load(); {
	case errors.Is(err, apperrors.ErrProfileNotFound):
		logger.Info("No profile yet, creating one", "path", config.ProfilePath)
		if err := profiles.Create(config.Username, config.Password); err != nil {
			return exitRuntime, err
		}
	case err != nil:
		return exitRuntime, err
	}
	account := profiles.Snapshot()

	// 3. Client, moderation, search
	endpoint := messenger.Endpoint{
		Host:        config.ServerHost,
		Port:        config.ServerPort,
		DialTimeout: config.DialTimeout,
		IOTimeout:   config.IOTimeout,
	}
	client := messenger.New(endpoint, account.Username, account.Password, logger)

	var censor *moderation.Censor
	if words := config.CensoredWordList(); len(words) > 0 {
		replacement, err := internal.CharacterRune(config.CensorReplacement)
		if err != nil {
			return exitConfig, err
		}
		censor, err = moderation.NewCensor(words, replacement)
		if err != nil {
			return exitConfig, err
		}
	}

	index, err := search.NewMessageIndex()
	if err != nil {
		return exitRuntime, err
	}
	defer index.Close()
	if err := index.Index(account.Messages); err != nil {
		return exitRuntime, err
	}

	// 4. Background workers: sync + telemetry, supervised.
	open := &openContact{}
	updates := make(chan workers.TranscriptUpdate, 4)
	supervisor := workers.NewSupervisor(logger).Add(
		workers.NewSyncWorker(logger, client, profiles, index, config.SyncInterval, updates, open.get),
		workers.NewTelemetryWorker(logger, config.TelemetryInterval),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		supervisor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		drainUpdates(ctx, updates)
	}()

	// 5. Interactive loop on stdin; the network never blocks it.
	cli := console{
		ctx:      ctx,
		logger:   logger,
		config:   config,
		client:   client,
		profiles: profiles,
		censor:   censor,
		index:    index,
		open:     open,
	}
	err = cli.loop()

	stop()
	wg.Wait()
	if err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// openContact tracks which conversation the user is looking at. The sync
// worker reads it on every cycle to know which transcript to rebuild.
type openContact struct {
	mu   sync.RWMutex
	name string
}

func (o *openContact) get() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

func (o *openContact) set(name string) {
	o.mu.Lock()
	o.name = name
	o.mu.Unlock()
}

func drainUpdates(ctx context.Context, updates <-chan workers.TranscriptUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			for _, line := range update.Added {
				color.Cyan.Println(line)
			}
			if update.Contact == "" && update.NewMessages > 0 {
				color.Gray.Printf("%d new message(s); /contacts to see who wrote\n", update.NewMessages)
			}
		}
	}
}

type console struct {
	ctx      context.Context
	logger   *slog.Logger
	config   internal.Config
	client   *messenger.DirectMessenger
	profiles *repositories.ProfileRepository
	censor   *moderation.Censor
	index    *search.MessageIndex
	open     *openContact
}

func (c console) loop() error {
	color.Green.Printf("Connected as %s. @user text to send, /help for commands.\n", c.client.Username())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if trimmed == "/quit" {
				return nil
			}
			c.dispatch(trimmed)
		}
	}
}

func (c console) dispatch(line string) {
	switch {
	case line == "/help":
		fmt.Println("@user text | /open user | /contacts | /add user | /find terms | /all | /quit")
	case line == "/contacts":
		c.printContacts()
	case strings.HasPrefix(line, "/open "):
		c.openConversation(strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
	case strings.HasPrefix(line, "/add "):
		c.addContact(strings.TrimSpace(strings.TrimPrefix(line, "/add ")))
	case strings.HasPrefix(line, "/find "):
		c.find(strings.TrimSpace(strings.TrimPrefix(line, "/find ")))
	case line == "/all":
		c.retrieveAll()
	case strings.HasPrefix(line, "@"):
		parts := strings.SplitN(line[1:], " ", 2)
		if len(parts) < 2 {
			color.Yellow.Println("format: @recipient message")
			return
		}
		c.send(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	default:
		if contact := c.open.get(); contact != "" {
			c.send(contact, line)
			return
		}
		color.Yellow.Println("no open conversation; use @recipient message or /open user")
	}
}

func (c console) send(recipient, text string) {
	if c.censor != nil {
		censored, hits := c.censor.Apply(text)
		if len(hits) > 0 {
			color.Yellow.Printf("censored %d word(s) before sending\n", len(hits))
			text = censored
		}
	}

	receipt, err := c.client.Send(c.ctx, text, recipient)
	switch {
	case errors.Is(err, apperrors.ErrAuthRejected):
		color.Red.Println("relay rejected your credentials; check DSP_USERNAME / DSP_PASSWORD")
		return
	case errors.Is(err, apperrors.ErrUnreachable):
		color.Red.Println("relay unreachable; message not sent")
		return
	case err != nil:
		color.Red.Printf("send failed: %v\n", err)
		return
	}

	c.profiles.AddContact(recipient)
	c.profiles.AddMessage(receipt.Message)
	if err := c.profiles.Save(); err != nil {
		c.logger.Warn("Profile save failed after send", "error", err)
	}
	color.Green.Println(projection.Render(receipt.Message))
}

func (c console) openConversation(contact string) {
	if contact == "" {
		color.Yellow.Println("format: /open user")
		return
	}
	c.open.set(contact)
	c.profiles.AddContact(contact)
	for _, line := range projection.Build(contact, c.profiles.ChatMessages(contact)) {
		color.Cyan.Println(line)
	}
}

func (c console) addContact(contact string) {
	if contact == "" {
		color.Yellow.Println("format: /add user")
		return
	}
	if c.profiles.AddContact(contact) {
		if err := c.profiles.Save(); err != nil {
			c.logger.Warn("Profile save failed", "error", err)
		}
	}
	c.printContacts()
}

func (c console) printContacts() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Contact", "Messages"})
	for _, contact := range c.profiles.Contacts() {
		table.Append([]string{contact, fmt.Sprintf("%d", len(c.profiles.ChatMessages(contact)))})
	}
	table.Render()
}

func (c console) find(terms string) {
	hits, err := c.index.Find(c.ctx, terms, 10)
	if err != nil {
		color.Red.Printf("search failed: %v\n", err)
		return
	}
	if len(hits) == 0 {
		color.Gray.Println("no matches")
		return
	}
	for _, hit := range hits {
		fmt.Printf("%s : %s\n", hit.From, hit.Text)
	}
}

// retrieveAll pulls the full mailbox once, e.g. after recreating a profile.
func (c console) retrieveAll() {
	messages, err := c.client.RetrieveAll(c.ctx)
	if err != nil {
		color.Red.Printf("retrieve failed: %v\n", err)
		return
	}
	inserted := 0
	for _, msg := range messages {
		if c.profiles.AddMessage(msg) {
			inserted++
		}
	}
	if inserted > 0 {
		if err := c.profiles.Save(); err != nil {
			c.logger.Warn("Profile save failed", "error", err)
		}
		if err := c.index.Index(c.profiles.Snapshot().Messages); err != nil {
			c.logger.Warn("Search index update failed", "error", err)
		}
	}
	color.Green.Printf("retrieved %d message(s), %d new\n", len(messages), inserted)
	if contact := c.open.get(); contact != "" {
		for _, line := range projection.Build(contact, c.profiles.ChatMessages(contact)) {
			color.Cyan.Println(line)
		}
	}
}
