package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"

	apperrors "messenger-lab/errors"
	"messenger-lab/messenger"
	"messenger-lab/projection"
	"messenger-lab/repositories"
	"messenger-lab/search"
)

// TranscriptUpdate is what a sync cycle hands to the presentation side when
// new messages arrived. The interactive loop never touches the network; it
// only drains these.
type TranscriptUpdate struct {
	Contact     string   // conversation currently open, "" if none
	Lines       []string // full transcript for that conversation
	Added       []string // lines this cycle appended
	Contacts    []string // recomputed contact set
	NewMessages int
}

// SyncWorker polls the relay for new messages, merges them into the profile,
// persists when anything changed, and pushes the rebuilt transcript of the
// open conversation through the updates channel.
type SyncWorker struct {
	log         *slog.Logger
	messenger   messenger.Messenger
	profiles    repositories.IProfileRepository
	index       *search.MessageIndex
	interval    time.Duration
	updates     chan<- TranscriptUpdate
	openContact func() string

	transcripts map[string]*projection.Transcript
}

func NewSyncWorker(
	log *slog.Logger,
	m messenger.Messenger,
	profiles repositories.IProfileRepository,
	index *search.MessageIndex,
	interval time.Duration,
	updates chan<- TranscriptUpdate,
	openContact func() string,
) *SyncWorker {
	return &SyncWorker{
		log:         log,
		messenger:   m,
		profiles:    profiles,
		index:       index,
		interval:    interval,
		updates:     updates,
		openContact: openContact,
		transcripts: make(map[string]*projection.Transcript),
	}
}

func (w *SyncWorker) Run(ctx context.Context) error {
	w.log.Info("Starting sync worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

// cycle performs one poll-merge-persist round. Connection and auth failures
// are expected between ticks and only logged; protocol failures are logged
// loudly; persistence failures abort the worker so the supervisor restarts
// it rather than silently dropping state.
func (w *SyncWorker) cycle(ctx context.Context) error {
	incoming, err := w.messenger.RetrieveNew(ctx)
	switch {
	case errors.Is(err, apperrors.ErrProtocol):
		w.log.Error("Relay answered garbage, skipping cycle", "error", err)
		return nil
	case errors.Is(err, apperrors.ErrUnreachable), errors.Is(err, apperrors.ErrAuthRejected):
		w.log.Warn("Relay not available this cycle", "error", err)
		return nil
	case err != nil:
		return err
	}

	inserted := 0
	for _, msg := range incoming {
		if !w.profiles.AddMessage(msg) {
			continue
		}
		inserted++
		info := whatlanggo.Detect(msg.Text)
		w.log.Info("New message",
			"from", msg.From,
			"lang", info.Lang.Iso6391(),
			"at", msg.Time())
	}
	if inserted == 0 {
		// Nothing new: no save, no re-render, no push.
		return nil
	}

	if err := w.profiles.Save(); err != nil {
		return err
	}

	if w.index != nil {
		if err := w.index.Index(w.profiles.Snapshot().Messages); err != nil {
			w.log.Error("Search index update failed", "error", err)
		}
	}

	update := TranscriptUpdate{
		Contacts:    w.profiles.Contacts(),
		NewMessages: inserted,
	}
	if contact := w.openContact(); contact != "" {
		transcript := w.transcript(contact)
		update.Contact = contact
		update.Added = transcript.Merge(w.profiles.ChatMessages(contact))
		update.Lines = append([]string(nil), transcript.Lines...)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.updates <- update:
	}
	return nil
}

func (w *SyncWorker) transcript(contact string) *projection.Transcript {
	t, ok := w.transcripts[contact]
	if !ok {
		t = projection.NewTranscript(contact)
		w.transcripts[contact] = t
	}
	return t
}
