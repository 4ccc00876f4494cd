package domain

import (
	"sort"

	"github.com/samber/lo"
)

// Profile is the locally persisted aggregate: the account credentials, every
// message ever sent or received, and the contacts the user added explicitly.
type Profile struct {
	Username string    `json:"username" validate:"required"`
	Password string    `json:"password" validate:"required"`
	Messages []Message `json:"messages"`
	Contacts []string  `json:"contacts"`
}

func NewProfile(username, password string) Profile {
	return Profile{Username: username, Password: password}
}

// AddMessage appends msg unless a field-wise identical record is already
// stored. It reports whether an insertion happened, which the sync cycle uses
// to decide whether anything needs re-rendering or persisting.
func (p *Profile) AddMessage(msg Message) bool {
	for _, existing := range p.Messages {
		if existing == msg {
			return false
		}
	}
	p.Messages = append(p.Messages, msg)
	return true
}

// AddContact is an idempotent insert into the explicit contact list.
func (p *Profile) AddContact(username string) bool {
	if username == "" || username == p.Username {
		return false
	}
	if lo.Contains(p.Contacts, username) {
		return false
	}
	p.Contacts = append(p.Contacts, username)
	return true
}

// ContactSet is the union of explicit contacts and every counterpart username
// seen across stored messages, in deterministic order.
func (p *Profile) ContactSet() []string {
	counterparts := lo.Map(p.Messages, func(m Message, _ int) string {
		return m.Counterpart(p.Username)
	})
	all := lo.Uniq(append(append([]string{}, p.Contacts...), counterparts...))
	all = lo.Filter(all, func(name string, _ int) bool {
		return name != "" && name != p.Username
	})
	sort.Strings(all)
	return all
}

// ChatMessages returns the stored messages exchanged with contact, in stored
// order. Sorting by time is the projection's concern, not the aggregate's.
func (p *Profile) ChatMessages(contact string) []Message {
	return lo.Filter(p.Messages, func(m Message, _ int) bool {
		return m.Involves(contact)
	})
}
