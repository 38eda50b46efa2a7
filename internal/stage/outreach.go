package stage

import (
	"fmt"
	"strings"

	"ContentPipeline/internal/domain"
)

// DefaultProposalTemplate is the sponsorship letter sent to site owners.
const DefaultProposalTemplate = "Dear [Name],\n\n" +
	"I came across your [website/blog/social media account] and was impressed by your content related to [topic/industry]. " +
	"I believe our collaboration can be mutually beneficial and would like to discuss potential sponsorship or advertising opportunities. " +
	"Our content has garnered significant attention and engagement, and we are confident that it can provide value to your audience.\n\n" +
	"Looking forward to the possibility of working together!\n\n" +
	"Best regards,\n" +
	"[Your Name]"

const (
	placeholderName    = "[Name]"
	placeholderChannel = "[website/blog/social media account]"
	placeholderTopic   = "[topic/industry]"
	placeholderSender  = "[Your Name]"

	defaultRecipientName = "Editor"
)

type OutreachOptions struct {
	SenderName   string
	Topic        string
	FallbackName string
}

// OutreachStage fills the proposal template for a site. It performs no I/O.
type OutreachStage struct {
	opts OutreachOptions
}

func NewOutreachStage(opts OutreachOptions) *OutreachStage {
	if strings.TrimSpace(opts.FallbackName) == "" {
		opts.FallbackName = defaultRecipientName
	}
	return &OutreachStage{opts: opts}
}

// Build substitutes the template placeholders. siteDomain falls back to the
// bundle's domain when empty.
func (s *OutreachStage) Build(siteDomain string, contacts domain.ContactBundle, template string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("build proposal: %w", domain.ErrEmptyTemplate)
	}
	opts := OutreachOptions{FallbackName: defaultRecipientName}
	if s != nil {
		opts = s.opts
	}
	if siteDomain == "" {
		siteDomain = contacts.Domain
	}

	r := strings.NewReplacer(
		placeholderName, RecipientName(contacts, opts.FallbackName),
		placeholderChannel, siteDomain,
		placeholderTopic, opts.Topic,
		placeholderSender, opts.SenderName,
	)
	return r.Replace(template), nil
}

// RecipientName picks the greeting name: first handle, then the local part
// of the first email, then fallback.
func RecipientName(contacts domain.ContactBundle, fallback string) string {
	for _, h := range contacts.Handles {
		if _, name, ok := strings.Cut(h, ":"); ok {
			h = name
		}
		if h = strings.TrimPrefix(strings.TrimSpace(h), "@"); h != "" {
			return h
		}
	}
	for _, e := range contacts.Emails {
		if local, _, ok := strings.Cut(e, "@"); ok && local != "" {
			return local
		}
	}
	return fallback
}

