package lead

import (
	"context"
	"fmt"
	"net/mail"
	"sort"

	"github.com/aiesec-vn/ogvhub/core"
)

const digestTemplate = "allocation_digest"

// RecipientSource lists who should hear about new leads for an LC.
type RecipientSource interface {
	LCRecipients(ctx context.Context, lc string) ([]mail.Address, error)
}

type DigestData struct {
	LC    string
	Count int
	Leads []Allocation
}

// DigestNotifier emails each receiving LC one digest of its new leads.
type DigestNotifier struct {
	recipients RecipientSource
	mailSvc    core.EmailService
	logger     core.Logger
}

var _ Notifier = (*DigestNotifier)(nil)

func NewDigestNotifier(recipients RecipientSource, mailSvc core.EmailService, logger core.Logger) *DigestNotifier {
	return &DigestNotifier{recipients: recipients, mailSvc: mailSvc, logger: logger}
}

func (n *DigestNotifier) NotifyAllocations(ctx context.Context, allocs []Allocation) {
	byLC := make(map[string][]Allocation)
	for _, a := range allocs {
		byLC[a.NewLC] = append(byLC[a.NewLC], a)
	}
	lcs := make([]string, 0, len(byLC))
	for lc := range byLC {
		lcs = append(lcs, lc)
	}
	sort.Strings(lcs)

	messages := make([]*core.EmailMessage, 0, len(lcs))
	for _, lc := range lcs {
		to, err := n.recipients.LCRecipients(ctx, lc)
		if err != nil {
			n.logger.Warn(fmt.Sprintf("loading recipients for %s: %v", lc, err), err)
			continue
		}
		if len(to) == 0 {
			continue
		}
		leads := byLC[lc]
		messages = append(messages, &core.EmailMessage{
			To:           to,
			Subject:      fmt.Sprintf("%d new lead(s) allocated to %s", len(leads), lc),
			TemplateName: digestTemplate,
			TemplateData: DigestData{LC: lc, Count: len(leads), Leads: leads},
		})
	}
	if len(messages) > 0 {
		n.mailSvc.SendMessages(messages...)
	}
}
