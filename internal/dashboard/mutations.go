package dashboard

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

// ErrAddInFlight is returned when a create is submitted while the previous
// one is still being written: the submit control is disabled meanwhile.
var ErrAddInFlight = errors.New("a bookmark is already being added")

// WarnAddInFlight is shown when a create is refused because another one is
// still being written. Tabs sharing a session share one screen, so a submit
// from a second tab can land on a disabled form.
const WarnAddInFlight = "Another bookmark is being added, try again"

// Add validates and submits a new bookmark owned by the current identity.
//
// An incomplete draft returns domain.ErrIncompleteDraft and is dropped
// silently. A URL not starting with "http" returns domain.ErrInvalidURL and
// sets the screen warning. On a valid draft the insert is attempted once; its
// outcome is logged but not reported, the form is cleared either way, and the
// list is left for the change feed to refresh. A submit arriving while an
// insert is in flight returns ErrAddInFlight and sets WarnAddInFlight.
func (d *Dashboard) Add(ctx context.Context, title, url string) error {
	draft := domain.Draft{Title: title, URL: url}

	d.mu.Lock()
	if d.adding {
		d.warning = WarnAddInFlight
		d.mu.Unlock()
		return ErrAddInFlight
	}
	d.draft = draft
	d.warning = ""

	if err := draft.Validate(); err != nil {
		if domain.IsWarning(err) {
			d.warning = err.Error()
		}
		d.mu.Unlock()
		return err
	}

	identity, ok := domain.IdentityOf(d.session)
	if !ok {
		d.mu.Unlock()
		return domain.ErrUnauthenticated
	}
	d.adding = true
	d.mu.Unlock()

	callCtx, cancel := d.withTimeout(ctx)
	bm, err := d.client.Bookmarks.Insert(callCtx, draft.Row(identity.UserID))
	cancel()
	if err != nil {
		d.logger.Warn("bookmark insert failed", logger.Error(err))
	} else {
		d.logger.Info("bookmark added", logger.String("bookmark_id", bm.ID))
	}

	d.mu.Lock()
	d.adding = false
	d.draft = domain.Draft{}
	d.mu.Unlock()

	return nil
}

// Delete removes the bookmark id. There is no confirmation and no local
// removal: the change feed refreshes the list. Unknown ids are a no-op and
// remote failures are logged only.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	identity, ok := d.Identity()
	if !ok {
		return domain.ErrUnauthenticated
	}

	callCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	if err := d.client.Bookmarks.Delete(callCtx, identity.UserID, id); err != nil {
		d.logger.Warn("bookmark delete failed",
			logger.String("bookmark_id", id),
			logger.Error(err))
		return nil
	}

	d.logger.Debug("bookmark delete submitted", logger.String("bookmark_id", id))
	return nil
}
